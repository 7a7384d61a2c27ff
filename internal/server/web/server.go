// Package web exposes the HTTP surface: login forms, the admin and user
// dashboards, upload and delete actions, and the inline viewing routes.
// Every failure a handler can see is recovered into a transient notice and
// a redirect; nothing propagates as a raw transport fault.
package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/logging"
	"github.com/dkravets/irisvault/internal/server/convert"
	"github.com/dkravets/irisvault/internal/server/directory"
	"github.com/dkravets/irisvault/internal/server/gate"
	"github.com/dkravets/irisvault/internal/server/models"
	"github.com/dkravets/irisvault/internal/server/render"
	"github.com/dkravets/irisvault/internal/server/session"
	"github.com/dkravets/irisvault/internal/server/vault"
)

const sessionCookie = "irisvault_session"

// Options carries everything the HTTP layer needs from the rest of the
// system.
type Options struct {
	Sessions *session.Manager
	Gate     *gate.Gate
	Dir      *directory.Store
	Vault    *vault.Vault
	Pipeline *render.Pipeline
	Scratch  *convert.Scratch
	Logger   logging.Logger
	// MaxUploadBytes caps the request body; oversized uploads are rejected
	// by the framework before any handler runs.
	MaxUploadBytes int
	// SessionValidity bounds the session cookie lifetime.
	SessionValidity time.Duration
	// Shutdown is invoked by the exit route; the host shell owns the
	// actual teardown.
	Shutdown func()
}

type Server struct {
	app      *fiber.App
	sessions *session.Manager
	validity time.Duration
	gate     *gate.Gate
	dir      *directory.Store
	vault    *vault.Vault
	pipeline *render.Pipeline
	scratch  *convert.Scratch
	logger   logging.Logger
	shutdown func()
}

func NewServer(opts Options) *Server {
	s := &Server{
		sessions: opts.Sessions,
		validity: opts.SessionValidity,
		gate:     opts.Gate,
		dir:      opts.Dir,
		vault:    opts.Vault,
		pipeline: opts.Pipeline,
		scratch:  opts.Scratch,
		logger:   opts.Logger.With("module", "web"),
		shutdown: opts.Shutdown,
	}

	s.app = fiber.New(fiber.Config{
		BodyLimit:             opts.MaxUploadBytes,
		DisableStartupMessage: true,
	})
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.mainPage)

	s.app.Get("/admin_login", s.adminLoginPage)
	s.app.Post("/admin_login", s.adminLogin)
	s.app.Get("/admin_dashboard", s.adminDashboard)
	s.app.Post("/add_user", s.addUser)
	s.app.Post("/delete_user", s.deleteUser)

	s.app.Get("/user_login", s.userLoginPage)
	s.app.Post("/user_login", s.userLogin)
	s.app.Get("/user_dashboard", s.userDashboard)
	s.app.Post("/user_upload_file", s.uploadFile)
	s.app.Get("/view/:filename", s.viewFile)
	s.app.Get("/inline-pdf/:filename", s.inlinePdf)
	s.app.Get("/inline-img/:filename", s.inlineImg)
	s.app.Get("/delete_file/:filename", s.deleteFile)

	s.app.Post("/logout", s.logout)
	s.app.Post("/exit", s.exit)
}

// Listen serves until ShutdownWithTimeout is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// ShutdownWithTimeout stops accepting new requests and drains in-flight
// ones for at most the grace period.
func (s *Server) ShutdownWithTimeout(grace time.Duration) error {
	return s.app.ShutdownWithTimeout(grace)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// requireRole resolves the session cookie and checks the role. Auth
// failures send the client back to the anonymous entry point; the returned
// bool says whether the handler may proceed.
func (s *Server) requireRole(c *fiber.Ctx, role models.Role) (*models.Session, bool) {
	sess, err := s.sessions.Require(c.Cookies(sessionCookie), role)
	if err != nil {
		_ = c.Redirect("/", fiber.StatusSeeOther)
		return nil, false
	}
	return sess, true
}

// requireUser additionally checks that the session's account still exists.
// An account deleted while its owner is logged in leaves a dangling
// session; it is dropped here and treated as not logged in.
func (s *Server) requireUser(c *fiber.Ctx) (*models.Session, *models.Account, bool) {
	sess, ok := s.requireRole(c, models.RoleUser)
	if !ok {
		return nil, nil, false
	}

	account, err := s.dir.Get(sess.Username)
	if err != nil {
		s.logger.Warn(c.Context(), "dangling session dropped", "username", sess.Username)
		s.sessions.Drop(sess.ID)
		clearSessionCookie(c)
		_ = c.Redirect("/", fiber.StatusSeeOther)
		return nil, nil, false
	}

	return sess, account, true
}

// fail turns a recoverable error into a notice and a redirect back to the
// page the action originated from.
func (s *Server) fail(c *fiber.Ctx, backTo string, err error) error {
	s.logger.Warn(c.Context(), "request failed", "path", c.Path(), "error", err)
	setFlash(c, noticeFor(err))
	return c.Redirect(backTo, fiber.StatusSeeOther)
}

// noticeFor maps the error taxonomy to the user-visible transient notices.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingField):
		return "All fields are required!"
	case errors.Is(err, common.ErrDuplicateUsername):
		return "User already exists!"
	case errors.Is(err, common.ErrUserNotFound):
		return "No such user. Contact admin."
	case errors.Is(err, common.ErrFileNotFound):
		return "File not found."
	case errors.Is(err, common.ErrFileLocked):
		return "Cannot delete the file because it's in use by another process."
	case errors.Is(err, common.ErrConversionFailed):
		return "Conversion failed."
	case errors.Is(err, common.ErrUnsupportedFormat):
		return "Unsupported file for inline view."
	case errors.Is(err, common.ErrUnauthenticated):
		return "Authentication failed!"
	default:
		return "Storage error. Please try again."
	}
}

func setSessionCookie(c *fiber.Ctx, token string, validity time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Expires:  time.Now().Add(validity),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
