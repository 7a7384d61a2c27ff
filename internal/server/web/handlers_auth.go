package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/server/models"
)

func (s *Server) mainPage(c *fiber.Ctx) error {
	return renderPage(c, "main", pageData{Notice: takeFlash(c)})
}

func (s *Server) adminLoginPage(c *fiber.Ctx) error {
	return renderPage(c, "admin_login", pageData{Notice: takeFlash(c)})
}

func (s *Server) adminLogin(c *fiber.Ctx) error {
	password := c.FormValue("password")
	iris, err := c.FormFile("iris")
	if password == "" || err != nil {
		return s.fail(c, "/admin_login", common.ErrMissingField)
	}

	f, err := iris.Open()
	if err != nil {
		return s.fail(c, "/admin_login", err)
	}
	defer f.Close()

	if err := s.gate.AuthenticateAdmin(c.Context(), password, f, iris.Filename); err != nil {
		return s.fail(c, "/admin_login", err)
	}

	return s.issueSession(c, models.RoleAdmin, "", "/admin_dashboard")
}

func (s *Server) userLoginPage(c *fiber.Ctx) error {
	return renderPage(c, "user_login", pageData{Notice: takeFlash(c)})
}

func (s *Server) userLogin(c *fiber.Ctx) error {
	username := c.FormValue("username")
	iris, err := c.FormFile("iris")
	if username == "" || err != nil {
		return s.fail(c, "/user_login", common.ErrMissingField)
	}

	f, err := iris.Open()
	if err != nil {
		return s.fail(c, "/user_login", err)
	}
	defer f.Close()

	if err := s.gate.AuthenticateUser(c.Context(), username, f, iris.Filename); err != nil {
		return s.fail(c, "/user_login", err)
	}

	return s.issueSession(c, models.RoleUser, username, "/user_dashboard")
}

func (s *Server) issueSession(c *fiber.Ctx, role models.Role, username, dashboard string) error {
	token, err := s.sessions.Login(role, username)
	if err != nil {
		s.logger.Error(c.Context(), "session issue failed", "error", err)
		return s.fail(c, "/", common.ErrUnauthenticated)
	}

	setSessionCookie(c, token, s.validity)
	return c.Redirect(dashboard, fiber.StatusSeeOther)
}

func (s *Server) logout(c *fiber.Ctx) error {
	s.sessions.Logout(c.Cookies(sessionCookie))
	clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// exit is the terminal shutdown signal consumed by the host shell. The
// response goes out first; the drain window lets it finish.
func (s *Server) exit(c *fiber.Ctx) error {
	s.logger.Info(c.Context(), "shutdown requested")
	if s.shutdown != nil {
		s.shutdown()
	}
	return c.SendString("Exiting application...")
}
