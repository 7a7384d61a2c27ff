package web

import (
	"errors"
	"mime"
	"net/url"
	"path"

	"github.com/gofiber/fiber/v2"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/server/render"
)

func (s *Server) userDashboard(c *fiber.Ctx) error {
	_, account, ok := s.requireUser(c)
	if !ok {
		return nil
	}
	return renderPage(c, "user_dashboard", pageData{
		Notice:  takeFlash(c),
		Account: account,
	})
}

func (s *Server) uploadFile(c *fiber.Ctx) error {
	sess, _, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	upload, err := c.FormFile("file")
	if err != nil || upload.Filename == "" {
		setFlash(c, "No file selected!")
		return c.Redirect("/user_dashboard", fiber.StatusSeeOther)
	}

	f, err := upload.Open()
	if err != nil {
		return s.fail(c, "/user_dashboard", err)
	}
	defer f.Close()

	record, err := s.vault.Store(c.Context(), sess.Username, f, upload.Filename)
	if err != nil {
		return s.fail(c, "/user_dashboard", err)
	}

	setFlash(c, "File '"+record.Name+"' uploaded.")
	return c.Redirect("/user_dashboard", fiber.StatusSeeOther)
}

func (s *Server) viewFile(c *fiber.Ctx) error {
	sess, _, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	view, err := s.pipeline.Prepare(c.Context(), sess.Username, pathParam(c, "filename"))
	if err != nil {
		return s.fail(c, "/user_dashboard", err)
	}

	switch view.Kind {
	case render.ViewImage:
		return renderPage(c, "view_img", pageData{StreamName: view.StreamName})
	default:
		return renderPage(c, "view_pdf", pageData{StreamName: view.StreamName})
	}
}

// inlinePdf streams PDF bytes with cache-busting headers. The name resolves
// first against the session user's own vault, then against the scratch
// directory where converted artifacts land.
func (s *Server) inlinePdf(c *fiber.Ctx) error {
	sess, _, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	name := pathParam(c, "filename")
	stream, err := s.vault.Open(c.Context(), sess.Username, name)
	if errors.Is(err, common.ErrFileNotFound) {
		stream, err = s.scratch.Open(name)
	}
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	return c.SendStream(stream)
}

// inlineImg streams image bytes from the session user's vault. No
// cache-busting here.
func (s *Server) inlineImg(c *fiber.Ctx) error {
	sess, _, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	name := pathParam(c, "filename")
	stream, err := s.vault.Open(c.Context(), sess.Username, name)
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.SendStream(stream)
}

func (s *Server) deleteFile(c *fiber.Ctx) error {
	sess, _, ok := s.requireUser(c)
	if !ok {
		return nil
	}

	name := pathParam(c, "filename")
	if err := s.vault.Delete(c.Context(), sess.Username, name); err != nil {
		return s.fail(c, "/user_dashboard", err)
	}

	setFlash(c, "File '"+name+"' deleted.")
	return c.Redirect("/user_dashboard", fiber.StatusSeeOther)
}

// pathParam returns the decoded path parameter; fiber hands it over still
// percent-encoded.
func pathParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
