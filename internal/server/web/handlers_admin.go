package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/server/models"
)

func (s *Server) adminDashboard(c *fiber.Ctx) error {
	if _, ok := s.requireRole(c, models.RoleAdmin); !ok {
		return nil
	}
	return renderPage(c, "admin_dashboard", pageData{
		Notice:   takeFlash(c),
		Accounts: s.dir.List(),
	})
}

func (s *Server) addUser(c *fiber.Ctx) error {
	if _, ok := s.requireRole(c, models.RoleAdmin); !ok {
		return nil
	}

	displayName := c.FormValue("display_name")
	username := c.FormValue("username")
	iris, err := c.FormFile("iris")
	if displayName == "" || username == "" || err != nil {
		return s.fail(c, "/admin_dashboard", common.ErrMissingField)
	}

	f, err := iris.Open()
	if err != nil {
		return s.fail(c, "/admin_dashboard", err)
	}
	defer f.Close()

	key, err := s.vault.SaveCredential(c.Context(), f, iris.Filename)
	if err != nil {
		return s.fail(c, "/admin_dashboard", err)
	}
	if _, err := s.dir.AddUser(c.Context(), displayName, username, key); err != nil {
		return s.fail(c, "/admin_dashboard", err)
	}

	setFlash(c, "User '"+username+"' added.")
	return c.Redirect("/admin_dashboard", fiber.StatusSeeOther)
}

// deleteUser removes the account. Objects the user previously uploaded stay
// in the vault; orphans are an accepted trade-off of deletion.
func (s *Server) deleteUser(c *fiber.Ctx) error {
	if _, ok := s.requireRole(c, models.RoleAdmin); !ok {
		return nil
	}

	username := c.FormValue("username")
	if username == "" {
		return s.fail(c, "/admin_dashboard", common.ErrMissingField)
	}

	if err := s.dir.DeleteUser(c.Context(), username); err != nil {
		return s.fail(c, "/admin_dashboard", err)
	}

	setFlash(c, "User '"+username+"' deleted.")
	return c.Redirect("/admin_dashboard", fiber.StatusSeeOther)
}
