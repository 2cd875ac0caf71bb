package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/quickfix/internal/models"
)

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	sess := currentSession(c)
	profile, err := s.profiles.Current(c.UserContext(), sess.UserID, sess.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req models.ProfileUpdate
	if err := s.bind(c, &req); err != nil {
		return err
	}
	profile, err := s.profiles.Update(c.UserContext(), currentSession(c).UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": profile})
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	settings, err := s.settings.Get(c.UserContext(), currentSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var req models.SettingsUpdate
	if err := s.bind(c, &req); err != nil {
		return err
	}
	settings, err := s.settings.Update(c.UserContext(), currentSession(c).UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"settings": settings})
}
