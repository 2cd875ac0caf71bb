package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
	"github.com/illegalcall/quickfix/internal/navigation"
	"github.com/illegalcall/quickfix/internal/session"
)

type sessionResponse struct {
	Status  string          `json:"status"`
	UserID  string          `json:"user_id,omitempty"`
	Email   string          `json:"email,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`
}

func (s *Server) handleSignUp(c *fiber.Ctx) error {
	var req models.SignUpRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	res, err := s.auth.SignUp(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	res, err := s.auth.SignIn(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) handleLogout(c *fiber.Ctx) error {
	if err := s.auth.SignOut(c.UserContext(), currentSession(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleForgotPassword(c *fiber.Ctx) error {
	var req models.ForgotPasswordRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := s.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If the address belongs to an account, a reset link has been sent",
	})
}

// handleSession reports the session state of the bearer token.
func (s *Server) handleSession(c *fiber.Ctx) error {
	ctx := c.UserContext()
	state := s.sessions.Resolve(ctx, bearerToken(c))

	res := sessionResponse{Status: state.Status.String()}
	switch state.Status {
	case session.Loading:
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	case session.Authenticated:
		profile, err := s.profiles.Current(ctx, state.Session.UserID, state.Session.Email)
		if err != nil {
			return err
		}
		res.UserID = state.Session.UserID
		res.Email = state.Session.Email
		res.Profile = profile
	}
	return c.JSON(res)
}

func (s *Server) handleNavigation(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return apperror.Validation("path", "path is required")
	}
	state := s.sessions.Resolve(c.UserContext(), bearerToken(c))
	decision, err := navigation.Guard(path, state.Status)
	if err != nil {
		return err
	}
	return c.JSON(decision)
}

// handlePage serves the client routes: redirects, a 503 while the session
// is loading, otherwise the view to render.
func (s *Server) handlePage(c *fiber.Ctx) error {
	state := s.sessions.Resolve(c.UserContext(), bearerToken(c))
	decision, err := navigation.Guard(c.Path(), state.Status)
	if err != nil {
		return err
	}
	switch decision.Action {
	case navigation.Redirect:
		return c.Redirect(decision.To, fiber.StatusFound)
	case navigation.Wait:
		return sessionLoading(c)
	}
	return c.JSON(fiber.Map{
		"path":   c.Path(),
		"view":   decision.View,
		"status": state.Status.String(),
	})
}
