package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/quickfix/internal/models"
)

func (s *Server) handleGetWallet(c *fiber.Ctx) error {
	wallet, err := s.wallet.Wallet(c.UserContext(), currentSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(wallet)
}

func (s *Server) handleCheckout(c *fiber.Ctx) error {
	var req models.CheckoutRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	res, err := s.wallet.Checkout(c.UserContext(), currentSession(c).UserID, c.Get(headerIdempotencyKey), req)
	if err != nil {
		return err
	}
	return c.Status(createdUnlessReplayed(res.Replayed)).JSON(res)
}

func (s *Server) handleTopUp(c *fiber.Ctx) error {
	var req models.TopUpRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	res, err := s.wallet.TopUp(c.UserContext(), currentSession(c).UserID, c.Get(headerIdempotencyKey), req)
	if err != nil {
		return err
	}
	return c.Status(createdUnlessReplayed(res.Replayed)).JSON(res)
}

func (s *Server) handleProfessionalHelp(c *fiber.Ctx) error {
	var req models.ProfessionalHelpRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	res, err := s.help.RequestProfessional(c.UserContext(), currentSession(c).UserID, c.Get(headerIdempotencyKey), req)
	if err != nil {
		return err
	}
	return c.Status(createdUnlessReplayed(res.Checkout.Replayed)).JSON(res)
}

func (s *Server) handleListTasks(c *fiber.Ctx) error {
	tasks, err := s.help.Tasks(c.UserContext(), currentSession(c).UserID, c.Query("status"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

func (s *Server) handleGetTask(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	task, err := s.help.Task(c.UserContext(), currentSession(c).UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"task": task})
}

func createdUnlessReplayed(replayed bool) int {
	if replayed {
		return fiber.StatusOK
	}
	return fiber.StatusCreated
}
