package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/quickfix/internal/models"
)

func (s *Server) handleHistory(c *fiber.Ctx) error {
	h, err := s.dashboard.History(c.UserContext(), currentSession(c).UserID, models.HistoryFilter{
		Time:   c.Query("time"),
		Status: c.Query("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(h)
}

func (s *Server) handleFinanceChart(c *fiber.Ctx) error {
	points, err := s.dashboard.Chart(c.UserContext(), currentSession(c).UserID, c.QueryInt("year"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"chart": points})
}

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	d, err := s.dashboard.Dashboard(c.UserContext(), currentSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (s *Server) handleSpecialists(c *fiber.Ctx) error {
	list, err := s.catalog.Specialists(c.UserContext(), models.SpecialistFilter{
		Search:     c.Query("search"),
		Profession: c.Query("profession"),
		Limit:      c.QueryInt("limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"specialists": list})
}

func (s *Server) handleShops(c *fiber.Ctx) error {
	list, err := s.catalog.Shops(c.UserContext(), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"shops": list})
}

func (s *Server) handleAdvertisements(c *fiber.Ctx) error {
	list, err := s.catalog.Advertisements(c.UserContext(), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"advertisements": list})
}
