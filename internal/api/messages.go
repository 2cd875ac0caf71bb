package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/quickfix/internal/models"
)

func (s *Server) handleSendMessage(c *fiber.Ctx) error {
	var req models.SendMessageRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	msg, err := s.messaging.Send(c.UserContext(), currentSession(c).UserID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

func (s *Server) handleContacts(c *fiber.Ctx) error {
	contacts, err := s.messaging.Contacts(c.UserContext(), currentSession(c).UserID, c.Query("search"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"contacts": contacts})
}

func (s *Server) handleDirectConversation(c *fiber.Ctx) error {
	msgs, err := s.messaging.Conversation(c.UserContext(), currentSession(c).UserID, c.Params("userID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (s *Server) handleMarkMessageRead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.messaging.MarkRead(c.UserContext(), currentSession(c).UserID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleCreateGroup(c *fiber.Ctx) error {
	var req models.NewGroupRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	group, err := s.messaging.CreateGroup(c.UserContext(), currentSession(c).UserID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group": group})
}

func (s *Server) handleGroupMessages(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	msgs, err := s.messaging.GroupMessages(c.UserContext(), currentSession(c).UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

func (s *Server) handleListNotifications(c *fiber.Ctx) error {
	list, err := s.notifications.List(c.UserContext(), currentSession(c).UserID,
		c.Query("type"), c.QueryBool("unread"), c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"notifications": list})
}

func (s *Server) handleMarkNotificationRead(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.notifications.MarkRead(c.UserContext(), currentSession(c).UserID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleMarkAllNotificationsRead(c *fiber.Ctx) error {
	n, err := s.notifications.MarkAllRead(c.UserContext(), currentSession(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"updated": n})
}
