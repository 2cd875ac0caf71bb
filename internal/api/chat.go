package api

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/quickfix/internal/models"
)

func (s *Server) handleCreateConversation(c *fiber.Ctx) error {
	var req models.NewConversationRequest
	if len(c.Body()) > 0 {
		if err := s.bind(c, &req); err != nil {
			return err
		}
	}
	conv, err := s.chat.Create(c.UserContext(), currentSession(c).UserID, req.Title)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conv})
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	convs, err := s.chat.List(c.UserContext(), currentSession(c).UserID, c.QueryInt("limit"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := s.chat.Get(c.UserContext(), currentSession(c).UserID, id)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

func (s *Server) handleSendAIMessage(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req models.SendAIMessageRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	exchange, err := s.chat.Send(c.UserContext(), currentSession(c).UserID, id, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(exchange)
}

func (s *Server) handleResolveConversation(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	req := struct {
		Resolved *bool `json:"resolved"`
	}{}
	if len(c.Body()) > 0 {
		if err := s.bind(c, &req); err != nil {
			return err
		}
	}
	resolved := true
	if req.Resolved != nil {
		resolved = *req.Resolved
	}
	conv, err := s.chat.Resolve(c.UserContext(), currentSession(c).UserID, id, resolved)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"conversation": conv})
}

func (s *Server) handleAIMessageImage(c *fiber.Ctx) error {
	convID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	msgID, err := idParam(c, "messageID")
	if err != nil {
		return err
	}
	data, err := s.chat.Image(c.UserContext(), currentSession(c).UserID, convID, msgID)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, mimetype.Detect(data).String())
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(data)
}
