package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/service"
	"github.com/illegalcall/quickfix/internal/session"
)

const (
	localSession         = "session"
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	tokenCookie          = "token"
)

// requestLogger attaches a request-scoped logger to the user context and
// logs one line per request.
func requestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		log := base.With().
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Logger()
		c.SetUserContext(log.WithContext(c.UserContext()))

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		evt := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			evt = log.Error()
		case status >= fiber.StatusBadRequest:
			evt = log.Warn()
		}
		if sess := currentSession(c); sess != nil {
			evt = evt.Str("user_id", sess.UserID)
		}
		evt.Int("status", status).Dur("latency", time.Since(start)).Msg("request")
		return nil
	}
}

// requireSession runs after the JWT middleware and checks that the token's
// session is still live in Redis.
func (s *Server) requireSession(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwtv4.Token)
	if !ok {
		return apperror.Unauthorized("missing or invalid token")
	}
	claims, ok := token.Claims.(jwtv4.MapClaims)
	if !ok {
		return apperror.Unauthorized("missing or invalid token")
	}
	sid, _ := claims["sid"].(string)
	sub, _ := claims["sub"].(string)
	if sid == "" || sub == "" {
		return apperror.Unauthorized("missing or invalid token")
	}

	state := s.sessions.Lookup(c.UserContext(), sid, sub)
	switch state.Status {
	case session.Loading:
		return sessionLoading(c)
	case session.Anonymous:
		return apperror.Unauthorized("session expired or revoked")
	}

	c.Locals(localSession, state.Session)
	log := zerolog.Ctx(c.UserContext()).With().Str("user_id", sub).Logger()
	c.SetUserContext(log.WithContext(c.UserContext()))
	return c.Next()
}

func currentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(localSession).(*session.Session)
	return sess
}

// bearerToken reads the token from the Authorization header, falling back
// to the token cookie used by page navigations.
func bearerToken(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if rest, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
		return ""
	}
	return c.Cookies(tokenCookie)
}

type storedResponse struct {
	Hash        string `json:"hash"`
	Pending     bool   `json:"pending"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// idempotent replays the stored response for a repeated Idempotency-Key.
// Only successful responses are stored. When Redis is unavailable the
// request passes through and the database constraint still prevents a
// second debit.
func (s *Server) idempotent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(headerIdempotencyKey)
		if err := service.ValidateIdempotencyKey(key); err != nil {
			return err
		}
		sess := currentSession(c)
		if sess == nil {
			return apperror.Unauthorized("missing or invalid token")
		}

		ctx := c.UserContext()
		log := zerolog.Ctx(ctx)
		redisKey := fmt.Sprintf("idempotency:%s:%s:%s", sess.UserID, c.Path(), key)
		sum := sha256.Sum256(c.Body())
		hash := hex.EncodeToString(sum[:])
		ttl := s.cfg.Server.IdempotencyTTL

		pending, _ := json.Marshal(storedResponse{Hash: hash, Pending: true})
		acquired, err := s.db.Redis.SetNX(ctx, redisKey, pending, ttl).Result()
		if err != nil {
			log.Warn().Err(err).Msg("idempotency store unavailable")
			return c.Next()
		}

		if !acquired {
			raw, err := s.db.Redis.Get(ctx, redisKey).Bytes()
			if err != nil {
				log.Warn().Err(err).Msg("idempotency store unavailable")
				return c.Next()
			}
			var prev storedResponse
			if err := json.Unmarshal(raw, &prev); err != nil {
				return apperror.Internal("decode stored response", err)
			}
			if prev.Hash != hash {
				return apperror.Conflict("Idempotency-Key was already used with a different request")
			}
			if prev.Pending {
				return apperror.Conflict("a request with this Idempotency-Key is still in progress")
			}
			c.Set(headerReplayed, "true")
			c.Set(fiber.HeaderContentType, prev.ContentType)
			return c.Status(prev.Status).Send(prev.Body)
		}

		if err := c.Next(); err != nil {
			s.db.Redis.Del(ctx, redisKey)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusBadRequest {
			s.db.Redis.Del(ctx, redisKey)
			return nil
		}
		rec, _ := json.Marshal(storedResponse{
			Hash:        hash,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err := s.db.Redis.Set(ctx, redisKey, rec, ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("failed to store idempotent response")
		}
		return nil
	}
}

// idParam returns a path parameter that must be a UUID.
func idParam(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if err := uuid.Validate(id); err != nil {
		return "", apperror.Validation(name, name+" must be a valid id")
	}
	return id, nil
}
