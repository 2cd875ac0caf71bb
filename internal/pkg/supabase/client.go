package supabase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"github.com/tidwall/gjson"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
	"github.com/illegalcall/quickfix/pkg/logger"
)

const service = "identity provider"

var statusPattern = regexp.MustCompile(`response status code (\d{3})`)

// extractProjectRef extracts just the project reference ID from a Supabase URL
// From: akrqbuajqkirdekonpzy.supabase.co
// To: akrqbuajqkirdekonpzy
func extractProjectRef(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")

	parts := strings.Split(url, ".")
	return parts[0]
}

// Client adapts GoTrue to the operations the auth service needs and
// classifies every failure into an apperror kind.
type Client struct {
	auth gotrue.Client
}

type Option func(gotrue.Client) gotrue.Client

// WithURL points the client at a GoTrue server other than the hosted one.
func WithURL(u string) Option {
	return func(c gotrue.Client) gotrue.Client { return c.WithCustomGoTrueURL(u) }
}

func WithTimeout(d time.Duration) Option {
	return func(c gotrue.Client) gotrue.Client { return c.WithClient(http.Client{Timeout: d}) }
}

func NewClient(supabaseURL, anonKey string, opts ...Option) *Client {
	auth := gotrue.New(extractProjectRef(supabaseURL), anonKey)
	auth = WithTimeout(10 * time.Second)(auth)
	for _, opt := range opts {
		auth = opt(auth)
	}
	return &Client{auth: auth}
}

// Ping checks that the GoTrue settings endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.auth.GetSettings(); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*models.Identity, error) {
	resp, err := c.auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"full_name": fullName},
	})
	if err != nil {
		return nil, classify("signup", err)
	}

	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	if user.ID == uuid.Nil {
		return nil, apperror.Upstream(service, errors.New("signup returned no user"))
	}

	zerolog.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("identity created")
	return &models.Identity{
		UserID:      user.ID.String(),
		Email:       user.Email,
		FullName:    fullName,
		AccessToken: resp.Session.AccessToken,
	}, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	resp, err := c.auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, classify("signin", err)
	}
	if resp == nil || resp.AccessToken == "" || resp.User.ID == uuid.Nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	zerolog.Ctx(ctx).Debug().
		Str("user_id", resp.User.ID.String()).
		Str("access_token", logger.Redact(resp.AccessToken)).
		Msg("identity verified")

	fullName, _ := resp.User.UserMetadata["full_name"].(string)
	return &models.Identity{
		UserID:      resp.User.ID.String(),
		Email:       resp.User.Email,
		FullName:    fullName,
		AccessToken: resp.AccessToken,
	}, nil
}

func (c *Client) Recover(ctx context.Context, email string) error {
	if err := c.auth.Recover(types.RecoverRequest{Email: email}); err != nil {
		return classify("recover", err)
	}
	return nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := c.auth.WithToken(accessToken).Logout(); err != nil {
		return classify("logout", err)
	}
	return nil
}

// classify maps a GoTrue error to an apperror. Transport failures and 5xx
// answers are retryable; 4xx answers are the caller's fault.
func classify(op string, err error) error {
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return apperror.Upstream(service, err)
	}

	status := 0
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		status, _ = strconv.Atoi(m[1])
	}

	// GoTrue appends its JSON error body to the message.
	body := err.Error()
	if i := strings.IndexByte(body, '{'); i >= 0 {
		body = body[i:]
	}
	if gjson.Valid(body) {
		msg := gjson.Get(body, "msg").String()
		switch gjson.Get(body, "error_code").String() {
		case "weak_password":
			if msg == "" {
				msg = "password is too weak"
			}
			return apperror.Validation("password", msg)
		case "email_exists", "user_already_exists":
			return apperror.Conflict("an account with this email already exists")
		case "email_address_invalid":
			return apperror.Validation("email", "email address is invalid")
		case "over_email_send_rate_limit", "over_request_rate_limit":
			return apperror.RateLimited("too many attempts, try again later", err)
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return apperror.RateLimited("too many attempts, try again later", err)
	case status >= 500 || status == 0:
		return apperror.Upstream(service, err)
	case op == "signin" && (status == http.StatusBadRequest || status == http.StatusUnauthorized):
		return apperror.Unauthorized("Invalid credentials")
	case op == "signup" && (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity):
		return apperror.Conflict("an account with this email may already exist")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperror.Unauthorized("session is no longer valid")
	default:
		return &apperror.Error{
			Kind:    apperror.KindValidation,
			Message: fmt.Sprintf("%s rejected by %s", op, service),
			Err:     err,
		}
	}
}
