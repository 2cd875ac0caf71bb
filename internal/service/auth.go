package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/illegalcall/quickfix/internal/apperror"
	"github.com/illegalcall/quickfix/internal/models"
	"github.com/illegalcall/quickfix/internal/session"
)

// SignUpResult carries a token only when the identity provider confirmed the
// account immediately.
type SignUpResult struct {
	Profile              *models.Profile `json:"profile"`
	Token                string          `json:"token,omitempty"`
	ExpiresAt            *time.Time      `json:"expires_at,omitempty"`
	ConfirmationRequired bool            `json:"confirmation_required"`
}

type AuthService struct {
	identity IdentityProvider
	profiles ProfileStore
	sessions Sessions
}

func NewAuthService(identity IdentityProvider, profiles ProfileStore, sessions Sessions) *AuthService {
	return &AuthService{identity: identity, profiles: profiles, sessions: sessions}
}

func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*SignUpResult, error) {
	if !req.AcceptTerms {
		return nil, apperror.Validation("accept_terms", "terms must be accepted")
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperror.Validation("confirm_password", "passwords do not match")
	}
	email := normalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)

	id, err := s.identity.SignUp(ctx, email, req.Password, fullName)
	if err != nil {
		return nil, err
	}

	profile, created, err := s.profiles.Ensure(ctx, models.NewProfile{
		UserID:        id.UserID,
		Email:         id.Email,
		FullName:      fullName,
		AcceptedTerms: true,
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", id.UserID).Bool("created", created).Msg("user signed up")

	res := &SignUpResult{Profile: profile, ConfirmationRequired: id.AccessToken == ""}
	if res.ConfirmationRequired {
		return res, nil
	}
	token, sess, err := s.sessions.Start(ctx, id.UserID, id.Email, id.AccessToken)
	if err != nil {
		return nil, apperror.Internal("start session", err)
	}
	res.Token = token
	res.ExpiresAt = &sess.ExpiresAt
	return res, nil
}

// SignIn authenticates against the identity provider, provisions the profile
// if this is the first sign-in and starts a session.
func (s *AuthService) SignIn(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	id, err := s.identity.SignIn(ctx, normalizeEmail(req.Email), req.Password)
	if err != nil {
		return nil, err
	}

	profile, created, err := s.profiles.Ensure(ctx, models.NewProfile{
		UserID:   id.UserID,
		Email:    id.Email,
		FullName: id.FullName,
	})
	if err != nil {
		return nil, err
	}

	token, sess, err := s.sessions.Start(ctx, id.UserID, id.Email, id.AccessToken)
	if err != nil {
		return nil, apperror.Internal("start session", err)
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", id.UserID).
		Str("session_id", sess.ID).
		Bool("profile_created", created).
		Msg("user signed in")

	return &models.LoginResponse{Token: token, ExpiresAt: sess.ExpiresAt, Profile: profile}, nil
}

// SignOut revokes the local session. Revoking the provider session is best
// effort.
func (s *AuthService) SignOut(ctx context.Context, sess *session.Session) error {
	if err := s.sessions.End(ctx, sess.ID); err != nil {
		return apperror.Internal("end session", err)
	}
	if sess.ProviderToken != "" {
		if err := s.identity.SignOut(ctx, sess.ProviderToken); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", sess.UserID).Msg("provider sign-out failed")
		}
	}
	return nil
}

// ForgotPassword never reports whether the address belongs to an account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if err := s.identity.Recover(ctx, normalizeEmail(email)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("password recovery request failed")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type ProfileService struct {
	profiles ProfileStore
}

func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Current returns the caller's profile, provisioning it when the account
// predates the profile row.
func (s *ProfileService) Current(ctx context.Context, userID, email string) (*models.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if apperror.KindOf(err) != apperror.KindNotFound {
		return nil, err
	}
	p, _, err = s.profiles.Ensure(ctx, models.NewProfile{UserID: userID, Email: email})
	return p, err
}

func (s *ProfileService) Update(ctx context.Context, userID string, u models.ProfileUpdate) (*models.Profile, error) {
	if u.FullName != nil {
		name := strings.TrimSpace(*u.FullName)
		if len([]rune(name)) < 2 {
			return nil, apperror.Validation("full_name", "full name must be at least 2 characters")
		}
		u.FullName = &name
	}
	return s.profiles.Update(ctx, userID, u)
}
