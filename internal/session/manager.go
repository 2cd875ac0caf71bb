package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Status is the tri-state outcome of resolving a token.
type Status int

const (
	// Loading means the session store could not answer yet.
	Loading Status = iota
	Authenticated
	Anonymous
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// State carries a Session only when Status is Authenticated.
type State struct {
	Status  Status
	Session *Session
}

type Manager struct {
	store  *Store
	tokens *Tokens
}

func NewManager(store *Store, tokens *Tokens) *Manager {
	return &Manager{store: store, tokens: tokens}
}

// Start records a new session and returns its signed token.
func (m *Manager) Start(ctx context.Context, userID, email, providerToken string) (string, *Session, error) {
	now := m.tokens.now().UTC()
	sess := Session{
		ID:            newID(),
		UserID:        userID,
		Email:         email,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.tokens.TTL()),
		ProviderToken: providerToken,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return "", nil, err
	}
	token, err := m.tokens.Issue(sess)
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return "", nil, err
	}
	return token, &sess, nil
}

// Resolve never fails: bad, expired or revoked tokens are Anonymous and a
// store outage is Loading.
func (m *Manager) Resolve(ctx context.Context, rawToken string) State {
	if rawToken == "" {
		return State{Status: Anonymous}
	}
	claims, err := m.tokens.Parse(rawToken)
	if err != nil {
		return State{Status: Anonymous}
	}
	return m.Lookup(ctx, claims.SessionID, claims.Subject)
}

// Lookup checks that a session id taken from an already verified token is
// still live and belongs to userID.
func (m *Manager) Lookup(ctx context.Context, sessionID, userID string) State {
	sess, err := m.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return State{Status: Anonymous}
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("session store unavailable")
		return State{Status: Loading}
	}
	if sess.UserID != userID || !sess.ExpiresAt.After(time.Now()) {
		return State{Status: Anonymous}
	}
	return State{Status: Authenticated, Session: sess}
}

func (m *Manager) End(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}
