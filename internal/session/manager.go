package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"doc-converter/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the browser cookie carrying the signed session reference.
const CookieName = "session"

// Claims is the JWT payload. SessionID points into the SessionStore; the
// cookie itself never carries user data.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues, resolves and revokes sessions.
type Manager struct {
	store  domain.SessionStore
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store domain.SessionStore, secretKey string, ttl time.Duration, secureCookie bool) *Manager {
	return &Manager{
		store:  store,
		secret: []byte(secretKey),
		ttl:    ttl,
		secure: secureCookie,
		now:    time.Now,
	}
}

// Create starts a session for user, replacing any session the request
// already carries, and sets the cookie on w.
func (m *Manager) Create(w http.ResponseWriter, r *http.Request, user *domain.User) (*domain.Session, error) {
	ctx := r.Context()
	if token, err := m.token(r); err == nil {
		_ = m.store.Clear(ctx, token)
	}

	now := m.now()
	sess := &domain.Session{
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now.UTC(),
	}
	token := uuid.NewString()
	if err := m.store.Set(ctx, token, sess, m.ttl); err != nil {
		return nil, err
	}

	signed, err := m.sign(token, now)
	if err != nil {
		_ = m.store.Clear(ctx, token)
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Load resolves the request's session. Any cookie, signature or store
// problem is reported as domain.ErrSessionNotFound.
func (m *Manager) Load(r *http.Request) (*domain.Session, error) {
	token, err := m.token(r)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	sess, err := m.store.Get(r.Context(), token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, errors.Join(domain.ErrSessionNotFound, err)
	}
	return sess, nil
}

// Destroy revokes the request's session and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var err error
	if token, tokErr := m.token(r); tokErr == nil {
		err = m.store.Clear(ctx, token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}

func (m *Manager) sign(token string, now time.Time) (string, error) {
	claims := &Claims{
		SessionID: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// token extracts and verifies the session id from the request cookie.
func (m *Manager) token(r *http.Request) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	claims := &Claims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", errors.New("session id missing from token")
	}
	return claims.SessionID, nil
}
