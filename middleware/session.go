// middleware/session.go
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/nexvia/nexvia_portal_backend/models"
)

// SessionHeader is the request header carrying the session token
const SessionHeader = "X-Session-Token"

// DefaultSessionTTL is how long an idle session stays valid
const DefaultSessionTTL = 12 * time.Hour

// ErrSessionNotFound is returned when no session exists for a token
var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side session record stored in Redis, keyed by
// the session token issued at login
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore is a Redis-backed session store. Handlers receive it as
// an explicit dependency; the session is never ambient global state.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a session store with the default TTL
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client, ttl: DefaultSessionTTL}
}

func sessionKey(token string) string {
	return "session:" + token
}

// GenerateSessionToken generates a secure random session token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// Create issues a new session for the given user and stores it in Redis
func (s *SessionStore) Create(ctx context.Context, userID, email, role string) (*Session, error) {
	if s.client == nil {
		return nil, errors.New("session store is not connected")
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return nil, err
	}

	return session, nil
}

// Get looks up the session for a token
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	if s.client == nil {
		return nil, errors.New("session store is not connected")
	}

	data, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		s.client.Del(ctx, sessionKey(token))
		return nil, ErrSessionNotFound
	}

	return &session, nil
}

// Touch extends the session lifetime after activity
func (s *SessionStore) Touch(ctx context.Context, token string) error {
	if s.client == nil {
		return errors.New("session store is not connected")
	}
	return s.client.Expire(ctx, sessionKey(token), s.ttl).Err()
}

// Delete destroys a session
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if s.client == nil {
		return errors.New("session store is not connected")
	}
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// RequireSession resolves the session token from the request header and
// stores the session in the echo context under "session". Requests
// without a live session are rejected.
func RequireSession(store *SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(SessionHeader)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Session token is required",
				})
			}

			session, err := store.Get(c.Request().Context(), token)
			if err != nil {
				if err == ErrSessionNotFound {
					return c.JSON(http.StatusUnauthorized, models.Response{
						Status:  http.StatusUnauthorized,
						Message: "Session has expired or been destroyed",
					})
				}
				c.Logger().Errorf("Session lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, models.Response{
					Status:  http.StatusInternalServerError,
					Message: "Failed to resolve session",
				})
			}

			// Extend lifetime on activity, best effort
			if err := store.Touch(c.Request().Context(), token); err != nil {
				c.Logger().Warnf("Failed to touch session: %v", err)
			}

			c.Set("session", session)
			return next(c)
		}
	}
}

// GetSession returns the session placed in the context by RequireSession
func GetSession(c echo.Context) *Session {
	session, ok := c.Get("session").(*Session)
	if !ok {
		return nil
	}
	return session
}
