package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mfl-intake/internal/repository"
	apperrors "github.com/spec-kit/mfl-intake/pkg/util/errorutil"
)

const sessionIDKey = "intake_session_id"

// SessionMiddleware resolves the bearer token to a live intake session.
type SessionMiddleware struct {
	tokens   *TokenManager
	sessions repository.SessionRepository
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, sessions repository.SessionRepository) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, sessions: sessions}
}

// Handle enforces a valid session for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	if _, err := m.sessions.Get(c.UserContext(), claims.SessionID); err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return apperrors.NewUnauthorized("session expired")
		}
		return err
	}

	c.Locals(sessionIDKey, claims.SessionID)
	return c.Next()
}

// SessionIDFromContext retrieves the authenticated session id.
func SessionIDFromContext(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(sessionIDKey).(string)
	return id, ok && id != ""
}
