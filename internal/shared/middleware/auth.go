package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/user"
	"roastery-backend/internal/shared/response"
)

const principalKey = "principal"

// SessionGate là cổng Authorize duy nhất cho mọi route cần đăng nhập
type SessionGate struct {
	authority  user.Authority
	cookieName string
}

func NewSessionGate(authority user.Authority, cookieName string) *SessionGate {
	return &SessionGate{authority: authority, cookieName: cookieName}
}

// extractToken đọc session cookie, fallback sang "Authorization: Bearer <token>"
func (g *SessionGate) extractToken(c *gin.Context) string {
	if token, err := c.Cookie(g.cookieName); err == nil && token != "" {
		return token
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Require chỉ cho qua principal có role nằm trong roles.
// Không có token / token sai / account inactive → 401, sai role → 403.
func (g *SessionGate) Require(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := g.extractToken(c)
		if token == "" {
			response.AbortWithError(c, 401, "UNAUTHORIZED", "authentication required")
			return
		}

		principal, err := g.authority.Authorize(c.Request.Context(), token, roles...)
		if err != nil {
			switch {
			case errors.Is(err, user.ErrInvalidToken):
				response.AbortWithError(c, 401, "INVALID_SESSION", err.Error())
			case errors.Is(err, user.ErrAccountInactive):
				response.AbortWithError(c, 401, "ACCOUNT_INACTIVE", err.Error())
			case errors.Is(err, user.ErrForbidden):
				response.AbortWithError(c, 403, "FORBIDDEN", err.Error())
			default:
				log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("session authorization failed")
				response.AbortWithError(c, 500, "INTERNAL_SERVER_ERROR", "Internal server error")
			}
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireSession = bất kỳ role nào, chỉ cần đăng nhập
func (g *SessionGate) RequireSession() gin.HandlerFunc {
	return g.Require(user.AllRoles()...)
}

// Optional gắn principal nếu có session hợp lệ, ngược lại đi tiếp như guest
func (g *SessionGate) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := g.extractToken(c); token != "" {
			if principal, err := g.authority.Verify(c.Request.Context(), token); err == nil {
				SetPrincipal(c, principal)
			}
		}
		c.Next()
	}
}

// GetPrincipal lấy principal đã được gate gắn vào context
func GetPrincipal(c *gin.Context) (*user.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*user.Principal)
	return p, ok && p != nil
}

// SetPrincipal gắn principal vào context (dùng bởi gate và tests)
func SetPrincipal(c *gin.Context, p *user.Principal) {
	c.Set(principalKey, p)
}
