package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/shared/response"
)

const maintenanceRetryAfter = 5 * time.Minute

type MaintenanceChecker interface {
	MaintenanceMode(ctx context.Context) (bool, error)
}

// Maintenance trả 503 khi maintenance mode bật.
// Đọc setting lỗi thì cho request đi tiếp (fail open) và log lại.
func Maintenance(checker MaintenanceChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		on, err := checker.MaintenanceMode(c.Request.Context())
		if err != nil {
			log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("maintenance flag unavailable, allowing request")
			c.Next()
			return
		}

		if on {
			response.ServiceUnavailable(c, "MAINTENANCE", "The shop is temporarily unavailable for maintenance", maintenanceRetryAfter)
			return
		}
		c.Next()
	}
}
