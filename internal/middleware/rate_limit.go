package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"kitchen_sync/internal/domain"
	"kitchen_sync/internal/service"
	"kitchen_sync/pkg/logger"
)

type RateLimitMiddleware struct {
	rateLimitService service.RateLimitService
	log              logger.Logger
}

func NewRateLimitMiddleware(rateLimitService service.RateLimitService, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		log:              log,
	}
}

// Limit списывает одну точку за запрос. Метаданные лимита выставляются
// и на успешном ответе, чтобы клиент мог замедлиться заранее.
func (m *RateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID := c.GetString("subject_id")
		if callerID == "" {
			callerID = c.ClientIP()
		}

		result, err := m.rateLimitService.Consume(c.Request.Context(), callerID)
		if err != nil {
			var exceeded *domain.LimitExceededError
			if errors.As(err, &exceeded) {
				setRateLimitHeaders(c, exceeded.Result)
				c.Header("Retry-After", strconv.FormatInt(int64(exceeded.Result.RetryAfter.Seconds()), 10))
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
				c.Abort()
				return
			}

			m.log.Error("Rate limit check failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			c.Abort()
			return
		}

		setRateLimitHeaders(c, *result)
		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result domain.ConsumeResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
