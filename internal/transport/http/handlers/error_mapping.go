package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/arklim/smart-grocery-api/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or
// falls back to a generic response. RateLimitExceededError is handled first
// so every surface answers 429 with a Retry-After header.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var rateErr *usecase.RateLimitExceededError
	if errors.As(err, &rateErr) {
		respondRateLimited(c, rateErr)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, ErrorResponse{Detail: cs.Message})
			return
		}
	}

	c.JSON(fallbackStatus, ErrorResponse{Detail: fallbackMessage})
}

func respondRateLimited(c *gin.Context, rateErr *usecase.RateLimitExceededError) {
	seconds := int(math.Ceil(rateErr.RetryAfter.Seconds()))
	if seconds < 0 {
		seconds = 0
	}

	c.Header("Retry-After", strconv.Itoa(seconds))
	c.JSON(http.StatusTooManyRequests, ErrorResponse{Detail: "Too many requests, please try again later"})
}
