package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/promptcraft/internal/domain"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
	// Upstream carries the backend status and body for protocol failures.
	Upstream *upstreamDetail `json:"upstream,omitempty"`
}

type upstreamDetail struct {
	Service    string `json:"service"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Body       string `json:"body,omitempty"`
}

// statusFor maps an application error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrHistoryNotFound), errors.Is(err, domain.ErrHistoryEmpty):
		return http.StatusNotFound
	case domain.IsLLMError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	resp := errorResponse{
		Error:     err.Error(),
		RequestID: c.GetString(requestIDKey),
	}

	var protocol *domain.LLMProtocolError
	var unavailable *domain.LLMUnavailableError
	switch {
	case errors.As(err, &protocol):
		resp.Upstream = &upstreamDetail{
			Service:    string(protocol.Service),
			URL:        protocol.URL,
			StatusCode: protocol.StatusCode,
			Body:       protocol.Body,
		}
	case errors.As(err, &unavailable):
		resp.Upstream = &upstreamDetail{
			Service: string(unavailable.Service),
			URL:     unavailable.URL,
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request error", err, map[string]interface{}{
			"path":       c.Request.URL.Path,
			"request_id": resp.RequestID,
		})
	}
	c.AbortWithStatusJSON(status, resp)
}

func (h *handlers) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error:     msg,
		RequestID: c.GetString(requestIDKey),
	})
}
