// Package handler exposes the analytics summary endpoint.
package handler

import (
	"net/http"
	"time"

	"assurdesk_backend/internal/analytics/service"
	"assurdesk_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type summaryResponse struct {
	From          time.Time        `json:"from"`
	To            time.Time        `json:"to"`
	Conversations conversationPart `json:"conversations"`
	Messages      messagePart      `json:"messages"`
	Quotes        quotePart        `json:"quotes"`
	AverageScore  float64          `json:"averageOpportunityScore"`
}

type conversationPart struct {
	Total     int64            `json:"total"`
	Completed int64            `json:"completed"`
	ByReason  map[string]int64 `json:"byReason"`
}

type messagePart struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Validated int64 `json:"validated"`
	Rejected  int64 `json:"rejected"`
	Modified  int64 `json:"modified"`
}

type quotePart struct {
	Total         int64 `json:"total"`
	Sent          int64 `json:"sent"`
	Accepted      int64 `json:"accepted"`
	AcceptedCents int64 `json:"acceptedCents"`
}

// Summary handles GET /analytics/summary?from=&to= with RFC 3339 bounds.
func (h *Handler) Summary(c *gin.Context) {
	from, ok := parseTime(c, "from")
	if !ok {
		return
	}
	to, ok := parseTime(c, "to")
	if !ok {
		return
	}

	summary, err := h.svc.Summarize(c.Request.Context(), from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, summaryResponse{
		From: summary.From,
		To:   summary.To,
		Conversations: conversationPart{
			Total:     summary.Conversations.Total,
			Completed: summary.Conversations.Completed,
			ByReason:  summary.Conversations.ByReason,
		},
		Messages: messagePart{
			Total:     summary.Messages.Total,
			Pending:   summary.Messages.Pending,
			Validated: summary.Messages.Validated,
			Rejected:  summary.Messages.Rejected,
			Modified:  summary.Messages.Modified,
		},
		Quotes: quotePart{
			Total:         summary.Quotes.Total,
			Sent:          summary.Quotes.Sent,
			Accepted:      summary.Quotes.Accepted,
			AcceptedCents: summary.Quotes.AcceptedCents,
		},
		AverageScore: summary.AverageScore,
	})
}

func parseTime(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+name+" timestamp", nil)
		return time.Time{}, false
	}
	return parsed, true
}
