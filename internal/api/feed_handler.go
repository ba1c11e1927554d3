package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pulsefeed/internal/config"
	"pulsefeed/internal/feed"
)

// feedRequest is the caller's contract. Absent fields take defaults;
// offset and limit are clamped server-side.
type feedRequest struct {
	SessionID string `json:"sessionId"`
	Offset    int    `json:"offset"`
	Limit     int    `json:"limit"`
	PostType  string `json:"postType"`
}

// FeedHandler generates one personalized feed page.
func FeedHandler(gen *feed.Generator, rules config.FeedRules) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body feedRequest
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			RespondError(c, http.StatusBadRequest, "bad_request", "malformed request body")
			return
		}

		offset := body.Offset
		if offset < 0 {
			offset = 0
		}
		limit := body.Limit
		if limit < 1 {
			limit = rules.DefaultLimit
		}
		if limit > rules.MaxLimit {
			limit = rules.MaxLimit
		}
		postType := body.PostType
		if postType == "" {
			postType = "all"
		}

		userID := c.GetString(userIDKey)
		page, sctx, err := gen.Generate(c.Request.Context(), feed.Request{
			UserID:    userID,
			SessionID: body.SessionID,
			Offset:    offset,
			Limit:     limit,
			PostType:  postType,
		})
		if err != nil {
			slog.Error("api: feed generation failed",
				"user", userID, "requestID", c.GetString("requestID"), "error", err)
			RespondError(c, http.StatusInternalServerError, "feed_generation_failed", "failed to generate feed")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"items":   page.Items,
			"offset":  page.Offset,
			"limit":   page.Limit,
			"total":   page.Total,
			"hasMore": page.HasMore,
			"sessionContext": gin.H{
				"state":     sctx.State,
				"adFatigue": sctx.AdFatigue,
			},
		})
	}
}
