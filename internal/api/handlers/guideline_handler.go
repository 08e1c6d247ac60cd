package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/clinovia/intake/internal/rag"
	"github.com/clinovia/intake/internal/utils"
	"github.com/clinovia/intake/internal/workers"
)

// GuidelineHandler ingests guideline passages into the retrieval index.
// With Redis configured, documents are enqueued for the worker pool;
// otherwise they are indexed synchronously.
type GuidelineHandler struct {
	store *rag.VectorStore
	redis *redis.Client
}

func NewGuidelineHandler(store *rag.VectorStore, rdb *redis.Client) *GuidelineHandler {
	return &GuidelineHandler{store: store, redis: rdb}
}

type IngestGuidelinesRequest struct {
	Documents []rag.IngestDoc `json:"documents" binding:"required,min=1"`
}

func (h *GuidelineHandler) Ingest(c *gin.Context) {
	var req IngestGuidelinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "GuidelineHandler.Ingest", "invalid request body", err))
		return
	}

	if h.redis != nil {
		for _, d := range req.Documents {
			meta, _ := json.Marshal(d.Meta)
			if err := h.redis.XAdd(c.Request.Context(), &redis.XAddArgs{
				Stream: workers.DefaultStream,
				Values: map[string]any{
					"id":   d.ID,
					"text": d.Text,
					"meta": string(meta),
				},
			}).Err(); err != nil {
				writeError(c, utils.E(utils.CodeUnavailable, "GuidelineHandler.Ingest", "failed to enqueue documents", err))
				return
			}
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": len(req.Documents)})
		return
	}

	if err := h.store.Add(req.Documents); err != nil {
		writeError(c, utils.E(utils.CodeInternal, "GuidelineHandler.Ingest", "failed to index documents", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexed": len(req.Documents), "total": h.store.Len()})
}
