package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikeboe/recursive-rag/pkg/chat"
	"github.com/mikeboe/recursive-rag/pkg/ingest"
	"github.com/mikeboe/recursive-rag/pkg/metrics"
	"github.com/mikeboe/recursive-rag/pkg/reasoning"
)

// Asker answers chat requests.
type Asker interface {
	Ask(ctx context.Context, req chat.Request) (*chat.Response, error)
}

type Ingester interface {
	Ingest(ctx context.Context, files []ingest.File) (*ingest.Result, error)
}

// Collection is the administrative view of the document store.
type Collection interface {
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}

// Pinger checks the Ollama server. A nil Pinger means no component uses it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Chat    Asker
	Ingest  Ingester
	Docs    Collection
	Health  Pinger
	Metrics *metrics.Recorder
	MCP     http.Handler
	Logger  *slog.Logger
}

// NewHandler wires the routes to the service and exposes its MCP tools.
func NewHandler(s *Service) *Handler {
	h := &Handler{
		Chat:    s.Chat,
		Ingest:  s.Ingestor,
		Docs:    s.Store,
		Metrics: s.Metrics,
		MCP:     NewMCPHandler(NewMCPServer(s.Chat, s.Store)),
		Logger:  s.Logger,
	}
	if s.Health != nil {
		h.Health = s.Health
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.root)
	r.POST("/chat/", h.chat)
	r.POST("/upload-pdfs/", h.uploadPDFs)
	r.GET("/health/", h.health)
	r.DELETE("/clear-database/", h.clearDatabase)
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	if h.MCP != nil {
		r.Any("/mcp", gin.WrapH(h.MCP))
	}
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Recursive RAG Chatbot API is running"})
}

func (h *Handler) chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.Chat.Ask(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, reasoning.ErrInvalidDepth) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) uploadPDFs(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	res, err := h.Ingest.Ingest(c.Request.Context(), files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) health(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.Docs.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Without an Ollama-backed component there is nothing to ping.
	status, ollama := "healthy", "not used"
	if h.Health != nil {
		ollama = "running"
		if err := h.Health.Ping(ctx); err != nil {
			h.logger().Warn("Ollama health check failed", "error", err)
			status, ollama = "unhealthy", "not running"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          status,
		"ollama":          ollama,
		"documents_count": count,
	})
}

func (h *Handler) clearDatabase(c *gin.Context) {
	if err := h.Docs.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.logger().Info("Document store cleared")
	c.JSON(http.StatusOK, gin.H{"message": "Database cleared successfully"})
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
