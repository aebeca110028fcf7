package server

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with CORS open to every origin.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposeHeaders:   []string{"Content-Length", "Mcp-Session-Id"},
	}))

	h.RegisterRoutes(r)
	return r
}

// Run serves the API on the configured port until the listener fails.
func Run(svc *Service) error {
	r := NewRouter(NewHandler(svc))
	slog.Info("Server starting", "port", svc.Cfg.Port)
	return r.Run(":" + svc.Cfg.Port)
}
