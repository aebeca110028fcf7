package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// HealthChecker reports whether the Ollama server answers.
type HealthChecker struct {
	client  *api.Client
	timeout time.Duration
}

func NewHealthChecker(baseURL string) (*HealthChecker, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	return &HealthChecker{
		client:  api.NewClient(u, &http.Client{Timeout: 5 * time.Second}),
		timeout: 5 * time.Second,
	}, nil
}

// Ping lists the installed models; any answer counts as running.
func (h *HealthChecker) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	_, err := h.client.List(ctx)
	return err
}
