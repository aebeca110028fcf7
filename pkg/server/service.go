package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikeboe/recursive-rag/pkg/chat"
	"github.com/mikeboe/recursive-rag/pkg/clients"
	"github.com/mikeboe/recursive-rag/pkg/config"
	"github.com/mikeboe/recursive-rag/pkg/database"
	"github.com/mikeboe/recursive-rag/pkg/embeddings"
	"github.com/mikeboe/recursive-rag/pkg/ingest"
	"github.com/mikeboe/recursive-rag/pkg/metrics"
	"github.com/mikeboe/recursive-rag/pkg/retrieval"
	"github.com/mikeboe/recursive-rag/pkg/splitter"
	"github.com/mikeboe/recursive-rag/pkg/vectorstore"
)

// Service owns the long-lived pieces shared by the HTTP server, the MCP
// tools and the CLI: one store handle, one generator, one embedder.
type Service struct {
	Cfg       *config.Config
	Store     vectorstore.Store
	Generator *clients.Instrumented
	Retriever *retrieval.Retriever
	Chat      *chat.Service
	Ingestor  *ingest.Ingestor
	Health    *HealthChecker
	Metrics   *metrics.Recorder
	Logger    *slog.Logger

	db *database.PostgresDB
}

func NewService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{Cfg: cfg, Metrics: metrics.New(), Logger: logger}

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := s.openStore(ctx, embedder); err != nil {
		return nil, err
	}

	gen, err := newGenerator(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Generator = &clients.Instrumented{
		Next:    gen,
		Model:   generatorModel(cfg),
		Timeout: cfg.GenerateTimeout,
		Metrics: s.Metrics,
		Logger:  logger,
	}

	split, err := splitter.New(cfg.ChunkStrategy, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Retriever = retrieval.NewRetriever(s.Store, cfg.RetrievalTopK)

	s.Chat = chat.NewService(s.Retriever, s.Generator)
	s.Chat.DefaultDepth = cfg.MaxRecursionDepth
	s.Chat.Metrics = s.Metrics
	s.Chat.Logger = logger

	s.Ingestor = ingest.NewIngestor(s.Store, split)
	s.Ingestor.Metrics = s.Metrics
	s.Ingestor.Logger = logger

	if cfg.UsesOllama() {
		s.Health, err = NewHealthChecker(cfg.OllamaBaseURL)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	logger.Info("Service ready",
		"llm_provider", cfg.LLMProvider,
		"model", s.Generator.Model,
		"embedding_provider", cfg.EmbeddingProvider,
		"vector_store", cfg.VectorStore,
		"collection", cfg.CollectionName,
	)
	return s, nil
}

func (s *Service) openStore(ctx context.Context, embedder embeddings.Embedder) error {
	cfg := s.Cfg
	switch cfg.VectorStore {
	case config.StorePGVector:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := db.InitSchema(ctx, cfg.CollectionName, cfg.EmbeddingDimension); err != nil {
			db.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
		store, err := vectorstore.NewPGVectorStore(db.Pool, cfg.CollectionName, cfg.EmbeddingDimension, embedder)
		if err != nil {
			db.Close()
			return err
		}
		s.db = db
		s.Store = store
	default:
		store, err := vectorstore.NewChromemStore(cfg.ChromaPath, cfg.CollectionName, embedder)
		if err != nil {
			return err
		}
		s.Store = store
	}
	return nil
}

// Close releases the store and the database pool.
func (s *Service) Close() {
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.Logger.Warn("Failed to close vector store", "error", err)
		}
	}
	if s.db != nil {
		s.db.Close()
	}
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	var (
		inner embeddings.Embedder
		err   error
	)
	switch cfg.EmbeddingProvider {
	case config.ProviderGoogle:
		inner, err = embeddings.NewGoogleEmbedder(ctx, cfg.EmbeddingModel, cfg.GoogleApiKey, cfg.EmbeddingDimension)
	default:
		inner, err = embeddings.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.EmbeddingModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embeddings.NewCachedEmbedder(inner, cfg.EmbeddingCacheSize)
}

func newGenerator(ctx context.Context, cfg *config.Config) (clients.Generator, error) {
	switch cfg.LLMProvider {
	case config.ProviderGoogle:
		return clients.NewGoogleGenerator(ctx, cfg.GoogleApiKey, cfg.GoogleModel, cfg.Temperature, cfg.TopP)
	default:
		return clients.NewOllamaGenerator(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.Temperature, cfg.TopP)
	}
}

func generatorModel(cfg *config.Config) string {
	if cfg.LLMProvider == config.ProviderGoogle {
		return cfg.GoogleModel
	}
	return cfg.OllamaModel
}
