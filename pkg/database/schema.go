package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// hnswMaxDimension is the largest vector HNSW and IVFFlat can index.
const hnswMaxDimension = 2000

// EmbeddingsTableDDL returns the statements that create a chunk table.
// Chunk ids are the deterministic "<document>_chunk_<n>" strings, so the
// primary key is text rather than a generated uuid.
func EmbeddingsTableDDL(tableName string, dimension int) []string {
	table := pgx.Identifier{tableName}.Sanitize()
	stmts := []string{fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, table, dimension)}

	// Above the index limit we rely on exact search (slower but works).
	if dimension <= hnswMaxDimension {
		stmts = append(stmts, fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s
			ON %s USING hnsw (embedding vector_cosine_ops)
		`, pgx.Identifier{tableName + "_embedding_idx"}.Sanitize(), table))
	}
	return stmts
}

// InitSchema installs pgvector and creates the chunk table if needed.
func (db *PostgresDB) InitSchema(ctx context.Context, tableName string, dimension int) error {
	if err := db.EnsureVectorExtension(ctx); err != nil {
		return err
	}

	for _, stmt := range EmbeddingsTableDDL(tableName, dimension) {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", tableName, err)
		}
	}
	return nil
}
