package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresDBRejectsBadURL(t *testing.T) {
	_, err := NewPostgresDB(context.Background(), "postgres://user@localhost:notaport/db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}

func TestInitSchemaIdempotent(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}
	ctx := context.Background()

	db, err := NewPostgresDB(ctx, dbURL)
	require.NoError(t, err)
	defer db.Close()
	defer db.Pool.Exec(context.Background(), "DROP TABLE IF EXISTS rag_it_schema")

	require.NoError(t, db.InitSchema(ctx, "rag_it_schema", 8))
	require.NoError(t, db.InitSchema(ctx, "rag_it_schema", 8))

	cfg := db.Pool.Config()
	assert.Equal(t, int32(minPoolConns), cfg.MinConns)
	assert.Equal(t, int32(maxPoolConns), cfg.MaxConns)
}
