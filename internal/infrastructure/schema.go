package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"supportbot/internal/repository"
)

// Tables are written once in a portable subset; "{{serial}}" is replaced per
// dialect.
var schemaStatements = []struct {
	name string
	sql  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id {{serial}},
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`},
	{"faq_entries", `
		CREATE TABLE IF NOT EXISTS faq_entries (
			id {{serial}},
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT 'General',
			keywords TEXT,
			source VARCHAR(255),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL
		)`},
	{"faq_entries_active_idx", `CREATE INDEX IF NOT EXISTS idx_faq_entries_active ON faq_entries (is_active, id)`},
	{"sessions", `
		CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(64) PRIMARY KEY,
			customer_id VARCHAR(128) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			summary TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"messages", `
		CREATE TABLE IF NOT EXISTS messages (
			id {{serial}},
			session_id VARCHAR(64) NOT NULL REFERENCES sessions(id),
			customer_id VARCHAR(128) NOT NULL,
			sender VARCHAR(10) NOT NULL,
			content TEXT NOT NULL,
			response_type VARCHAR(20),
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			relevant_faq_ids TEXT,
			created_at TIMESTAMP NOT NULL
		)`},
	{"messages_session_idx", `CREATE INDEX IF NOT EXISTS idx_messages_session ON messages (session_id, id)`},
	{"escalations", `
		CREATE TABLE IF NOT EXISTS escalations (
			id VARCHAR(32) PRIMARY KEY,
			session_id VARCHAR(64) NOT NULL,
			customer_id VARCHAR(128) NOT NULL,
			reason TEXT NOT NULL,
			initial_query TEXT NOT NULL,
			conversation_context TEXT,
			priority VARCHAR(10) NOT NULL,
			status VARCHAR(20) NOT NULL,
			assigned_to VARCHAR(100),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"escalations_status_idx", `CREATE INDEX IF NOT EXISTS idx_escalations_status ON escalations (status, created_at)`},
	{"conversation_metrics", `
		CREATE TABLE IF NOT EXISTS conversation_metrics (
			session_id VARCHAR(64) PRIMARY KEY,
			total_messages INTEGER NOT NULL DEFAULT 0,
			user_messages INTEGER NOT NULL DEFAULT 0,
			bot_messages INTEGER NOT NULL DEFAULT 0,
			faq_answers INTEGER NOT NULL DEFAULT 0,
			ai_answers INTEGER NOT NULL DEFAULT 0,
			average_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			escalated BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at TIMESTAMP NOT NULL
		)`},
}

// Migrate creates every table the service needs. It is idempotent.
func Migrate(ctx context.Context, store *repository.Store) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if store.Dialect == repository.DialectPostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	for _, st := range schemaStatements {
		q := strings.ReplaceAll(st.sql, "{{serial}}", serial)
		if _, err := store.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}
