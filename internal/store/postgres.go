package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLoader reads the dataset from JSON documents:
//
//	CREATE TABLE rate_documents (
//	    name       text PRIMARY KEY,
//	    body       json NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
//
// body must be json, not jsonb: jsonb reorders object keys and province
// group resolution depends on key order.
type PostgresLoader struct {
	pool *pgxpool.Pool
}

func NewPostgresLoader(pool *pgxpool.Pool) *PostgresLoader {
	return &PostgresLoader{pool: pool}
}

func (l *PostgresLoader) Load(ctx context.Context) (*Dataset, error) {
	names := make([]string, 0, len(Files))
	for name := range Files {
		names = append(names, name)
	}
	rows, err := l.pool.Query(ctx, `SELECT name, body::text FROM rate_documents WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate documents: %w", err)
	}
	defer rows.Close()

	docs := make(map[string][]byte, len(names))
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, fmt.Errorf("failed to scan rate document: %w", err)
		}
		docs[name] = []byte(body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rate documents: %w", err)
	}
	return decode(docs)
}
