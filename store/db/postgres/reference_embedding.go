package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/solace/store"
)

// UpsertReferenceEmbedding stores one reference question vector. A
// repeated question replaces the stored vector.
func (d *DB) UpsertReferenceEmbedding(ctx context.Context, upsert *store.ReferenceEmbedding) error {
	if !d.vectorReady {
		return nil
	}
	stmt := `INSERT INTO reference_embedding (question, embedding, created_ts)
		VALUES ($1, $2, $3)
		ON CONFLICT (question) DO UPDATE SET embedding = EXCLUDED.embedding, created_ts = EXCLUDED.created_ts`
	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.Question, pgvector.NewVector(upsert.Embedding), upsert.CreatedTs,
	); err != nil {
		return errors.Wrap(err, "failed to upsert reference_embedding")
	}
	return nil
}

func (d *DB) ListReferenceEmbeddings(ctx context.Context) ([]*store.ReferenceEmbedding, error) {
	if !d.vectorReady {
		return nil, nil
	}
	query := `SELECT question, embedding, created_ts FROM reference_embedding`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reference_embedding")
	}
	defer rows.Close()

	list := make([]*store.ReferenceEmbedding, 0)
	for rows.Next() {
		var vec pgvector.Vector
		e := &store.ReferenceEmbedding{}
		if err := rows.Scan(&e.Question, &vec, &e.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan reference_embedding")
		}
		e.Embedding = vec.Slice()
		list = append(list, e)
	}
	return list, rows.Err()
}
