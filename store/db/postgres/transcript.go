package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/solace/store"
)

func (d *DB) CreateTranscript(ctx context.Context, create *store.Transcript) (*store.Transcript, error) {
	stmt := `INSERT INTO transcript (session_id, role, text, created_ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.SessionID, create.Role, create.Text, create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create transcript")
	}
	return create, nil
}

func (d *DB) ListTranscripts(ctx context.Context, sessionID string) ([]*store.Transcript, error) {
	query := `SELECT id, session_id, role, text, created_ts FROM transcript
		WHERE session_id = $1 ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list transcript")
	}
	defer rows.Close()

	list := make([]*store.Transcript, 0)
	for rows.Next() {
		t := &store.Transcript{}
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Text, &t.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan transcript")
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
