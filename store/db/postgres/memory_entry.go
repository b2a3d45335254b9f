package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/solace/store"
)

func (d *DB) CreateMemoryEntry(ctx context.Context, create *store.MemoryEntry) (*store.MemoryEntry, error) {
	stmt := `INSERT INTO memory_entry (uid, input, response, created_ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.Input, create.Response, create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create memory_entry")
	}
	return create, nil
}

func (d *DB) ListMemoryEntries(ctx context.Context) ([]*store.MemoryEntry, error) {
	query := `SELECT id, uid, input, response, created_ts FROM memory_entry ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memory_entry")
	}
	defer rows.Close()

	list := make([]*store.MemoryEntry, 0)
	for rows.Next() {
		e := &store.MemoryEntry{}
		if err := rows.Scan(&e.ID, &e.UID, &e.Input, &e.Response, &e.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory_entry")
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
