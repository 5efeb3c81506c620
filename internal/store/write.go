package store

import (
	"context"
	"fmt"
)

// WriteEntry inserts e and its parameters in one transaction.
// Uses ON CONFLICT(id) DO NOTHING: an equal tree already in the catalog is
// kept, and inserted reports false.
func (s *Store) WriteEntry(ctx context.Context, e Entry) (inserted bool, err error) {
	treeJSON, err := marshalTree(e.Tree)
	if err != nil {
		return false, fmt.Errorf("write entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write entry: begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO compilations
		(id, session_id, seq, query_type, candidate, rendered, tree, builder_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.SessionID,
		e.Seq,
		string(e.Type),
		e.Candidate,
		e.Rendered,
		treeJSON,
		e.BuilderVersion,
		e.IRVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write entry: insert compilation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write entry: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	for i, name := range e.Params {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO compilation_params (compilation_id, position, name)
			VALUES (?, ?, ?)
		`, e.ID, i+1, name); err != nil {
			return false, fmt.Errorf("write entry: insert param %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write entry: commit: %w", err)
	}
	return true, nil
}
