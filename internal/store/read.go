package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/criteria/internal/queryir"
)

const entryColumns = `id, session_id, seq, query_type, candidate, rendered, tree, builder_version, ir_version`

const qualifiedColumns = `c.id, c.session_id, c.seq, c.query_type, c.candidate, c.rendered, c.tree, c.builder_version, c.ir_version`

// ReadEntry retrieves a single entry by compilation ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadEntry(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM compilations
		WHERE id = ?
	`, id)

	e, err := scanEntry(row)
	if err != nil {
		return Entry{}, err
	}
	if e.Params, err = s.readParams(ctx, e.ID); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ReadCompilation retrieves and decodes the tree stored under id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCompilation(ctx context.Context, id string) (*queryir.Compilation, error) {
	e, err := s.ReadEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := e.Compilation()
	if err != nil {
		return nil, fmt.Errorf("decode compilation %s: %w", id, err)
	}
	return c, nil
}

// ReadAllEntries returns every entry ordered by seq ASC, id ASC.
func (s *Store) ReadAllEntries(ctx context.Context) ([]Entry, error) {
	return s.readEntries(ctx, `
		SELECT `+entryColumns+`
		FROM compilations
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ReadSession returns the entries written by one builder session.
func (s *Store) ReadSession(ctx context.Context, sessionID string) ([]Entry, error) {
	return s.readEntries(ctx, `
		SELECT `+entryColumns+`
		FROM compilations
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
}

// ReadByCandidate returns the entries whose candidate entity is name.
func (s *Store) ReadByCandidate(ctx context.Context, name string) ([]Entry, error) {
	return s.readEntries(ctx, `
		SELECT `+entryColumns+`
		FROM compilations
		WHERE candidate = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, name)
}

// ReadByParam returns the entries that take the parameter name, as
// rendered (":min", "?1").
func (s *Store) ReadByParam(ctx context.Context, name string) ([]Entry, error) {
	return s.readEntries(ctx, `
		SELECT `+qualifiedColumns+`
		FROM compilations c
		JOIN compilation_params p ON p.compilation_id = c.id
		WHERE p.name = ?
		ORDER BY c.seq ASC, c.id COLLATE BINARY ASC
	`, name)
}

// ListSessions returns the distinct session IDs, alphabetically.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM compilations
		ORDER BY session_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LastSeq returns the highest seq number in the catalog, or 0 when empty.
// Used to resume numbering across process restarts.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM compilations
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

func (s *Store) readEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	rows.Close()

	for i := range entries {
		if entries[i].Params, err = s.readParams(ctx, entries[i].ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Store) readParams(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM compilation_params
		WHERE compilation_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}
	defer rows.Close()

	params := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan param: %w", err)
		}
		params = append(params, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate params: %w", err)
	}
	return params, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEntry scans one row. Params are read separately.
func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var queryType, treeJSON string

	if err := row.Scan(
		&e.ID, &e.SessionID, &e.Seq, &queryType, &e.Candidate,
		&e.Rendered, &treeJSON, &e.BuilderVersion, &e.IRVersion,
	); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Type = queryir.QueryType(queryType)

	tree, err := unmarshalTree(treeJSON)
	if err != nil {
		return Entry{}, err
	}
	e.Tree = tree
	return e, nil
}
