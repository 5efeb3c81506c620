package store

import (
	"fmt"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
	"github.com/roach88/criteria/internal/render"
)

// Entry is one catalogued compilation.
type Entry struct {
	ID             string // queryir.CompilationID of Tree
	SessionID      string
	Seq            int64
	Type           queryir.QueryType
	Candidate      string
	Rendered       string
	Params         []string
	Tree           ir.IRObject
	BuilderVersion string
	IRVersion      string
}

// NewEntry encodes, hashes and renders c.
func NewEntry(sessionID string, seq int64, c *queryir.Compilation) (Entry, error) {
	tree, err := queryir.EncodeCompilation(c)
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}
	id, err := ir.ContentID(ir.DomainCompilation, tree)
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}
	text, params, err := render.Compilation(c)
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}
	if params == nil {
		params = []string{}
	}

	return Entry{
		ID:             id,
		SessionID:      sessionID,
		Seq:            seq,
		Type:           c.Type,
		Candidate:      c.Candidate,
		Rendered:       text,
		Params:         params,
		Tree:           tree,
		BuilderVersion: ir.BuilderVersion,
		IRVersion:      ir.IRVersion,
	}, nil
}

// Compilation decodes the stored tree.
func (e Entry) Compilation() (*queryir.Compilation, error) {
	return queryir.DecodeCompilation(e.Tree)
}
