package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/render"
	"github.com/roach88/criteria/internal/store"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Session   string
	Candidate string
	Param     string
	ID        string
	Sessions  bool
}

// CatalogEntry is the listing form of a catalog entry.
type CatalogEntry struct {
	ID        string          `json:"id"`
	Session   string          `json:"session"`
	Seq       int64           `json:"seq"`
	Type      string          `json:"type"`
	Candidate string          `json:"candidate"`
	Rendered  string          `json:"rendered"`
	Params    []string        `json:"params"`
	Tree      json.RawMessage `json:"tree,omitempty"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog <db>",
		Short: "Inspect recorded compilations",
		Long: `List the compilations recorded in a catalog database.

Entries are listed in recording order. With --id a single entry is shown
with its canonical tree, after checking that the stored tree still renders
to the stored display form.

Examples:
  criteria catalog catalog.db
  criteria catalog catalog.db --session cli
  criteria catalog catalog.db --candidate Employee --format json
  criteria catalog catalog.db --param :min
  criteria catalog catalog.db --id <compilation-id>
  criteria catalog catalog.db --sessions`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "only entries of this session")
	cmd.Flags().StringVar(&opts.Candidate, "candidate", "", "only entries over this candidate entity")
	cmd.Flags().StringVar(&opts.Param, "param", "", "only entries taking this parameter (e.g. :min)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show a single entry")
	cmd.Flags().BoolVar(&opts.Sessions, "sessions", false, "list session IDs")
	cmd.MarkFlagsMutuallyExclusive("session", "candidate", "param", "id", "sessions")

	return cmd
}

func runCatalog(opts *CatalogOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("catalog not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening catalog", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case opts.Sessions:
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "listing sessions", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(sessions)
		}
		for _, s := range sessions {
			fmt.Fprintln(formatter.Writer, s)
		}
		return nil
	case opts.ID != "":
		return showEntry(ctx, formatter, st, opts.ID)
	}

	var entries []store.Entry
	switch {
	case opts.Session != "":
		entries, err = st.ReadSession(ctx, opts.Session)
	case opts.Candidate != "":
		entries, err = st.ReadByCandidate(ctx, opts.Candidate)
	case opts.Param != "":
		entries, err = st.ReadByParam(ctx, opts.Param)
	default:
		entries, err = st.ReadAllEntries(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "reading catalog", err)
	}

	listing := make([]CatalogEntry, len(entries))
	for i, e := range entries {
		listing[i] = catalogEntry(e)
	}
	if formatter.Format == "json" {
		return formatter.Success(listing)
	}
	if len(listing) == 0 {
		fmt.Fprintln(formatter.Writer, "No compilations recorded.")
		return nil
	}
	for _, e := range listing {
		fmt.Fprintf(formatter.Writer, "%s  %s#%d  %s\n", shortID(e.ID), e.Session, e.Seq, e.Rendered)
	}
	return nil
}

func showEntry(ctx context.Context, formatter *OutputFormatter, st *store.Store, id string) error {
	e, err := st.ReadEntry(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no compilation %s", id), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("no compilation %s", id))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "reading entry", err)
	}

	c, err := e.Compilation()
	if err != nil {
		return WrapExitError(ExitCommandError, "decoding tree", err)
	}
	text, _, err := render.Compilation(c)
	if err != nil {
		return WrapExitError(ExitCommandError, "rendering tree", err)
	}
	if text != e.Rendered {
		_ = formatter.Error(ErrCodeCatalog, "stored tree no longer renders to its display form", map[string]string{
			"stored":   e.Rendered,
			"rendered": text,
		})
		return NewExitError(ExitFailure, fmt.Sprintf("entry %s is inconsistent", id))
	}

	out := catalogEntry(e)
	tree, err := ir.MarshalCanonical(e.Tree)
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding tree", err)
	}
	out.Tree = tree

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	w := formatter.Writer
	fmt.Fprintln(w, out.Rendered)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "id:        %s\n", out.ID)
	fmt.Fprintf(w, "session:   %s#%d\n", out.Session, out.Seq)
	fmt.Fprintf(w, "type:      %s over %s\n", out.Type, out.Candidate)
	if len(out.Params) > 0 {
		fmt.Fprintf(w, "params:    %s\n", strings.Join(out.Params, ", "))
	}
	fmt.Fprintf(w, "versions:  builder %s, ir %s\n", e.BuilderVersion, e.IRVersion)
	fmt.Fprintf(w, "\n%s\n", out.Tree)
	return nil
}

func catalogEntry(e store.Entry) CatalogEntry {
	return CatalogEntry{
		ID:        e.ID,
		Session:   e.SessionID,
		Seq:       e.Seq,
		Type:      string(e.Type),
		Candidate: e.Candidate,
		Rendered:  e.Rendered,
		Params:    e.Params,
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
