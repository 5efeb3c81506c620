package store

import (
	"context"
	"testing"

	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/queryir"
)

func TestNewEntry(t *testing.T) {
	c := testCompilation("Employee", "name")
	e, err := NewEntry("session-1", 7, c)
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}

	wantID, err := queryir.CompilationID(c)
	if err != nil {
		t.Fatalf("CompilationID() failed: %v", err)
	}
	if e.ID != wantID {
		t.Errorf("ID = %s, want %s", e.ID, wantID)
	}
	want := "SELECT this FROM Employee this WHERE (this.name = :name) ORDER BY this.salary ASC"
	if e.Rendered != want {
		t.Errorf("Rendered = %q, want %q", e.Rendered, want)
	}
	if len(e.Params) != 1 || e.Params[0] != ":name" {
		t.Errorf("Params = %v, want [:name]", e.Params)
	}
	if e.BuilderVersion != ir.BuilderVersion || e.IRVersion != ir.IRVersion {
		t.Errorf("versions = %s/%s", e.BuilderVersion, e.IRVersion)
	}
	if e.Type != queryir.QuerySelect || e.Candidate != "Employee" || e.Seq != 7 {
		t.Errorf("unexpected header: %+v", e)
	}
}

func TestNewEntry_Unrenderable(t *testing.T) {
	_, err := NewEntry("s", 1, &queryir.Compilation{Type: "MERGE", Candidate: "Employee", Alias: "e"})
	if err == nil {
		t.Error("expected error for unknown query type")
	}
}

func TestWriteEntry(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	e := createTestEntry(t, "session-1", 1, "Employee", "name")

	inserted, err := s.WriteEntry(ctx, e)
	if err != nil {
		t.Fatalf("WriteEntry() failed: %v", err)
	}
	if !inserted {
		t.Error("first write should insert")
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM compilation_params WHERE compilation_id = ?", e.ID).Scan(&count); err != nil {
		t.Fatalf("count params: %v", err)
	}
	if count != 1 {
		t.Errorf("params = %d, want 1", count)
	}
}

func TestWriteEntry_SameTreeKeepsFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestEntry(t, "session-1", 1, "Employee", "name")
	second := createTestEntry(t, "session-2", 9, "Employee", "name")
	if first.ID != second.ID {
		t.Fatalf("equal trees must share an ID: %s vs %s", first.ID, second.ID)
	}

	if _, err := s.WriteEntry(ctx, first); err != nil {
		t.Fatalf("first WriteEntry() failed: %v", err)
	}
	inserted, err := s.WriteEntry(ctx, second)
	if err != nil {
		t.Fatalf("second WriteEntry() failed: %v", err)
	}
	if inserted {
		t.Error("second write of an equal tree should not insert")
	}

	got, err := s.ReadEntry(ctx, first.ID)
	if err != nil {
		t.Fatalf("ReadEntry() failed: %v", err)
	}
	if got.SessionID != "session-1" || got.Seq != 1 {
		t.Errorf("entry overwritten: session=%s seq=%d", got.SessionID, got.Seq)
	}
	if len(got.Params) != 1 {
		t.Errorf("params duplicated: %v", got.Params)
	}
}

func TestWriteEntry_Cancelled(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.WriteEntry(ctx, createTestEntry(t, "s", 1, "Employee", "name")); err == nil {
		t.Error("expected error for cancelled context")
	}
}
