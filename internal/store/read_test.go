package store

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/criteria/internal/queryir"
)

func writeEntries(t *testing.T, s *Store, entries ...Entry) {
	t.Helper()
	for _, e := range entries {
		if _, err := s.WriteEntry(context.Background(), e); err != nil {
			t.Fatalf("WriteEntry() failed: %v", err)
		}
	}
}

func TestReadEntry_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestEntry(t, "session-1", 3, "Employee", "name")
	writeEntries(t, s, want)

	got, err := s.ReadEntry(ctx, want.ID)
	if err != nil {
		t.Fatalf("ReadEntry() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadEntry() = %+v, want %+v", got, want)
	}
}

func TestReadEntry_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadEntry(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestReadCompilation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	e := createTestEntry(t, "session-1", 1, "Employee", "name")
	writeEntries(t, s, e)

	c, err := s.ReadCompilation(ctx, e.ID)
	if err != nil {
		t.Fatalf("ReadCompilation() failed: %v", err)
	}
	id, err := queryir.CompilationID(c)
	if err != nil {
		t.Fatalf("CompilationID() failed: %v", err)
	}
	if id != e.ID {
		t.Errorf("decoded tree hashes to %s, want %s", id, e.ID)
	}
}

func TestReadAllEntries_Ordering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestEntry(t, "s2", 2, "Employee", "a")
	b := createTestEntry(t, "s1", 1, "Employee", "b")
	c := createTestEntry(t, "s1", 3, "Department", "c")
	writeEntries(t, s, a, b, c)

	all, err := s.ReadAllEntries(ctx)
	if err != nil {
		t.Fatalf("ReadAllEntries() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []Entry{b, a, c} {
		if all[i].ID != want.ID {
			t.Errorf("entry %d = seq %d, want seq %d", i, all[i].Seq, want.Seq)
		}
	}
}

func TestReadSessionAndCandidate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeEntries(t, s,
		createTestEntry(t, "s1", 1, "Employee", "a"),
		createTestEntry(t, "s2", 2, "Employee", "b"),
		createTestEntry(t, "s1", 3, "Department", "c"),
	)

	session, err := s.ReadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("ReadSession() failed: %v", err)
	}
	if len(session) != 2 || session[0].Seq != 1 || session[1].Seq != 3 {
		t.Errorf("ReadSession(s1) = %+v", session)
	}

	depts, err := s.ReadByCandidate(ctx, "Department")
	if err != nil {
		t.Fatalf("ReadByCandidate() failed: %v", err)
	}
	if len(depts) != 1 || depts[0].Params[0] != ":c" {
		t.Errorf("ReadByCandidate(Department) = %+v", depts)
	}

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if !reflect.DeepEqual(sessions, []string{"s1", "s2"}) {
		t.Errorf("ListSessions() = %v", sessions)
	}
}

func TestReadByParam(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	writeEntries(t, s,
		createTestEntry(t, "s1", 1, "Employee", "a"),
		createTestEntry(t, "s1", 2, "Department", "b"),
		createTestEntry(t, "s2", 3, "Project", "a"),
	)

	got, err := s.ReadByParam(ctx, ":a")
	if err != nil {
		t.Fatalf("ReadByParam() failed: %v", err)
	}
	if len(got) != 2 || got[0].Candidate != "Employee" || got[1].Candidate != "Project" {
		t.Errorf("ReadByParam(:a) = %+v", got)
	}
	if len(got) > 0 && !reflect.DeepEqual(got[0].Params, []string{":a"}) {
		t.Errorf("params = %v", got[0].Params)
	}

	none, err := s.ReadByParam(ctx, ":zzz")
	if err != nil {
		t.Fatalf("ReadByParam() failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ReadByParam(:zzz) = %+v", none)
	}
}

func TestEmptyCatalog(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	all, err := s.ReadAllEntries(ctx)
	if err != nil {
		t.Fatalf("ReadAllEntries() failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("ReadAllEntries() = %v, want empty non-nil slice", all)
	}

	seq, err := s.LastSeq(ctx)
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("LastSeq() = %d, want 0", seq)
	}
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	writeEntries(t, s,
		createTestEntry(t, "s1", 4, "Employee", "a"),
		createTestEntry(t, "s1", 11, "Employee", "b"),
	)

	seq, err := s.LastSeq(context.Background())
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if seq != 11 {
		t.Errorf("LastSeq() = %d, want 11", seq)
	}
}
