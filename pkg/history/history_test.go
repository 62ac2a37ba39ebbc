package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New("sqlite", filepath.Join(t.TempDir(), "history.db"), false)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Start(context.Background()); err != nil {
		t.Fatalf("start store: %v", err)
	}
	return store
}

func TestAppendAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []*Record{
		{ID: NewID(), Workflow: "generate", Params: `{"mood":"energetic"}`, Status: "loading"},
		{ID: NewID(), Workflow: "remix", Params: `{"mood":"calm"}`, Status: "loading"},
	}
	for _, r := range records {
		if err := store.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 records, got %d", len(got))
	}
}

func TestFinish(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := &Record{ID: NewID(), Workflow: "generate", Status: "loading"}
	if err := store.Append(ctx, r); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Finish(ctx, r.ID, "succeeded", "abc.wav", "", ""); err != nil {
		t.Fatalf("finish: %v", err)
	}
	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].Status != "succeeded" || got[0].Filename != "abc.wav" {
		t.Fatalf("unexpected record: %+v", got[0])
	}
}

func TestFinishUnknownID(t *testing.T) {
	store := newTestStore(t)
	err := store.Finish(context.Background(), "missing", "failed", "", "server", "boom")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUnknownDBType(t *testing.T) {
	if _, err := New("oracle", "", false); err == nil {
		t.Fatal("want error for unknown db type")
	}
}
