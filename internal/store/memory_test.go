package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/cooksync/internal/document"
	"github.com/cooksync/internal/timer"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.LoadDocument(ctx, "dinner"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	doc := document.New()
	ts, _ := timer.SelectPreset(timer.Idle(), 600000, "Rice", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	doc = doc.WithTimer(ts)
	doc, _ = document.AddItems(doc, document.TargetShopping, []document.ListItem{{ID: "a", Name: "Soy sauce"}})

	if err := s.SaveDocument(ctx, "dinner", doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.LoadDocument(ctx, "dinner")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(got, doc) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, doc)
	}

	if err := s.DeleteDocument(ctx, "dinner"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.LoadDocument(ctx, "dinner"); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreSaveReplacesSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := document.New()
	first, _ = document.AddInstruction(first, "Preheat the oven")
	if err := s.SaveDocument(ctx, "bake", first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := document.New()
	if err := s.SaveDocument(ctx, "bake", second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.LoadDocument(ctx, "bake")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got.Instructions) != 0 {
		t.Errorf("expected snapshot to be replaced, got %+v", got.Instructions)
	}
}
