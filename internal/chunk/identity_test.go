package chunk

import (
	"errors"
	"testing"
)

func TestAssignStableIDs(t *testing.T) {
	a := NewAssigner()
	chunks, err := a.Assign("ipcc_ar6_spm", []string{"first", "second", "third"})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		want := ChunkID("ipcc_ar6_spm", i)
		if c.ID != want {
			t.Fatalf("chunk %d id = %q, want %q", i, c.ID, want)
		}
		if c.Index != i || c.Total != 3 || c.Source != "ipcc_ar6_spm" {
			t.Fatalf("chunk %d metadata wrong: %+v", i, c)
		}
	}
}

func TestAssignUniqueAcrossSources(t *testing.T) {
	a := NewAssigner()
	first, err := a.Assign("a", []string{"x", "y"})
	if err != nil {
		t.Fatalf("assign a: %v", err)
	}
	second, err := a.Assign("b", []string{"x", "y"})
	if err != nil {
		t.Fatalf("assign b: %v", err)
	}
	ids := map[string]struct{}{}
	for _, c := range append(first, second...) {
		if _, dup := ids[c.ID]; dup {
			t.Fatalf("duplicate id %q across sources", c.ID)
		}
		ids[c.ID] = struct{}{}
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 unique ids, got %d", len(ids))
	}
}

func TestAssignRerunRegeneratesSameIDs(t *testing.T) {
	segments := []string{"alpha", "beta"}
	first, _ := NewAssigner().Assign("doc", segments)
	second, _ := NewAssigner().Assign("doc", segments)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("re-run changed id %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestAssignCollisionIsFatal(t *testing.T) {
	a := NewAssigner()
	if _, err := a.Assign("doc", []string{"x"}); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	_, err := a.Assign("doc", []string{"y"})
	var collision *ErrSourceCollision
	if !errors.As(err, &collision) {
		t.Fatalf("expected ErrSourceCollision, got %v", err)
	}
	if collision.SourceID != "doc" {
		t.Fatalf("collision source = %q, want doc", collision.SourceID)
	}
}

func TestAssignEmptySourceID(t *testing.T) {
	if _, err := NewAssigner().Assign("", []string{"x"}); err == nil {
		t.Fatal("expected error for empty source id")
	}
}
