package categorizer

import (
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	if _, found, err := store.Get("k"); found || err != nil {
		t.Errorf("expected missing key, got found=%v err=%v", found, err)
	}
	if err := store.Set("k", "v"); err != nil {
		t.Fatal(err)
	}
	if value, found, _ := store.Get("k"); !found || value != "v" {
		t.Errorf("Get() = %q, %v", value, found)
	}
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "categorizer.db")

	store, err := OpenBoltStore(path, "")
	if err != nil {
		t.Fatalf("OpenBoltStore() error = %v", err)
	}

	if _, found, err := store.Get(LearnedOverridesKey); found || err != nil {
		t.Errorf("expected empty store, got found=%v err=%v", found, err)
	}
	if err := store.Set(LearnedOverridesKey, `{"Lider":"hogar"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if store.Path() != path {
		t.Errorf("Path() = %s", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBoltStore(path, "")
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	value, found, err := reopened.Get(LearnedOverridesKey)
	if err != nil || !found || value != `{"Lider":"hogar"}` {
		t.Errorf("Get() after reopen = %q, %v, %v", value, found, err)
	}
}

func TestBoltStore_EngineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categorizer.db")

	store, err := OpenBoltStore(path, "overrides")
	if err != nil {
		t.Fatal(err)
	}
	engine, err := NewEngine(store)
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Learn("Copec", "alimentacion"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = OpenBoltStore(path, "overrides")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	engine, err = NewEngine(store)
	if err != nil {
		t.Fatal(err)
	}
	if got := engine.Categorize("COPEC RUTA 5", "Copec"); got != "alimentacion" {
		t.Errorf("expected learned override after reopen, got %s", got)
	}
}
