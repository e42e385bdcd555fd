package catalogue

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

// Helper function to create a temporary test store
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_shamzam.sqlite3")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// TestCreateIfAbsent tests basic track creation
func TestCreateIfAbsent(t *testing.T) {
	store := setupTestStore(t)

	track, created, err := store.CreateIfAbsent("Yesterday", "The Beatles", "Help!")
	if err != nil {
		t.Fatalf("CreateIfAbsent failed: %v", err)
	}
	if !created {
		t.Error("Expected created=true for a new track")
	}
	if track.ID == "" {
		t.Error("Expected non-empty track ID")
	}
	if track.Title != "Yesterday" {
		t.Errorf("Expected title 'Yesterday', got %q", track.Title)
	}
	if track.NormalizedTitle != "yesterday" {
		t.Errorf("Expected normalized title 'yesterday', got %q", track.NormalizedTitle)
	}
	if track.NormalizedArtist != "the beatles" {
		t.Errorf("Expected normalized artist 'the beatles', got %q", track.NormalizedArtist)
	}
	if track.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

// TestCreateIfAbsentIdempotent tests that equivalent metadata converges on
// the same row
func TestCreateIfAbsentIdempotent(t *testing.T) {
	store := setupTestStore(t)

	first, created, err := store.CreateIfAbsent("Yesterday", "The Beatles", "")
	if err != nil {
		t.Fatalf("First CreateIfAbsent failed: %v", err)
	}
	if !created {
		t.Fatal("Expected first call to create")
	}

	second, created, err := store.CreateIfAbsent("  yesterday ", "the   beatles", "")
	if err != nil {
		t.Fatalf("Second CreateIfAbsent failed: %v", err)
	}
	if created {
		t.Error("Expected created=false for an equivalent track")
	}
	if second.ID != first.ID {
		t.Errorf("Expected same track ID, got %s and %s", first.ID, second.ID)
	}

	tracks, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("Expected 1 track, got %d", len(tracks))
	}
}

// TestCreateIfAbsentConcurrent tests convergence under concurrent creation
func TestCreateIfAbsentConcurrent(t *testing.T) {
	store := setupTestStore(t)

	const goroutines = 8
	ids := make([]string, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			track, _, err := store.CreateIfAbsent("Blinding Lights", "The Weeknd", "")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = track.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Goroutine %d failed: %v", i, err)
		}
	}
	for i := 1; i < goroutines; i++ {
		if ids[i] != ids[0] {
			t.Errorf("Goroutine %d got ID %s, expected %s", i, ids[i], ids[0])
		}
	}

	tracks, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tracks) != 1 {
		t.Errorf("Expected exactly 1 track after concurrent creation, got %d", len(tracks))
	}
}

// TestCreateIfAbsentBlankFields tests validation of blank metadata
func TestCreateIfAbsentBlankFields(t *testing.T) {
	store := setupTestStore(t)

	if _, _, err := store.CreateIfAbsent("", "The Beatles", ""); !errors.Is(err, ErrInvalidTrack) {
		t.Errorf("Expected ErrInvalidTrack for blank title, got %v", err)
	}
	if _, _, err := store.CreateIfAbsent("Yesterday", "   ", ""); !errors.Is(err, ErrInvalidTrack) {
		t.Errorf("Expected ErrInvalidTrack for blank artist, got %v", err)
	}
}

// TestFindByNormalizedTitle tests the title lookup
func TestFindByNormalizedTitle(t *testing.T) {
	store := setupTestStore(t)

	mustCreate(t, store, "Yesterday", "The Beatles")
	mustCreate(t, store, "Yesterday", "Boyz II Men")
	mustCreate(t, store, "Hey Jude", "The Beatles")

	tracks, err := store.FindByNormalizedTitle("yesterday")
	if err != nil {
		t.Fatalf("FindByNormalizedTitle failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Errorf("Expected 2 tracks titled 'yesterday', got %d", len(tracks))
	}

	tracks, err = store.FindByNormalizedTitle("nonexistent")
	if err != nil {
		t.Fatalf("FindByNormalizedTitle failed: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("Expected no tracks, got %d", len(tracks))
	}
}

// TestGetAndDelete tests fetch and removal by id
func TestGetAndDelete(t *testing.T) {
	store := setupTestStore(t)

	track := mustCreate(t, store, "Hey Jude", "The Beatles")

	got, err := store.Get(track.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Hey Jude" {
		t.Errorf("Expected title 'Hey Jude', got %q", got.Title)
	}

	if err := store.Delete(track.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Get(track.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(track.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for double delete, got %v", err)
	}
}

func mustCreate(t *testing.T, store *Store, title, artist string) *Track {
	t.Helper()
	track, _, err := store.CreateIfAbsent(title, artist, "")
	if err != nil {
		t.Fatalf("Failed to create track %q/%q: %v", title, artist, err)
	}
	return track
}
