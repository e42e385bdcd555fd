package match

import (
	"errors"
	"testing"
	"time"

	"github.com/himanishpuri/shamzam/internal/catalogue"
	"github.com/himanishpuri/shamzam/internal/normalize"
)

// fakeCatalogue is an in-memory read-only catalogue for matcher tests
type fakeCatalogue struct {
	tracks []catalogue.Track
	err    error
}

func (f *fakeCatalogue) FindByNormalizedTitle(title string) ([]catalogue.Track, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []catalogue.Track
	for _, track := range f.tracks {
		if track.NormalizedTitle == title {
			out = append(out, track)
		}
	}
	return out, nil
}

func (f *fakeCatalogue) List() ([]catalogue.Track, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tracks, nil
}

func entry(title, artist string, createdAt time.Time) catalogue.Track {
	return catalogue.Track{
		ID:               title + "/" + artist,
		Title:            title,
		Artist:           artist,
		NormalizedTitle:  normalize.Text(title),
		NormalizedArtist: normalize.Text(artist),
		CreatedAt:        createdAt,
	}
}

func ident(title, artist string) Identification {
	return Identification{Title: normalize.Text(title), Artist: normalize.Text(artist)}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TestMatchExact tests that exact title+artist equality wins outright
func TestMatchExact(t *testing.T) {
	cat := &fakeCatalogue{tracks: []catalogue.Track{
		entry("Yesterday", "The Beatles", epoch),
		entry("Yesterday", "Boyz II Men", epoch.Add(time.Hour)),
		entry("Hey Jude", "The Beatles", epoch),
	}}
	m := New(cat, DefaultPolicy())

	outcome, err := m.Match(ident("Yesterday", "The Beatles"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != Exact {
		t.Fatalf("Expected Exact, got %s", outcome.Kind)
	}
	if outcome.Track.Artist != "The Beatles" {
		t.Errorf("Expected The Beatles entry, got %q", outcome.Track.Artist)
	}
}

// TestMatchExactNeverFuzzy tests that a perfect entry is reported as Exact
// even when near-duplicates exist
func TestMatchExactNeverFuzzy(t *testing.T) {
	cat := &fakeCatalogue{tracks: []catalogue.Track{
		entry("Blinding Lights", "The Weeknd", epoch),
		entry("Blinding Light", "The Weekend", epoch.Add(time.Hour)),
	}}
	m := New(cat, DefaultPolicy())

	outcome, err := m.Match(ident("Blinding Lights", "The Weeknd"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != Exact {
		t.Errorf("Expected Exact over Fuzzy, got %s", outcome.Kind)
	}
}

// TestMatchFuzzy tests a single clear near-miss
func TestMatchFuzzy(t *testing.T) {
	cat := &fakeCatalogue{tracks: []catalogue.Track{
		entry("Blinding Lights", "The Weeknd", epoch),
		entry("Hey Jude", "The Beatles", epoch),
	}}
	m := New(cat, DefaultPolicy())

	// Slight typo in the title, artist exact
	outcome, err := m.Match(ident("Blindin Lights", "The Weeknd"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != Fuzzy {
		t.Fatalf("Expected Fuzzy, got %s", outcome.Kind)
	}
	if outcome.Track.Title != "Blinding Lights" {
		t.Errorf("Expected 'Blinding Lights', got %q", outcome.Track.Title)
	}
	if outcome.Score < DefaultPolicy().Threshold || outcome.Score >= 1 {
		t.Errorf("Expected threshold <= score < 1, got %f", outcome.Score)
	}
}

// TestMatchAmbiguous tests that two near-equal candidates are surfaced, not
// picked between
func TestMatchAmbiguous(t *testing.T) {
	// Same title, two artists equally distant from the query artist.
	cat := &fakeCatalogue{tracks: []catalogue.Track{
		entry("One", "Metallicaa", epoch),
		entry("One", "Metallicab", epoch.Add(time.Hour)),
	}}
	m := New(cat, DefaultPolicy())

	outcome, err := m.Match(ident("One", "Metallica"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != Ambiguous {
		t.Fatalf("Expected Ambiguous, got %s (score %f)", outcome.Kind, outcome.Score)
	}
	if len(outcome.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(outcome.Candidates))
	}
	// Equal scores: the older entry leads
	if outcome.Candidates[0].Track.Artist != "Metallicaa" {
		t.Errorf("Expected oldest entry first, got %q", outcome.Candidates[0].Track.Artist)
	}
}

// TestMatchNoMatch tests the below-threshold and empty cases
func TestMatchNoMatch(t *testing.T) {
	m := New(&fakeCatalogue{tracks: []catalogue.Track{
		entry("Hey Jude", "The Beatles", epoch),
	}}, DefaultPolicy())

	outcome, err := m.Match(ident("Bohemian Rhapsody", "Queen"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != None {
		t.Errorf("Expected None for unrelated track, got %s", outcome.Kind)
	}

	// Empty catalogue
	m = New(&fakeCatalogue{}, DefaultPolicy())
	outcome, err = m.Match(ident("Hey Jude", "The Beatles"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != None {
		t.Errorf("Expected None for empty catalogue, got %s", outcome.Kind)
	}

	// Empty title is never a match key
	outcome, err = m.Match(Identification{Title: "", Artist: "the beatles"})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != None {
		t.Errorf("Expected None for empty title, got %s", outcome.Kind)
	}
}

// TestMatchEmptyArtist tests that a missing artist scores on title alone
func TestMatchEmptyArtist(t *testing.T) {
	cat := &fakeCatalogue{tracks: []catalogue.Track{
		entry("Bohemian Rhapsody", "Queen", epoch),
	}}
	m := New(cat, DefaultPolicy())

	outcome, err := m.Match(ident("Bohemian Rhapsodi", ""))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != Fuzzy {
		t.Errorf("Expected Fuzzy on title similarity alone, got %s", outcome.Kind)
	}
}

// TestMatchPrefilter tests that entries sharing no token are never scored
func TestMatchPrefilter(t *testing.T) {
	cat := &fakeCatalogue{tracks: []catalogue.Track{
		entry("Yesterday", "The Beatles", epoch),
	}}
	m := New(cat, Policy{Threshold: 0, TieMargin: 0})

	outcome, err := m.Match(ident("Smoke", "Deep Purple"))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Kind != None {
		t.Errorf("Expected None when no token is shared, got %s", outcome.Kind)
	}
}

// TestMatchCatalogueError tests error propagation
func TestMatchCatalogueError(t *testing.T) {
	wantErr := errors.New("db gone")
	m := New(&fakeCatalogue{err: wantErr}, DefaultPolicy())

	_, err := m.Match(ident("Yesterday", "The Beatles"))
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped catalogue error, got %v", err)
	}
}
