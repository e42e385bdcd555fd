// Package match decides whether a normalized identification corresponds to
// a known catalogue track.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/himanishpuri/shamzam/internal/catalogue"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Catalogue is the read-only view of the track store the matcher needs.
type Catalogue interface {
	FindByNormalizedTitle(title string) ([]catalogue.Track, error)
	List() ([]catalogue.Track, error)
}

// Policy holds the fuzzy-matching thresholds.
type Policy struct {
	// Threshold is the minimum similarity score for a fuzzy match.
	Threshold float64
	// TieMargin is the score distance within which two candidates are
	// considered indistinguishable.
	TieMargin float64
}

// DefaultPolicy returns the default matching thresholds.
func DefaultPolicy() Policy {
	return Policy{
		Threshold: 0.85,
		TieMargin: 0.05,
	}
}

// Identification is a provider answer after normalization. Empty fields are
// treated as absent, not as match keys.
type Identification struct {
	Title  string
	Artist string
	Album  string
}

type Kind int

const (
	// None: no catalogue entry is an acceptable match.
	None Kind = iota
	// Exact: one entry matches title and artist exactly.
	Exact
	// Fuzzy: one entry scores above threshold with a clear lead.
	Fuzzy
	// Ambiguous: two or more entries are indistinguishably good.
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Candidate is a scored catalogue entry.
type Candidate struct {
	Track catalogue.Track
	Score float64
}

// Outcome is the matcher's verdict for one identification.
type Outcome struct {
	Kind       Kind
	Track      *catalogue.Track // set for Exact and Fuzzy
	Score      float64          // set for Fuzzy
	Candidates []Candidate      // set for Ambiguous, best first
}

// Matcher reads from the catalogue and never mutates it.
type Matcher struct {
	cat    Catalogue
	policy Policy
}

func New(cat Catalogue, policy Policy) *Matcher {
	return &Matcher{cat: cat, policy: policy}
}

// Match resolves an identification against the catalogue: exact title+artist
// equality first, then similarity scoring over a shared-token prefilter.
func (m *Matcher) Match(id Identification) (Outcome, error) {
	if id.Title == "" {
		return Outcome{Kind: None}, nil
	}

	titleMatches, err := m.cat.FindByNormalizedTitle(id.Title)
	if err != nil {
		return Outcome{}, fmt.Errorf("exact lookup: %w", err)
	}
	if id.Artist != "" {
		var exact []catalogue.Track
		for _, track := range titleMatches {
			if track.NormalizedArtist == id.Artist {
				exact = append(exact, track)
			}
		}
		if len(exact) == 1 {
			return Outcome{Kind: Exact, Track: &exact[0]}, nil
		}
	}

	all, err := m.cat.List()
	if err != nil {
		return Outcome{}, fmt.Errorf("listing catalogue: %w", err)
	}

	queryTokens := tokenSet(id.Title + " " + id.Artist)
	var candidates []Candidate
	for i := range all {
		track := all[i]
		if !sharesToken(queryTokens, track.NormalizedTitle+" "+track.NormalizedArtist) {
			continue
		}
		candidates = append(candidates, Candidate{
			Track: track,
			Score: score(id, track),
		})
	}
	if len(candidates) == 0 {
		return Outcome{Kind: None}, nil
	}

	// Best first; exact score ties go to the oldest entry.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Track.CreatedAt.Before(candidates[j].Track.CreatedAt)
	})

	best := candidates[0]
	if best.Score < m.policy.Threshold {
		return Outcome{Kind: None}, nil
	}

	contenders := []Candidate{best}
	for _, c := range candidates[1:] {
		if c.Score >= m.policy.Threshold && c.Score >= best.Score-m.policy.TieMargin {
			contenders = append(contenders, c)
		}
	}
	if len(contenders) > 1 {
		return Outcome{Kind: Ambiguous, Candidates: contenders}, nil
	}

	return Outcome{Kind: Fuzzy, Track: &best.Track, Score: best.Score}, nil
}

// score is the mean of per-field Levenshtein similarity over the fields
// present in the identification. It is symmetric and deterministic; the
// album field does not participate.
func score(id Identification, track catalogue.Track) float64 {
	titleSim := similarity(id.Title, track.NormalizedTitle)
	if id.Artist == "" {
		return titleSim
	}
	artistSim := similarity(id.Artist, track.NormalizedArtist)
	return (titleSim + artistSim) / 2
}

// similarity maps Levenshtein distance into [0,1], 1 meaning equal.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	sim := 1 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func sharesToken(query map[string]bool, text string) bool {
	for _, tok := range strings.Fields(text) {
		if query[tok] {
			return true
		}
	}
	return false
}
