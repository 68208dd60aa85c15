// Package catalog provides entity resolution over tracked subjects.
// catalog.go implements an Aho-Corasick based alias index for O(n+m) mention
// extraction and confidence-tiered resolution.
package catalog

import (
	"sort"
	"strings"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
)

// Confidence tiers for resolution outcomes.
const (
	ConfidenceCanonical  = 1.0
	ConfidenceAlias      = 0.9
	ConfidenceDiscovered = 0.7
)

// Outcome tags the result of a resolution attempt. Absence of a match is a
// normal outcome, never an error.
type Outcome string

const (
	// OutcomeResolved means the mention maps to exactly one tracked subject.
	OutcomeResolved Outcome = "resolved"
	// OutcomeAmbiguous means the mention maps to more than one tracked subject.
	OutcomeAmbiguous Outcome = "ambiguous"
	// OutcomeUnresolved means the mention maps to no tracked subject.
	OutcomeUnresolved Outcome = "unresolved"
	// OutcomeRejected means the mention failed the candidate validity filter.
	OutcomeRejected Outcome = "rejected"
)

// Resolution is the typed result of resolving one candidate mention.
type Resolution struct {
	Outcome    Outcome
	SubjectID  int64   // set when Outcome == OutcomeResolved
	Confidence float64 // tier confidence; 0 for rejected
	Candidates []int64 // set when Outcome == OutcomeAmbiguous
}

type aliasEntry struct {
	subjectIDs []int64
	confidence float64 // highest tier among mappings for this name
}

// Catalog is an immutable alias index built once per enrichment run. Catalog
// mutations between runs require a rebuild; the index is never mutated mid-run.
type Catalog struct {
	matcher  *ahocorasick.Matcher
	names    []string // normalized names in matcher order
	byName   map[string]*aliasEntry
	subjects map[int64]domain.TrackedSubject
	ordered  []domain.TrackedSubject
	log      logger.Logger
}

// Build constructs the alias index from active tracked subjects. Canonical
// names and display names resolve at the canonical tier, aliases at the alias
// tier. A name claimed by multiple subjects resolves as ambiguous.
func Build(subjects []domain.TrackedSubject, log logger.Logger) *Catalog {
	c := &Catalog{
		byName:   make(map[string]*aliasEntry),
		subjects: make(map[int64]domain.TrackedSubject, len(subjects)),
		log:      log,
	}

	for _, s := range subjects {
		if !s.Active {
			continue
		}
		c.subjects[s.ID] = s
		c.ordered = append(c.ordered, s)

		c.index(s.CanonicalName, s.ID, ConfidenceCanonical)
		c.index(s.DisplayName, s.ID, ConfidenceCanonical)
		for _, alias := range s.Aliases {
			c.index(alias, s.ID, ConfidenceAlias)
		}
	}

	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].ID < c.ordered[j].ID })

	c.names = make([]string, 0, len(c.byName))
	for name := range c.byName {
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)

	if len(c.names) > 0 {
		// Keys are space-padded so a matcher hit implies a whole-word match
		// against the space-delimited normalized text.
		padded := make([]string, len(c.names))
		for i, name := range c.names {
			padded[i] = " " + name + " "
		}
		c.matcher = ahocorasick.NewStringMatcher(padded)
	}

	if log != nil {
		log.Info("alias catalog built",
			logger.Int("subjects", len(c.subjects)),
			logger.Int("names", len(c.names)))
	}

	return c
}

func (c *Catalog) index(raw string, subjectID int64, confidence float64) {
	name := Normalize(raw)
	if name == "" {
		return
	}

	entry, ok := c.byName[name]
	if !ok {
		c.byName[name] = &aliasEntry{subjectIDs: []int64{subjectID}, confidence: confidence}
		return
	}
	for _, id := range entry.subjectIDs {
		if id == subjectID {
			if confidence > entry.confidence {
				entry.confidence = confidence
			}
			return
		}
	}
	entry.subjectIDs = append(entry.subjectIDs, subjectID)
	if confidence > entry.confidence {
		entry.confidence = confidence
	}
}

// Resolve maps a candidate mention string to a tracked subject with a
// confidence tier. Resolution never returns an error.
func (c *Catalog) Resolve(candidate string) Resolution {
	if !ValidCandidate(candidate) {
		return Resolution{Outcome: OutcomeRejected}
	}

	name := Normalize(candidate)
	entry, ok := c.byName[name]
	if !ok {
		return Resolution{Outcome: OutcomeUnresolved, Confidence: ConfidenceDiscovered}
	}

	if len(entry.subjectIDs) > 1 {
		candidates := make([]int64, len(entry.subjectIDs))
		copy(candidates, entry.subjectIDs)
		sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
		return Resolution{
			Outcome:    OutcomeAmbiguous,
			Confidence: entry.confidence,
			Candidates: candidates,
		}
	}

	return Resolution{
		Outcome:    OutcomeResolved,
		SubjectID:  entry.subjectIDs[0],
		Confidence: entry.confidence,
	}
}

// ExtractMentions finds every catalog name present in the text as a whole
// word, in a single pass. Returned names are normalized and deduplicated.
func (c *Catalog) ExtractMentions(text string) []string {
	if c.matcher == nil || text == "" {
		return nil
	}

	normalized := " " + Normalize(text) + " "
	hits := c.matcher.Match([]byte(normalized))

	seen := make(map[string]bool, len(hits))
	mentions := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit >= len(c.names) {
			continue
		}
		name := c.names[hit]
		if !seen[name] {
			seen[name] = true
			mentions = append(mentions, name)
		}
	}
	return mentions
}

// Subjects returns all active tracked subjects ordered by id. The slice is
// shared; callers must not mutate it.
func (c *Catalog) Subjects() []domain.TrackedSubject {
	return c.ordered
}

// Subject looks up a tracked subject by id.
func (c *Catalog) Subject(id int64) (domain.TrackedSubject, bool) {
	s, ok := c.subjects[id]
	return s, ok
}

// Size returns the number of indexed subjects.
func (c *Catalog) Size() int {
	return len(c.subjects)
}

// Normalize lowercases a name, replaces non-alphanumeric runes with spaces,
// and collapses runs of whitespace. Matching and indexing share this form.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(text))

	lastSpace := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
		} else if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}
