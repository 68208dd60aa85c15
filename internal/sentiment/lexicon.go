package sentiment

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/jonreiter/govader"

	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
)

const (
	// maxLexiconConfidence caps the lexicon scorer's self-reported confidence;
	// a heuristic scorer is never certain.
	maxLexiconConfidence = 0.95
	slangStep            = 0.1
	maxSlangAdjustment   = 0.3
)

// slangPolarity covers informal/entertainment vocabulary VADER's lexicon
// misses or underweights. Values nudge the compound score per hit.
var slangPolarity = map[string]float64{
	"slay": 1, "slays": 1, "slayed": 1,
	"ate": 1, "queen": 1, "king": 1,
	"goat": 1, "goated": 1, "fire": 1,
	"iconic": 1, "stan": 1, "banger": 1,
	"bop": 1, "underrated": 1, "vibes": 1,
	"mid": -1, "flop": -1, "flopped": -1,
	"cringe": -1, "trash": -1, "overrated": -1,
	"ratio": -1, "cap": -1, "snooze": -1,
	"skip": -1, "yikes": -1,
}

// contrastWords split a sentence into opposing clauses so two subjects with
// opposite polarity in one comment are scored separately.
var contrastWords = map[string]bool{
	"but": true, "however": true, "though": true, "yet": true,
}

// LexiconProvider is the deterministic rule-based scorer: VADER plus slang
// adjustments, with per-subject attribution by clause. Fast, free, lower
// accuracy than the model-backed provider.
type LexiconProvider struct {
	mu  sync.Mutex
	sia *govader.SentimentIntensityAnalyzer
	log logger.Logger
}

// NewLexicon builds a lexicon provider. The underlying analyzer is not safe
// for concurrent use, so scoring serializes on an internal mutex.
func NewLexicon(log logger.Logger) *LexiconProvider {
	return &LexiconProvider{
		sia: govader.NewSentimentIntensityAnalyzer(),
		log: log,
	}
}

// Name implements Provider.
func (p *LexiconProvider) Name() string { return domain.SourceLexicon }

// Score implements Provider. It never returns an error.
func (p *LexiconProvider) Score(_ context.Context, req Request) (*Result, error) {
	overall := p.scoreText(req.Text)

	result := &Result{
		Overall:    Score{Value: overall, Confidence: lexiconConfidence(overall)},
		PerSubject: make(map[string]Score),
		Source:     domain.SourceLexicon,
	}

	clauses := splitClauses(req.Text)

	for _, hint := range req.Subjects {
		value, mentioned := p.scoreSubject(hint, clauses)
		if !mentioned {
			continue
		}
		result.PerSubject[hint.CanonicalName] = Score{
			Value:      value,
			Confidence: lexiconConfidence(value),
		}
	}

	result.Discovered = discoverNames(req.Text, req.Subjects)

	return result, nil
}

// scoreSubject averages the scores of clauses mentioning the subject by any
// of its names. Subjects mentioned nowhere in the text are not scored.
func (p *LexiconProvider) scoreSubject(hint SubjectHint, clauses []string) (float64, bool) {
	names := make([]string, 0, len(hint.Aliases)+2)
	for _, n := range append([]string{hint.CanonicalName, hint.DisplayName}, hint.Aliases...) {
		if norm := catalog.Normalize(n); norm != "" {
			names = append(names, norm)
		}
	}

	var sum float64
	matched := 0
	for _, clause := range clauses {
		padded := " " + catalog.Normalize(clause) + " "
		for _, name := range names {
			if strings.Contains(padded, " "+name+" ") {
				sum += p.scoreText(clause)
				matched++
				break
			}
		}
	}

	if matched == 0 {
		return 0, false
	}
	return sum / float64(matched), true
}

// scoreText combines the VADER compound score with the slang adjustment,
// clamped to −1..1.
func (p *LexiconProvider) scoreText(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	p.mu.Lock()
	compound := p.sia.PolarityScores(text).Compound
	p.mu.Unlock()

	return clamp(compound+slangAdjustment(text), -1, 1)
}

func slangAdjustment(text string) float64 {
	var adj float64
	for _, token := range strings.Fields(catalog.Normalize(text)) {
		adj += slangPolarity[token] * slangStep
	}
	return clamp(adj, -maxSlangAdjustment, maxSlangAdjustment)
}

// lexiconConfidence grows with score magnitude: a strongly polarized reading
// is more trustworthy than a near-neutral one.
func lexiconConfidence(value float64) float64 {
	return math.Min(0.5+math.Abs(value)/2, maxLexiconConfidence)
}

// splitClauses breaks text on sentence punctuation and contrast conjunctions.
func splitClauses(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == ';'
	})

	clauses := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		current := make([]string, 0, 8)
		for _, word := range strings.Fields(sentence) {
			if contrastWords[strings.ToLower(strings.Trim(word, ",:"))] {
				if len(current) > 0 {
					clauses = append(clauses, strings.Join(current, " "))
					current = current[:0]
				}
				continue
			}
			current = append(current, word)
		}
		if len(current) > 0 {
			clauses = append(clauses, strings.Join(current, " "))
		}
	}
	return clauses
}

// discoverNames extracts capitalized word runs that match no subject hint.
// It is a cheap proper-noun heuristic; the pipeline's validity filter and the
// review surface catch its noise.
func discoverNames(text string, hints []SubjectHint) []string {
	known := make(map[string]bool, len(hints)*3)
	for _, hint := range hints {
		for _, n := range append([]string{hint.CanonicalName, hint.DisplayName}, hint.Aliases...) {
			if norm := catalog.Normalize(n); norm != "" {
				known[norm] = true
				for _, part := range strings.Fields(norm) {
					known[part] = true
				}
			}
		}
	}

	var discovered []string
	seen := make(map[string]bool)

	for _, clause := range splitClauses(text) {
		words := strings.Fields(clause)
		run := make([]string, 0, 3)

		flush := func(startIdx int) {
			defer func() { run = run[:0] }()
			// A single capitalized word at clause start is ordinary sentence
			// casing, not a name.
			if len(run) == 0 || (len(run) == 1 && startIdx == 0) {
				return
			}
			name := catalog.Normalize(strings.Join(run, " "))
			if name == "" || known[name] || seen[name] || !catalog.ValidCandidate(name) {
				return
			}
			seen[name] = true
			discovered = append(discovered, name)
		}

		runStart := -1
		for i, word := range words {
			if isCapitalizedWord(word) {
				if len(run) == 0 {
					runStart = i
				}
				run = append(run, word)
				continue
			}
			flush(runStart)
		}
		flush(runStart)
	}

	return discovered
}

func isCapitalizedWord(word string) bool {
	word = strings.Trim(word, ",:'\"")
	runes := []rune(word)
	if len(runes) < 2 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
