package sentiment_test

import (
	"context"
	"testing"

	"github.com/starwatch/sentiment/internal/sentiment"
)

func janeAndJonHints() []sentiment.SubjectHint {
	return []sentiment.SubjectHint{
		{ID: 1, DisplayName: "Jane Doe", CanonicalName: "jane doe", Type: "person", Aliases: []string{"Janie"}},
		{ID: 2, DisplayName: "Jon Roe", CanonicalName: "jon roe", Type: "person"},
	}
}

func TestLexicon_OverallPolarity(t *testing.T) {
	p := sentiment.NewLexicon(nil)

	tests := []struct {
		name string
		text string
		sign int // -1 negative, 0 near-neutral, 1 positive
	}{
		{name: "positive", text: "I absolutely love this, amazing work", sign: 1},
		{name: "negative", text: "I hate this, it was terrible", sign: -1},
		{name: "neutral", text: "The meeting is at noon on Tuesday", sign: 0},
		{name: "slang positive", text: "she ate with this one", sign: 1},
		{name: "slang negative", text: "the album is so mid", sign: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Score(context.Background(), sentiment.Request{Text: tt.text})
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			switch tt.sign {
			case 1:
				if res.Overall.Value <= 0 {
					t.Errorf("Overall.Value = %v, want > 0", res.Overall.Value)
				}
			case -1:
				if res.Overall.Value >= 0 {
					t.Errorf("Overall.Value = %v, want < 0", res.Overall.Value)
				}
			case 0:
				if res.Overall.Value > 0.2 || res.Overall.Value < -0.2 {
					t.Errorf("Overall.Value = %v, want near neutral", res.Overall.Value)
				}
			}
			if res.Overall.Confidence < 0.5 || res.Overall.Confidence > 0.95 {
				t.Errorf("Overall.Confidence = %v, want within [0.5, 0.95]", res.Overall.Confidence)
			}
		})
	}
}

func TestLexicon_PerSubjectContrast(t *testing.T) {
	p := sentiment.NewLexicon(nil)

	res, err := p.Score(context.Background(), sentiment.Request{
		Text:     "I love Jane Doe but hate Jon Roe!!",
		Subjects: janeAndJonHints(),
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	jane, ok := res.PerSubject["jane doe"]
	if !ok {
		t.Fatalf("PerSubject missing jane doe: %v", res.PerSubject)
	}
	if jane.Value <= 0.3 {
		t.Errorf("jane doe score = %v, want > 0.3", jane.Value)
	}

	jon, ok := res.PerSubject["jon roe"]
	if !ok {
		t.Fatalf("PerSubject missing jon roe: %v", res.PerSubject)
	}
	if jon.Value >= -0.3 {
		t.Errorf("jon roe score = %v, want < -0.3", jon.Value)
	}
}

func TestLexicon_UnmentionedSubjectNotScored(t *testing.T) {
	p := sentiment.NewLexicon(nil)

	res, err := p.Score(context.Background(), sentiment.Request{
		Text:     "Jane Doe was incredible in the finale",
		Subjects: janeAndJonHints(),
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if _, ok := res.PerSubject["jon roe"]; ok {
		t.Error("jon roe scored despite not being mentioned")
	}
	if _, ok := res.PerSubject["jane doe"]; !ok {
		t.Error("jane doe mentioned but not scored")
	}
}

func TestLexicon_AliasMentionAttributed(t *testing.T) {
	p := sentiment.NewLexicon(nil)

	res, err := p.Score(context.Background(), sentiment.Request{
		Text:     "Janie killed it tonight, so proud",
		Subjects: janeAndJonHints(),
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if _, ok := res.PerSubject["jane doe"]; !ok {
		t.Errorf("alias mention not attributed to jane doe: %v", res.PerSubject)
	}
}

func TestLexicon_DiscoversUnknownNames(t *testing.T) {
	p := sentiment.NewLexicon(nil)

	res, err := p.Score(context.Background(), sentiment.Request{
		Text:     "Totally obsessed with Rina Sawayama right now",
		Subjects: janeAndJonHints(),
	})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	found := false
	for _, name := range res.Discovered {
		if name == "rina sawayama" {
			found = true
		}
	}
	if !found {
		t.Errorf("Discovered = %v, want to include rina sawayama", res.Discovered)
	}

	for _, name := range res.Discovered {
		if name == "jane doe" || name == "jon roe" {
			t.Errorf("known subject %q surfaced as discovered", name)
		}
	}
}
