package catalog_test

import (
	"testing"

	"github.com/starwatch/sentiment/internal/catalog"
	"github.com/starwatch/sentiment/internal/domain"
)

func testSubjects() []domain.TrackedSubject {
	return []domain.TrackedSubject{
		{
			ID:            1,
			DisplayName:   "Jane Doe",
			CanonicalName: "jane doe",
			Type:          domain.SubjectPerson,
			Aliases:       []string{"JD", "Janie"},
			Active:        true,
		},
		{
			ID:            2,
			DisplayName:   "Jon Roe",
			CanonicalName: "jon roe",
			Type:          domain.SubjectPerson,
			Aliases:       []string{"Jon"},
			Active:        true,
		},
		{
			ID:            3,
			DisplayName:   "Jon Snow",
			CanonicalName: "jon snow",
			Type:          domain.SubjectPerson,
			Aliases:       []string{"Jon"},
			Active:        true,
		},
		{
			ID:            4,
			DisplayName:   "Retired Name",
			CanonicalName: "retired name",
			Type:          domain.SubjectBrand,
			Active:        false,
		},
	}
}

func TestCatalog_Resolve_ConfidenceTiers(t *testing.T) {
	c := catalog.Build(testSubjects(), nil)

	tests := []struct {
		name           string
		candidate      string
		wantOutcome    catalog.Outcome
		wantSubjectID  int64
		wantConfidence float64
	}{
		{
			name:           "canonical match",
			candidate:      "Jane Doe",
			wantOutcome:    catalog.OutcomeResolved,
			wantSubjectID:  1,
			wantConfidence: catalog.ConfidenceCanonical,
		},
		{
			name:           "canonical match case insensitive",
			candidate:      "JANE DOE",
			wantOutcome:    catalog.OutcomeResolved,
			wantSubjectID:  1,
			wantConfidence: catalog.ConfidenceCanonical,
		},
		{
			name:           "alias match",
			candidate:      "Janie",
			wantOutcome:    catalog.OutcomeResolved,
			wantSubjectID:  1,
			wantConfidence: catalog.ConfidenceAlias,
		},
		{
			name:           "no match",
			candidate:      "Somebody Else",
			wantOutcome:    catalog.OutcomeUnresolved,
			wantConfidence: catalog.ConfidenceDiscovered,
		},
		{
			name:        "inactive subject not indexed",
			candidate:   "Retired Name",
			wantOutcome: catalog.OutcomeUnresolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Resolve(tt.candidate)
			if got.Outcome != tt.wantOutcome {
				t.Fatalf("Resolve(%q).Outcome = %v, want %v", tt.candidate, got.Outcome, tt.wantOutcome)
			}
			if tt.wantOutcome == catalog.OutcomeResolved && got.SubjectID != tt.wantSubjectID {
				t.Errorf("Resolve(%q).SubjectID = %d, want %d", tt.candidate, got.SubjectID, tt.wantSubjectID)
			}
			if tt.wantConfidence != 0 && got.Confidence != tt.wantConfidence {
				t.Errorf("Resolve(%q).Confidence = %v, want %v", tt.candidate, got.Confidence, tt.wantConfidence)
			}
		})
	}
}

func TestCatalog_Resolve_AliasCollision(t *testing.T) {
	c := catalog.Build(testSubjects(), nil)

	got := c.Resolve("Jon")
	if got.Outcome != catalog.OutcomeAmbiguous {
		t.Fatalf("Resolve(Jon).Outcome = %v, want ambiguous", got.Outcome)
	}
	if len(got.Candidates) != 2 {
		t.Fatalf("Resolve(Jon).Candidates = %v, want two candidates", got.Candidates)
	}
	if got.Candidates[0] != 2 || got.Candidates[1] != 3 {
		t.Errorf("Resolve(Jon).Candidates = %v, want [2 3]", got.Candidates)
	}
}

func TestCatalog_Resolve_RejectsGarbage(t *testing.T) {
	c := catalog.Build(testSubjects(), nil)

	for _, candidate := range []string{"", "x", "🔥🔥🔥", "!!!", "12345", "the"} {
		if got := c.Resolve(candidate); got.Outcome != catalog.OutcomeRejected {
			t.Errorf("Resolve(%q).Outcome = %v, want rejected", candidate, got.Outcome)
		}
	}
}

func TestCatalog_ExtractMentions(t *testing.T) {
	c := catalog.Build(testSubjects(), nil)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "multiple whole word mentions",
			text: "I love Jane Doe but hate Jon Roe!!",
			want: []string{"jane doe", "jon roe", "jon"},
		},
		{
			name: "alias mention",
			text: "Janie was amazing tonight",
			want: []string{"janie"},
		},
		{
			name: "substring is not a mention",
			text: "jdawg and janiexx were here",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ExtractMentions(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractMentions(%q) = %v, want %v", tt.text, got, tt.want)
			}
			gotSet := make(map[string]bool, len(got))
			for _, m := range got {
				gotSet[m] = true
			}
			for _, w := range tt.want {
				if !gotSet[w] {
					t.Errorf("ExtractMentions(%q) missing %q (got %v)", tt.text, w, got)
				}
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Jane  Doe  ", "jane doe"},
		{"JANE-DOE!!", "jane doe"},
		{"jane_doe", "jane doe"},
		{"🔥🔥", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := catalog.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
