package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
	"github.com/starwatch/sentiment/internal/modeltransport"
)

// ErrUnavailable indicates the model service is unreachable or overloaded.
// Callers may retry.
var ErrUnavailable = errors.New("sentiment model service unavailable")

// ErrMalformedResponse indicates the model service answered with a payload
// that fails validation. Not retryable.
var ErrMalformedResponse = errors.New("malformed model response")

const modelClientTimeout = 10 * time.Second

// ModelProvider is the context-aware model-backed scorer. It sends the
// comment text, the post caption, and the full tracked-subject list as
// disambiguation context; the model decides which subjects are actually
// discussed and scores only those.
type ModelProvider struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

// NewModel builds a model provider for the service at baseURL.
func NewModel(baseURL string, log logger.Logger) *ModelProvider {
	return &ModelProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: modelClientTimeout},
		log:     log,
	}
}

// Name implements Provider.
func (p *ModelProvider) Name() string { return domain.SourceModel }

type modelSubjectScore struct {
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

type modelAmbiguous struct {
	Name       string   `json:"name"`
	Candidates []string `json:"candidates"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
}

type modelResponse struct {
	Overall           float64             `json:"overall"`
	OverallConfidence float64             `json:"overall_confidence"`
	Subjects          []modelSubjectScore `json:"subjects"`
	Ambiguous         []modelAmbiguous    `json:"ambiguous"`
	Discovered        []string            `json:"discovered"`
}

// Score implements Provider.
func (p *ModelProvider) Score(ctx context.Context, req Request) (*Result, error) {
	scoreReq := &modeltransport.ScoreRequest{
		Text:     req.Text,
		Caption:  req.Caption,
		Subjects: make([]modeltransport.ScoreSubject, 0, len(req.Subjects)),
	}
	for _, hint := range req.Subjects {
		scoreReq.Subjects = append(scoreReq.Subjects, modeltransport.ScoreSubject{
			ID:            hint.ID,
			DisplayName:   hint.DisplayName,
			CanonicalName: hint.CanonicalName,
			Type:          hint.Type,
			Aliases:       hint.Aliases,
		})
	}

	var resp modelResponse
	if err := modeltransport.DoScore(ctx, p.client, p.baseURL, scoreReq, &resp); err != nil {
		var statusErr *modeltransport.StatusError
		if errors.As(err, &statusErr) {
			if statusErr.Transient() {
				return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		// Decode failures are permanent; everything else at the transport
		// level is a connectivity problem.
		if isDecodeError(err) {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	result, err := p.validate(&resp)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *ModelProvider) validate(resp *modelResponse) (*Result, error) {
	if !inRange(resp.Overall, -1, 1) || !inRange(resp.OverallConfidence, 0, 1) {
		return nil, fmt.Errorf("%w: overall score %v confidence %v out of range",
			ErrMalformedResponse, resp.Overall, resp.OverallConfidence)
	}

	result := &Result{
		Overall:    Score{Value: resp.Overall, Confidence: resp.OverallConfidence},
		PerSubject: make(map[string]Score, len(resp.Subjects)),
		Discovered: resp.Discovered,
		Source:     domain.SourceModel,
	}

	for _, s := range resp.Subjects {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: subject score with empty name", ErrMalformedResponse)
		}
		if !inRange(s.Score, -1, 1) || !inRange(s.Confidence, 0, 1) {
			return nil, fmt.Errorf("%w: subject %q score %v confidence %v out of range",
				ErrMalformedResponse, s.Name, s.Score, s.Confidence)
		}
		result.PerSubject[s.Name] = Score{Value: s.Score, Confidence: s.Confidence}
	}

	for _, a := range resp.Ambiguous {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: ambiguous mention with empty name", ErrMalformedResponse)
		}
		result.Ambiguous = append(result.Ambiguous, AmbiguousMention{
			Name:       a.Name,
			Candidates: a.Candidates,
			Confidence: a.Confidence,
			Reason:     a.Reason,
		})
	}

	return result, nil
}

// Health reports whether the model service is reachable.
func (p *ModelProvider) Health(ctx context.Context) error {
	reachable, _, _, err := modeltransport.DoHealth(ctx, p.baseURL)
	if err != nil {
		if !reachable {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}
	return nil
}

func isDecodeError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "decode response")
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
