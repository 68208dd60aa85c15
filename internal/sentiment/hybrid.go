package sentiment

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/starwatch/sentiment/internal/domain"
	"github.com/starwatch/sentiment/internal/logger"
	"github.com/starwatch/sentiment/internal/metrics"
	"github.com/starwatch/sentiment/internal/retry"
)

// HybridConfig tunes the escalation policy.
type HybridConfig struct {
	// EscalationConfidence escalates lexicon results whose overall confidence
	// falls below it.
	EscalationConfidence float64
	// NeutralBandLow/High escalate lexicon results whose overall score lands
	// inside the band, where the lexicon is least trustworthy.
	NeutralBandLow  float64
	NeutralBandHigh float64
	// FallbackPenalty scales the lexicon confidence when the model escalation
	// fails and its result is used instead.
	FallbackPenalty float64
	// ModelRPS and ModelBurst bound the model call rate.
	ModelRPS   float64
	ModelBurst int
	// Retry bounds model call retries on transient failures.
	Retry retry.Config
}

// DefaultHybridConfig returns the standard escalation policy.
func DefaultHybridConfig() HybridConfig {
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 3
	retryCfg.InitialDelay = 200 * time.Millisecond
	retryCfg.MaxDelay = 2 * time.Second

	return HybridConfig{
		EscalationConfidence: 0.7,
		NeutralBandLow:       -0.2,
		NeutralBandHigh:      0.2,
		FallbackPenalty:      0.8,
		ModelRPS:             5,
		ModelBurst:           10,
		Retry:                retryCfg,
	}
}

// HybridProvider runs the lexicon scorer first and escalates to the model
// provider when the lexicon result is weak. Escalation rate is the dominant
// cost factor, so both escalations and fallbacks are counted.
type HybridProvider struct {
	lexicon Provider
	model   Provider
	limiter *rate.Limiter
	cfg     HybridConfig
	metrics *metrics.Metrics
	log     logger.Logger
}

// NewHybrid builds a hybrid provider over the two scorers.
func NewHybrid(lexicon, model Provider, cfg HybridConfig, m *metrics.Metrics, log logger.Logger) *HybridProvider {
	return &HybridProvider{
		lexicon: lexicon,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(cfg.ModelRPS), cfg.ModelBurst),
		cfg:     cfg,
		metrics: m,
		log:     log,
	}
}

// Name implements Provider.
func (p *HybridProvider) Name() string { return "hybrid" }

// Score implements Provider. A failed escalation never fails the comment:
// the lexicon result is returned with reduced confidence instead.
func (p *HybridProvider) Score(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	lexResult, err := p.lexicon.Score(ctx, req)
	if err != nil {
		return nil, err
	}
	p.metrics.ObserveProviderLatency(p.lexicon.Name(), time.Since(start).Seconds())

	if !p.shouldEscalate(lexResult) {
		return lexResult, nil
	}

	p.metrics.IncEscalations()

	modelResult, err := p.escalate(ctx, req)
	if err != nil {
		p.metrics.IncProviderFallbacks()
		if p.log != nil {
			p.log.Warn("model escalation failed, using lexicon result",
				logger.Error(err),
				logger.Float64("lexicon_score", lexResult.Overall.Value))
		}
		return p.fallback(lexResult), nil
	}

	return modelResult, nil
}

func (p *HybridProvider) shouldEscalate(r *Result) bool {
	if r.Overall.Confidence < p.cfg.EscalationConfidence {
		return true
	}
	return r.Overall.Value >= p.cfg.NeutralBandLow && r.Overall.Value <= p.cfg.NeutralBandHigh
}

func (p *HybridProvider) escalate(ctx context.Context, req Request) (*Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var result *Result
	err := retry.Do(ctx, p.retryConfig(), func() error {
		start := time.Now()
		r, scoreErr := p.model.Score(ctx, req)
		p.metrics.ObserveProviderLatency(p.model.Name(), time.Since(start).Seconds())
		if scoreErr != nil {
			return scoreErr
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// retryConfig limits retries to transient failures; a malformed response is
// permanent and retrying it wastes the rate budget.
func (p *HybridProvider) retryConfig() retry.Config {
	cfg := p.cfg.Retry
	cfg.IsRetryable = func(err error) bool {
		return !isPermanent(err)
	}
	return cfg
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// fallback returns the lexicon result with its confidences scaled down and
// the source relabelled so downstream consumers can tell it apart.
func (p *HybridProvider) fallback(lex *Result) *Result {
	out := &Result{
		Overall: Score{
			Value:      lex.Overall.Value,
			Confidence: lex.Overall.Confidence * p.cfg.FallbackPenalty,
		},
		PerSubject: make(map[string]Score, len(lex.PerSubject)),
		Ambiguous:  lex.Ambiguous,
		Discovered: lex.Discovered,
		Source:     domain.SourceLexiconFallback,
	}
	for name, score := range lex.PerSubject {
		out.PerSubject[name] = Score{
			Value:      score.Value,
			Confidence: score.Confidence * p.cfg.FallbackPenalty,
		}
	}
	return out
}
