package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrNoProvider is returned when an engine is built without a knowledge provider.
	ErrNoProvider = errors.New("knowledge provider is required")
	// ErrKnowledgeUnavailable is returned when the knowledge store cannot be read.
	ErrKnowledgeUnavailable = errors.New("knowledge store unavailable")
)

// Options configures an Engine. Nil fields take process defaults.
type Options struct {
	Random   RandomSource
	Clock    Clock
	Logger   *zap.Logger
	Fallback []FallbackEntry
}

// snapshot pairs an immutable knowledge index with the resolver built over it.
type snapshot struct {
	knowledge *Knowledge
	resolver  *Resolver
}

// Engine composes classification, severity and advisory resolution into a
// diagnosis. It is constructed once at startup and shared by request handlers.
type Engine struct {
	provider   KnowledgeProvider
	classifier *Classifier
	clock      Clock
	fallback   []FallbackEntry
	logger     *zap.Logger

	state atomic.Pointer[snapshot]
}

// NewEngine loads the knowledge store from provider and returns a ready engine.
// A provider error is fatal and wrapped in ErrKnowledgeUnavailable.
func NewEngine(ctx context.Context, provider KnowledgeProvider, opts Options) (*Engine, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Fallback == nil {
		opts.Fallback = DefaultFallbackEntries()
	}
	e := &Engine{
		provider:   provider,
		classifier: NewClassifier(opts.Random),
		clock:      opts.Clock,
		fallback:   opts.Fallback,
		logger:     opts.Logger,
	}
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload rebuilds the knowledge index from the provider and swaps it in.
// In-flight diagnoses keep using the snapshot they started with.
func (e *Engine) Reload(ctx context.Context) error {
	records, err := e.provider.AllDiseaseRecords(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKnowledgeUnavailable, err)
	}
	k := NewKnowledge(records)
	e.state.Store(&snapshot{
		knowledge: k,
		resolver:  NewResolverWithFallback(k, e.fallback),
	})
	if k.Size() == 0 {
		e.logger.Warn("knowledge store is empty, advisories come from the built-in table only")
	} else {
		e.logger.Info("disease knowledge loaded", zap.Int("records", k.Size()))
	}
	return nil
}

// KnowledgeSize returns the number of indexed disease records.
func (e *Engine) KnowledgeSize() int {
	if s := e.state.Load(); s != nil {
		return s.knowledge.Size()
	}
	return 0
}

// Degraded reports whether the engine runs on the built-in fallback table only.
func (e *Engine) Degraded() bool {
	return e.KnowledgeSize() == 0
}

// KnowledgeKeys returns the lookup keys of the indexed disease records, sorted.
func (e *Engine) KnowledgeKeys() []string {
	if s := e.state.Load(); s != nil {
		return s.knowledge.Keys()
	}
	return nil
}

// Classify runs the classifier alone.
func (e *Engine) Classify(imageSize int, plantPart string) Prediction {
	return e.classifier.Classify(imageSize, plantPart)
}

// ResolveAdvisory returns the advisory for label in the given language code.
func (e *Engine) ResolveAdvisory(label, language string) (Advisory, error) {
	s := e.state.Load()
	if s == nil {
		return Advisory{}, ErrKnowledgeUnavailable
	}
	return s.resolver.Resolve(label, ParseLanguage(language)), nil
}

// Diagnose classifies image, rates the severity and attaches advisory text in
// language. Unknown plant parts, languages and labels are handled by defaults;
// the only error is an engine whose knowledge was never loaded.
func (e *Engine) Diagnose(image []byte, plantPart, language string) (Result, error) {
	if e == nil {
		return Result{}, ErrKnowledgeUnavailable
	}
	s := e.state.Load()
	if s == nil {
		return Result{}, ErrKnowledgeUnavailable
	}
	lang := ParseLanguage(language)
	pred := e.Classify(len(image), plantPart)
	severity := SeverityFor(pred.Label, pred.Confidence)
	adv := s.resolver.Resolve(pred.Label, lang)

	result := Result{
		Disease:    pred.Label,
		Confidence: pred.Confidence,
		Severity:   severity,
		Symptoms:   adv.Symptoms,
		Treatment:  adv.Treatment,
		Prevention: adv.Prevention,
		IsHealthy:  IsHealthyLabel(pred.Label),
		PlantPart:  plantPart,
		Language:   lang,
		Timestamp:  e.clock.Now(),
		AdditionalInfo: AdditionalInfo{
			AlternativeNames: adv.AlternativeNames,
			AffectedCrops:    adv.AffectedCrops,
			Seasonality:      adv.Seasonality,
			SpreadMethod:     adv.SpreadMethod,
			Source:           adv.Source,
		},
	}
	e.logger.Debug("diagnosis complete",
		zap.String("disease", result.Disease),
		zap.Float64("confidence", result.Confidence),
		zap.String("severity", string(result.Severity)),
		zap.String("plantPart", plantPart),
		zap.String("source", adv.Source),
	)
	return result, nil
}
