package diagnosis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type failingProvider struct{ err error }

func (p failingProvider) AllDiseaseRecords(context.Context) ([]DiseaseRecord, error) {
	return nil, p.err
}

type countingProvider struct {
	mu      sync.Mutex
	calls   int
	records []DiseaseRecord
}

func (p *countingProvider) AllDiseaseRecords(context.Context) ([]DiseaseRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return append([]DiseaseRecord(nil), p.records...), nil
}

var fixedTime = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, provider KnowledgeProvider, rnd RandomSource) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), provider, Options{
		Random: rnd,
		Clock:  ClockFunc(func() time.Time { return fixedTime }),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	return e
}

func TestNewEngine_RequiresProvider(t *testing.T) {
	_, err := NewEngine(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestNewEngine_StoreFailureIsFatal(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewEngine(context.Background(), failingProvider{err: boom}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKnowledgeUnavailable)
	assert.ErrorIs(t, err, boom)
}

func TestNewEngine_EmptyStoreIsDegraded(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e, err := NewEngine(context.Background(), StaticProvider(nil), Options{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.True(t, e.Degraded())
	assert.Equal(t, 0, e.KnowledgeSize())
	assert.Equal(t, 1, logs.Len())

	full := newTestEngine(t, StaticProvider(sampleRecords()), nil)
	assert.False(t, full.Degraded())
	assert.Equal(t, 2, full.KnowledgeSize())
}

func TestDiagnose_ZeroByteImage(t *testing.T) {
	e := newTestEngine(t, StaticProvider(nil), NewSequenceRandom(0, 0.5))

	res, err := e.Diagnose([]byte{}, "leaves", "en")
	require.NoError(t, err)

	assert.Equal(t, LabelHealthy, res.Disease)
	assert.True(t, res.IsHealthy)
	assert.Equal(t, SeverityLow, res.Severity)
	assert.Equal(t, 65.0, res.Confidence)
	assert.Equal(t, "leaves", res.PlantPart)
	assert.Equal(t, English, res.Language)
	assert.Equal(t, fixedTime, res.Timestamp)
	assert.Equal(t, "No disease symptoms detected. Plant appears healthy", res.Symptoms)
	assert.Equal(t, []string{"Rice", "Wheat", "Corn"}, res.AdditionalInfo.AffectedCrops)
	assert.Equal(t, SourceFallback, res.AdditionalInfo.Source)
}

func TestDiagnose_ResultIsConsistent(t *testing.T) {
	e := newTestEngine(t, StaticProvider(sampleRecords()), NewSeededRandom(7))
	for i := 0; i < 500; i++ {
		res, err := e.Diagnose(nil, "leaves", "en")
		require.NoError(t, err)
		assert.Equal(t, res.Disease == LabelHealthy, res.IsHealthy)
		assert.Equal(t, SeverityFor(res.Disease, res.Confidence), res.Severity)
		assert.True(t, IsKnownLabel(res.Disease))
	}
}

func TestEngine_ClassifyMatchesDiagnose(t *testing.T) {
	a := newTestEngine(t, StaticProvider(nil), NewSeededRandom(11))
	b := newTestEngine(t, StaticProvider(nil), NewSeededRandom(11))
	for size := 0; size < 2000; size += 97 {
		pred := a.Classify(size, "fruit")
		res, err := b.Diagnose(make([]byte, size), "fruit", "en")
		require.NoError(t, err)
		assert.Equal(t, pred.Label, res.Disease)
		assert.Equal(t, pred.Confidence, res.Confidence)
	}
}

func TestEngine_KnowledgeKeys(t *testing.T) {
	e := newTestEngine(t, StaticProvider(sampleRecords()), nil)
	assert.Equal(t, []string{"leaf blast", "sheath rot"}, e.KnowledgeKeys())

	empty := newTestEngine(t, StaticProvider(nil), nil)
	assert.Empty(t, empty.KnowledgeKeys())
}

func TestDiagnose_UsesKnowledgeRecord(t *testing.T) {
	probs := Distribution(10, "stem")
	// Land the draw inside the Leaf_Blast band.
	draw := probs[0] + probs[1] + probs[2] + probs[3]/2
	e := newTestEngine(t, StaticProvider(sampleRecords()), NewSequenceRandom(draw, 0.5))

	res, err := e.Diagnose(make([]byte, 10), "Stem", "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, LabelLeafBlast, res.Disease)
	assert.False(t, res.IsHealthy)
	assert.Equal(t, SeverityMedium, res.Severity)
	assert.Equal(t, Hindi, res.Language)
	assert.Equal(t, "Stem", res.PlantPart)
	assert.Equal(t, "धूसर केंद्र वाले हीरे के आकार के घाव", res.Symptoms)
	assert.Equal(t, []string{"पत्ती झुलसा", "Leaf Blast"}, res.AdditionalInfo.AlternativeNames)
	assert.Equal(t, KnowledgeSeasonality, res.AdditionalInfo.Seasonality)
	assert.Equal(t, KnowledgeSpreadMethod, res.AdditionalInfo.SpreadMethod)
}

func TestDiagnose_UnknownInputsUseDefaults(t *testing.T) {
	e := newTestEngine(t, StaticProvider(nil), NewSequenceRandom(0, 0.5))
	res, err := e.Diagnose([]byte("x"), "petal", "fr")
	require.NoError(t, err)
	assert.Equal(t, English, res.Language)
	assert.Equal(t, "petal", res.PlantPart)
}

func TestDiagnose_NilEngine(t *testing.T) {
	var e *Engine
	_, err := e.Diagnose(nil, "leaves", "en")
	assert.ErrorIs(t, err, ErrKnowledgeUnavailable)
}

func TestEngine_ResolveAdvisory(t *testing.T) {
	e := newTestEngine(t, StaticProvider(nil), nil)
	adv, err := e.ResolveAdvisory("unknown_disease_xyz", "hi")
	require.NoError(t, err)
	assert.Equal(t, "कोई रोग के लक्षण नहीं मिले। पौधा स्वस्थ दिखता है", adv.Symptoms)
}

func TestEngine_Reload(t *testing.T) {
	p := &countingProvider{}
	e := newTestEngine(t, p, NewSequenceRandom(0, 0.5))
	assert.True(t, e.Degraded())

	p.mu.Lock()
	p.records = []DiseaseRecord{{NameEN: "Healthy", NameHI: "स्वस्थ", SymptomsEN: "Looks great", CropType: "Rice"}}
	p.mu.Unlock()

	require.NoError(t, e.Reload(context.Background()))
	assert.Equal(t, 2, p.calls)
	assert.False(t, e.Degraded())

	res, err := e.Diagnose(nil, "leaves", "en")
	require.NoError(t, err)
	assert.Equal(t, "Looks great", res.Symptoms)
	assert.Equal(t, SourceKnowledge, res.AdditionalInfo.Source)
}

func TestEngine_ReloadFailureKeepsPreviousKnowledge(t *testing.T) {
	e := newTestEngine(t, StaticProvider(sampleRecords()), nil)
	e.provider = failingProvider{err: errors.New("db down")}
	err := e.Reload(context.Background())
	assert.ErrorIs(t, err, ErrKnowledgeUnavailable)
	assert.Equal(t, 2, e.KnowledgeSize())
}

func TestDiagnose_Concurrent(t *testing.T) {
	e := newTestEngine(t, StaticProvider(sampleRecords()), NewSeededRandom(99))
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%16 == 0 {
				if err := e.Reload(context.Background()); err != nil {
					errs <- err
					return
				}
			}
			res, err := e.Diagnose(make([]byte, n*13), "fruit", "hi")
			if err != nil {
				errs <- err
				return
			}
			if res.IsHealthy != (res.Disease == LabelHealthy) {
				errs <- errors.New("inconsistent healthy flag")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
