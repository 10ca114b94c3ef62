package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pneumonia-cds-server/internal/domain"
)

type stubClassifier struct {
	prediction domain.ModelPrediction
	err        error
	calls      int
}

func (s *stubClassifier) Classify(ctx context.Context, image []byte, filename string) (domain.ModelPrediction, error) {
	s.calls++
	return s.prediction, s.err
}

type memoryRepo struct {
	records map[string]*domain.AnalysisRecord
	created int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: map[string]*domain.AnalysisRecord{}}
}

func (r *memoryRepo) Create(ctx context.Context, record *domain.AnalysisRecord) error {
	r.records[record.ReferenceNumber] = record
	r.created++
	return nil
}

func (r *memoryRepo) GetByReference(ctx context.Context, reference string) (*domain.AnalysisRecord, error) {
	record, ok := r.records[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (r *memoryRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	out := make([]*domain.AnalysisRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

func (r *memoryRepo) CountByCategory(ctx context.Context) (map[domain.Category]int64, error) {
	counts := map[domain.Category]int64{}
	for _, record := range r.records {
		counts[record.Category]++
	}
	return counts, nil
}

func (r *memoryRepo) DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	horizon := time.Now().UTC().AddDate(0, 0, -retentionDays)
	var removed int64
	for reference, record := range r.records {
		if record.CreatedAt.Before(horizon) {
			delete(r.records, reference)
			removed++
		}
	}
	return removed, nil
}

func newTestAnalysisService(t *testing.T, classifier XRayClassifier, repo AnalysisRepository) *AnalysisService {
	t.Helper()
	svc, err := NewAnalysisService(classifier, repo, 16, testLogger())
	require.NoError(t, err)
	return svc
}

func TestAnalysisService_Analyze(t *testing.T) {
	classifier := &stubClassifier{prediction: domain.ModelPrediction{
		Category:   domain.BACTERIAL_PNEUMONIA,
		Confidence: 0.85,
	}}
	repo := newMemoryRepo()
	svc := newTestAnalysisService(t, classifier, repo)

	profile := &domain.SymptomProfile{
		Fever:               true,
		PersistentCough:     true,
		ChestPain:           true,
		DifficultyBreathing: true,
		YellowGreenSputum:   true,
		ProductiveCough:     true,
	}

	report, err := svc.Analyze(context.Background(), &AnalysisRequest{
		Image:      []byte("fake-png"),
		Filename:   "chest.png",
		Symptoms:   profile,
		PatientAge: "45",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, classifier.calls)
	assert.True(t, strings.HasPrefix(report.ReferenceNumber, "XR-"))
	assert.Equal(t, domain.BACTERIAL_PNEUMONIA, report.Category)
	assert.Equal(t, 0.85, report.ModelConfidence)
	assert.Equal(t, domain.CorrelationStrong, report.Assessment.ClinicalCorrelation)
	assert.Equal(t, 66.0, report.SymptomScore.TotalScore)
	assert.NotEmpty(t, report.ClinicalSummary)
	assert.False(t, report.CreatedAt.IsZero())

	// Persisted record mirrors the report headline figures.
	assert.Equal(t, 1, repo.created)
	record := repo.records[report.ReferenceNumber]
	require.NotNil(t, record)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, report.Category, record.Category)
	assert.Equal(t, report.Assessment.AdjustedConfidence, record.AdjustedConfidence)
	assert.Equal(t, report.Recommendation.Urgency, record.Urgency)

	var stored domain.AnalysisReport
	require.NoError(t, json.Unmarshal(record.Report, &stored))
	assert.Equal(t, report.ReferenceNumber, stored.ReferenceNumber)
}

func TestAnalysisService_AnalyzeClassifierFailure(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("upstream timeout")}
	svc := newTestAnalysisService(t, classifier, newMemoryRepo())

	report, err := svc.Analyze(context.Background(), &AnalysisRequest{Image: []byte("x"), Filename: "x.png"})

	assert.Nil(t, report)
	assert.ErrorContains(t, err, "classify x-ray")
}

func TestAnalysisService_PersistFailureDoesNotFailAnalysis(t *testing.T) {
	classifier := &stubClassifier{prediction: domain.ModelPrediction{Category: domain.NORMAL, Confidence: 0.9}}
	svc := newTestAnalysisService(t, classifier, &failingRepo{})

	report, err := svc.Analyze(context.Background(), &AnalysisRequest{Image: []byte("x"), Filename: "x.png"})

	require.NoError(t, err)
	assert.NotNil(t, report)
}

type failingRepo struct{}

func (r *failingRepo) Create(ctx context.Context, record *domain.AnalysisRecord) error {
	return errors.New("connection refused")
}

func (r *failingRepo) GetByReference(ctx context.Context, reference string) (*domain.AnalysisRecord, error) {
	return nil, domain.ErrNotFound
}

func (r *failingRepo) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	return nil, nil
}

func (r *failingRepo) CountByCategory(ctx context.Context) (map[domain.Category]int64, error) {
	return nil, errors.New("connection refused")
}

func (r *failingRepo) DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestAnalysisService_GetReport(t *testing.T) {
	classifier := &stubClassifier{prediction: domain.ModelPrediction{Category: domain.VIRAL_PNEUMONIA, Confidence: 0.8}}
	repo := newMemoryRepo()
	svc := newTestAnalysisService(t, classifier, repo)

	report, err := svc.Analyze(context.Background(), &AnalysisRequest{Image: []byte("x"), Filename: "x.png"})
	require.NoError(t, err)

	t.Run("served from cache", func(t *testing.T) {
		got, err := svc.GetReport(context.Background(), report.ReferenceNumber)
		require.NoError(t, err)
		assert.Equal(t, report, got)
	})

	t.Run("served from repository after cache eviction", func(t *testing.T) {
		svc.reports.Purge()

		got, err := svc.GetReport(context.Background(), report.ReferenceNumber)
		require.NoError(t, err)
		assert.Equal(t, report.ReferenceNumber, got.ReferenceNumber)
		assert.Equal(t, report.Category, got.Category)
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, err := svc.GetReport(context.Background(), "XR-0")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAnalysisService_Stats(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestAnalysisService(t, &stubClassifier{}, repo)

	repo.records["XR-1"] = &domain.AnalysisRecord{ReferenceNumber: "XR-1", Category: domain.BACTERIAL_PNEUMONIA}
	repo.records["XR-2"] = &domain.AnalysisRecord{ReferenceNumber: "XR-2", Category: domain.BACTERIAL_PNEUMONIA}
	repo.records["XR-3"] = &domain.AnalysisRecord{ReferenceNumber: "XR-3", Category: domain.TB}

	counts, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.BACTERIAL_PNEUMONIA])
	assert.Equal(t, int64(1), counts[domain.TB])

	t.Run("no repository yields empty counts", func(t *testing.T) {
		svc := newTestAnalysisService(t, &stubClassifier{}, nil)
		counts, err := svc.Stats(context.Background())
		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}

func TestAnalysisService_PruneReports(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestAnalysisService(t, &stubClassifier{}, repo)

	repo.records["XR-old"] = &domain.AnalysisRecord{
		ReferenceNumber: "XR-old",
		Category:        domain.NORMAL,
		CreatedAt:       time.Now().UTC().AddDate(0, 0, -90),
	}
	repo.records["XR-new"] = &domain.AnalysisRecord{
		ReferenceNumber: "XR-new",
		Category:        domain.NORMAL,
		CreatedAt:       time.Now().UTC(),
	}

	removed, err := svc.PruneReports(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.NotContains(t, repo.records, "XR-old")
	assert.Contains(t, repo.records, "XR-new")

	t.Run("no repository removes nothing", func(t *testing.T) {
		svc := newTestAnalysisService(t, &stubClassifier{}, nil)
		removed, err := svc.PruneReports(context.Background(), 30)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

// Same prediction and profile must always produce the same assessment.
func TestAnalysisService_EvaluateDeterministic(t *testing.T) {
	svc := newTestAnalysisService(t, &stubClassifier{}, nil)

	prediction := domain.ModelPrediction{Category: domain.NORMAL, Confidence: 0.9}
	profile := &domain.SymptomProfile{Fever: true, NightSweats: true, WeightLoss: true}

	first := svc.Evaluate(prediction, profile, "50", "")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, svc.Evaluate(prediction, profile, "50", ""))
	}
}

func TestAnalysisService_EvaluateRaisesContradictionAlert(t *testing.T) {
	svc := newTestAnalysisService(t, &stubClassifier{}, nil)

	report := svc.Evaluate(
		domain.ModelPrediction{Category: domain.NORMAL, Confidence: 0.9},
		&domain.SymptomProfile{NightSweats: true, WeightLoss: true, Hemoptysis: true},
		"50", "")

	assert.True(t, report.Alert.HasAlert)
	assert.Equal(t, domain.AlertCritical, report.Alert.AlertLevel)
	assert.Equal(t, domain.RiskVeryHigh, report.TBRisk.RiskLevel)
}
