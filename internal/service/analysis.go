package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// XRayClassifier is the external image-model boundary. Implementations
// return the raw category and confidence for an uploaded chest X-ray.
type XRayClassifier interface {
	Classify(ctx context.Context, image []byte, filename string) (domain.ModelPrediction, error)
}

// AnalysisRepository persists completed analyses for later retrieval by
// reference number.
type AnalysisRepository interface {
	Create(ctx context.Context, record *domain.AnalysisRecord) error
	GetByReference(ctx context.Context, reference string) (*domain.AnalysisRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error)
	CountByCategory(ctx context.Context) (map[domain.Category]int64, error)
	DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// AnalysisRequest carries one upload through the full pipeline. Symptoms may
// be nil when the clinician skipped the intake form.
type AnalysisRequest struct {
	Image          []byte
	Filename       string
	Symptoms       *domain.SymptomProfile
	PatientAge     string
	MedicalHistory string
}

// AnalysisService runs the full decision-support pipeline: classify the
// image, reconcile with symptoms, screen disease risks, cross-validate, and
// emit clinical recommendations. Completed reports are cached in-process and
// persisted through the repository.
type AnalysisService struct {
	classifier  XRayClassifier
	repo        AnalysisRepository
	symptoms    *SymptomScorer
	vitals      *VitalSignsScorer
	adjuster    *ConfidenceAdjuster
	covid       *CovidRiskDetector
	tb          *TBRiskDetector
	alerter     *CrossValidationAlerter
	recommender *RecommendationBuilder
	summarizer  *Summarizer
	reports     *lru.Cache[string, *domain.AnalysisReport]
	logger      *logrus.Logger
}

// NewAnalysisService wires the scoring components around the classifier and
// repository. cacheSize bounds the in-process report cache.
func NewAnalysisService(
	classifier XRayClassifier,
	repo AnalysisRepository,
	cacheSize int,
	logger *logrus.Logger,
) (*AnalysisService, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	reports, err := lru.New[string, *domain.AnalysisReport](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	symptoms := NewSymptomScorer(logger)
	vitals := NewVitalSignsScorer()

	return &AnalysisService{
		classifier:  classifier,
		repo:        repo,
		symptoms:    symptoms,
		vitals:      vitals,
		adjuster:    NewConfidenceAdjuster(symptoms, logger),
		covid:       NewCovidRiskDetector(logger),
		tb:          NewTBRiskDetector(logger),
		alerter:     NewCrossValidationAlerter(logger),
		recommender: NewRecommendationBuilder(logger),
		summarizer:  NewSummarizer(symptoms, vitals),
		reports:     reports,
		logger:      logger,
	}, nil
}

// Analyze classifies the uploaded image and runs the scoring pipeline over
// the result, persisting and caching the finished report.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalysisRequest) (*domain.AnalysisReport, error) {
	start := time.Now()

	prediction, err := s.classifier.Classify(ctx, req.Image, req.Filename)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"filename": req.Filename,
			"error":    err.Error(),
		}).Error("X-ray classification failed")
		return nil, fmt.Errorf("classify x-ray: %w", err)
	}

	report := s.Evaluate(prediction, req.Symptoms, req.PatientAge, req.MedicalHistory)
	report.ReferenceNumber = newReferenceNumber()
	report.ProcessingTimeMs = time.Since(start).Milliseconds()
	report.CreatedAt = time.Now().UTC()

	if s.repo != nil {
		if err := s.persist(ctx, report); err != nil {
			// Analysis result is still valid; persistence failure must not
			// withhold it from the clinician.
			s.logger.WithFields(logrus.Fields{
				"reference": report.ReferenceNumber,
				"error":     err.Error(),
			}).Error("Failed to persist analysis record")
		}
	}
	s.reports.Add(report.ReferenceNumber, report)

	s.logger.WithFields(logrus.Fields{
		"reference":           report.ReferenceNumber,
		"category":            report.Category.String(),
		"model_confidence":    report.ModelConfidence,
		"adjusted_confidence": report.Assessment.AdjustedConfidence,
		"correlation":         report.Assessment.ClinicalCorrelation.String(),
		"urgency":             report.Recommendation.Urgency.String(),
		"processing_ms":       report.ProcessingTimeMs,
	}).Info("Analysis completed")

	return report, nil
}

// Evaluate runs the scoring pipeline over an already-obtained prediction.
// It is deterministic and side-effect free: same inputs, same report.
func (s *AnalysisService) Evaluate(prediction domain.ModelPrediction, profile *domain.SymptomProfile, patientAge, medicalHistory string) *domain.AnalysisReport {
	assessment := s.adjuster.Adjust(prediction, profile)
	score := s.symptoms.Score(profile)
	covidRisk := s.covid.Detect(profile)
	tbRisk := s.tb.Detect(profile)
	alert := s.alerter.Validate(prediction.Category, covidRisk, tbRisk)
	recommendation := s.recommender.Build(prediction.Category, assessment.AdjustedConfidence*100, profile, patientAge, medicalHistory)
	summary := s.summarizer.Summarize(profile)

	return &domain.AnalysisReport{
		Category:        prediction.Category,
		ModelConfidence: prediction.Confidence,
		Assessment:      assessment,
		SymptomScore:    score,
		CovidRisk:       covidRisk,
		TBRisk:          tbRisk,
		Alert:           alert,
		Recommendation:  recommendation,
		ClinicalSummary: summary,
	}
}

// GetReport retrieves a finished report by reference number, first from the
// in-process cache, then from the repository.
func (s *AnalysisService) GetReport(ctx context.Context, reference string) (*domain.AnalysisReport, error) {
	if report, ok := s.reports.Get(reference); ok {
		return report, nil
	}
	if s.repo == nil {
		return nil, domain.ErrNotFound
	}

	record, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	var report domain.AnalysisReport
	if err := json.Unmarshal(record.Report, &report); err != nil {
		return nil, fmt.Errorf("decode stored report %s: %w", reference, err)
	}
	s.reports.Add(reference, &report)
	return &report, nil
}

// ScoreSymptoms runs the symptom scorer on its own, without imaging input.
func (s *AnalysisService) ScoreSymptoms(profile *domain.SymptomProfile) domain.ScoreResult {
	return s.symptoms.Score(profile)
}

// AssessRisks runs the COVID and TB screens on their own.
func (s *AnalysisService) AssessRisks(profile *domain.SymptomProfile) (covid, tb domain.RiskAssessment) {
	return s.covid.Detect(profile), s.tb.Detect(profile)
}

// Recommend builds clinical guidance for a category without running the
// classifier. Confidence is on the 0-100 scale.
func (s *AnalysisService) Recommend(category domain.Category, confidence float64, profile *domain.SymptomProfile, patientAge, medicalHistory string) domain.ClinicalRecommendation {
	return s.recommender.Build(category, confidence, profile, patientAge, medicalHistory)
}

// ListRecent returns the most recent persisted analyses.
func (s *AnalysisService) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListRecent(ctx, limit)
}

// Stats returns the number of persisted analyses per diagnostic category.
// Without a repository every count is zero.
func (s *AnalysisService) Stats(ctx context.Context) (map[domain.Category]int64, error) {
	if s.repo == nil {
		return map[domain.Category]int64{}, nil
	}
	return s.repo.CountByCategory(ctx)
}

// PruneReports removes persisted analyses older than the retention horizon
// and returns how many were removed. In-process cache entries are left to
// age out through LRU eviction.
func (s *AnalysisService) PruneReports(ctx context.Context, retentionDays int) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	removed, err := s.repo.DeleteOlderThan(ctx, retentionDays)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"retention_days": retentionDays,
			"removed":        removed,
		}).Info("Expired analyses pruned")
	}
	return removed, nil
}

func (s *AnalysisService) persist(ctx context.Context, report *domain.AnalysisReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	record := &domain.AnalysisRecord{
		ID:                 uuid.New().String(),
		ReferenceNumber:    report.ReferenceNumber,
		Category:           report.Category,
		ModelConfidence:    report.ModelConfidence,
		AdjustedConfidence: report.Assessment.AdjustedConfidence,
		Correlation:        report.Assessment.ClinicalCorrelation,
		CovidRiskLevel:     report.CovidRisk.RiskLevel,
		TBRiskLevel:        report.TBRisk.RiskLevel,
		AlertLevel:         report.Alert.AlertLevel,
		Urgency:            report.Recommendation.Urgency,
		Report:             payload,
		CreatedAt:          report.CreatedAt,
	}
	return s.repo.Create(ctx, record)
}

// newReferenceNumber mints the clinician-facing reference for one analysis,
// e.g. XR-1756512000000. Millisecond granularity matches the upstream
// reporting convention.
func newReferenceNumber() string {
	return "XR-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
