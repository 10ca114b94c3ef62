package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// ConfidenceAdjuster reconciles the image classifier's category and
// confidence with the symptom-derived likelihood, producing an adjusted
// confidence, a clinical-correlation verdict and a rationale.
type ConfidenceAdjuster struct {
	scorer *SymptomScorer
	logger *logrus.Logger
}

// NewConfidenceAdjuster creates a new confidence adjuster.
func NewConfidenceAdjuster(scorer *SymptomScorer, logger *logrus.Logger) *ConfidenceAdjuster {
	return &ConfidenceAdjuster{
		scorer: scorer,
		logger: logger,
	}
}

// Adjust combines the model prediction with the symptom profile. The model
// confidence is clamped into [0,1] before combining, and the adjusted
// confidence is rounded to four decimal places so repeated calls are
// bit-identical.
func (a *ConfidenceAdjuster) Adjust(prediction domain.ModelPrediction, profile *domain.SymptomProfile) domain.AdjustedAssessment {
	scores := a.scorer.Score(profile)
	modelConfidence := clamp01(prediction.Confidence)

	adjusted := modelConfidence
	correlation := domain.CorrelationWeak
	recommendation := ""
	adjustmentFactor := 0.0

	symptomScore := scores.TotalScore

	switch prediction.Category {
	case domain.NORMAL:
		switch {
		case symptomScore < 20:
			// Model says normal, few symptoms: strong agreement.
			correlation = domain.CorrelationStrong
			adjustmentFactor = 0.05
			adjusted = math.Min(0.98, modelConfidence+adjustmentFactor)
			recommendation = "Normal scan with minimal symptoms. Clinical correlation supports normal finding."
		case symptomScore < 40:
			correlation = domain.CorrelationModerate
			adjustmentFactor = -0.05
			adjusted = math.Max(0.60, modelConfidence+adjustmentFactor)
			recommendation = "Normal scan but patient presents with some symptoms. Consider other differential diagnoses or early-stage infection not yet visible on X-ray."
		default:
			// High symptoms but normal scan: potential conflict.
			correlation = domain.CorrelationConflicting
			adjustmentFactor = -0.15
			adjusted = math.Max(0.50, modelConfidence+adjustmentFactor)
			recommendation = "CAUTION: Significant symptoms present but scan appears normal. Recommend clinical correlation, consider repeat imaging in 24-48 hours, or alternative diagnoses."
		}

	case domain.BACTERIAL_PNEUMONIA:
		switch {
		case scores.BacterialScore > scores.ViralScore && symptomScore >= 40:
			correlation = domain.CorrelationStrong
			adjustmentFactor = (symptomScore / 100) * 0.15 // up to 15% boost
			adjusted = math.Min(0.96, modelConfidence+adjustmentFactor)
			recommendation = "Bacterial pneumonia with strong clinical correlation. Symptoms align with imaging findings."
		case scores.BacterialScore > scores.ViralScore && symptomScore >= 25:
			correlation = domain.CorrelationModerate
			adjustmentFactor = (symptomScore / 100) * 0.10
			adjusted = math.Min(0.92, modelConfidence+adjustmentFactor)
			recommendation = "Bacterial pneumonia with moderate symptom correlation. Clinical presentation supports diagnosis."
		case scores.ViralScore > scores.BacterialScore:
			correlation = domain.CorrelationConflicting
			adjustmentFactor = -0.10
			adjusted = math.Max(0.60, modelConfidence-0.10)
			recommendation = "Model suggests bacterial pneumonia but symptoms are more consistent with viral etiology. Consider mixed infection or atypical presentation."
		case symptomScore < 20:
			correlation = domain.CorrelationWeak
			adjustmentFactor = -0.12
			adjusted = math.Max(0.55, modelConfidence-0.12)
			recommendation = "Imaging suggests bacterial pneumonia but patient is minimally symptomatic. Consider subclinical or early-stage infection, or possible false positive."
		default:
			correlation = domain.CorrelationModerate
			recommendation = "Bacterial pneumonia detected. Clinical correlation is moderate."
		}

	case domain.VIRAL_PNEUMONIA:
		switch {
		case scores.ViralScore > scores.BacterialScore && symptomScore >= 40:
			correlation = domain.CorrelationStrong
			adjustmentFactor = (symptomScore / 100) * 0.15
			adjusted = math.Min(0.96, modelConfidence+adjustmentFactor)
			recommendation = "Viral pneumonia with strong clinical correlation. Symptoms align with imaging findings."
		case scores.ViralScore > scores.BacterialScore && symptomScore >= 25:
			correlation = domain.CorrelationModerate
			adjustmentFactor = (symptomScore / 100) * 0.10
			adjusted = math.Min(0.92, modelConfidence+adjustmentFactor)
			recommendation = "Viral pneumonia with moderate symptom correlation. Clinical presentation supports diagnosis."
		case scores.BacterialScore > scores.ViralScore:
			correlation = domain.CorrelationConflicting
			adjustmentFactor = -0.10
			adjusted = math.Max(0.60, modelConfidence-0.10)
			recommendation = "Model suggests viral pneumonia but symptoms are more consistent with bacterial etiology. Consider bacterial superinfection or atypical presentation."
		case symptomScore < 20:
			correlation = domain.CorrelationWeak
			adjustmentFactor = -0.12
			adjusted = math.Max(0.55, modelConfidence-0.12)
			recommendation = "Imaging suggests viral pneumonia but patient is minimally symptomatic. Consider subclinical or resolving infection."
		default:
			correlation = domain.CorrelationModerate
			recommendation = "Viral pneumonia detected. Clinical correlation is moderate."
		}
	}

	assessment := domain.AdjustedAssessment{
		AdjustedConfidence:  round4(clamp01(adjusted)),
		SymptomScore:        symptomScore,
		ClinicalCorrelation: correlation,
		Recommendation:      recommendation,
		ConfidenceBreakdown: domain.ConfidenceBreakdown{
			ModelConfidence:     modelConfidence,
			SymptomContribution: symptomScore / 100,
			AdjustmentFactor:    round4(adjustmentFactor),
		},
	}

	a.logger.WithFields(logrus.Fields{
		"category":            prediction.Category.String(),
		"model_confidence":    modelConfidence,
		"symptom_score":       symptomScore,
		"adjusted_confidence": assessment.AdjustedConfidence,
		"correlation":         correlation.String(),
	}).Info("Confidence adjusted against symptom profile")

	return assessment
}

// clamp01 forces a confidence into [0,1], preserving the output invariant
// even for out-of-range upstream values.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// round4 rounds to four decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
