package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pneumonia-cds-server/internal/domain"
)

func newAdjuster() *ConfidenceAdjuster {
	logger := testLogger()
	return NewConfidenceAdjuster(NewSymptomScorer(logger), logger)
}

func TestConfidenceAdjuster_NormalScan(t *testing.T) {
	adjuster := newAdjuster()

	tests := []struct {
		name            string
		confidence      float64
		profile         domain.SymptomProfile
		wantCorrelation domain.CorrelationLevel
		wantAdjusted    float64
	}{
		{
			name:            "minimal symptoms boost confidence",
			confidence:      0.90,
			profile:         domain.SymptomProfile{},
			wantCorrelation: domain.CorrelationStrong,
			wantAdjusted:    0.95,
		},
		{
			name:            "boost capped at 0.98",
			confidence:      0.97,
			profile:         domain.SymptomProfile{},
			wantCorrelation: domain.CorrelationStrong,
			wantAdjusted:    0.98,
		},
		{
			name:       "some symptoms lower confidence",
			confidence: 0.90,
			profile: domain.SymptomProfile{
				Fever:           true, // 15
				PersistentCough: true, // 12
				Headache:        true, // 3, total 30
			},
			wantCorrelation: domain.CorrelationModerate,
			wantAdjusted:    0.85,
		},
		{
			name:       "moderate penalty floored at 0.60",
			confidence: 0.62,
			profile: domain.SymptomProfile{
				Fever:           true,
				PersistentCough: true,
				Headache:        true,
			},
			wantCorrelation: domain.CorrelationModerate,
			wantAdjusted:    0.60,
		},
		{
			name:       "significant symptoms conflict with normal scan",
			confidence: 0.90,
			profile: domain.SymptomProfile{
				Fever:               true,
				PersistentCough:     true,
				ChestPain:           true,
				DifficultyBreathing: true, // total 52
			},
			wantCorrelation: domain.CorrelationConflicting,
			wantAdjusted:    0.75,
		},
		{
			name:       "conflict penalty floored at 0.50",
			confidence: 0.55,
			profile: domain.SymptomProfile{
				Fever:               true,
				PersistentCough:     true,
				ChestPain:           true,
				DifficultyBreathing: true,
			},
			wantCorrelation: domain.CorrelationConflicting,
			wantAdjusted:    0.50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := adjuster.Adjust(domain.ModelPrediction{
				Category:   domain.NORMAL,
				Confidence: tt.confidence,
			}, &tt.profile)

			assert.Equal(t, tt.wantCorrelation, result.ClinicalCorrelation)
			assert.InDelta(t, tt.wantAdjusted, result.AdjustedConfidence, 1e-9)
			assert.NotEmpty(t, result.Recommendation)
		})
	}
}

func TestConfidenceAdjuster_BacterialPneumonia(t *testing.T) {
	adjuster := newAdjuster()

	bacterialProfile := domain.SymptomProfile{
		Fever:               true, // 15
		PersistentCough:     true, // 12
		ChestPain:           true, // 10
		DifficultyBreathing: true, // 15
		YellowGreenSputum:   true, // 8, bacterial 8
		ProductiveCough:     true, // 6, bacterial 6
	}

	tests := []struct {
		name            string
		confidence      float64
		profile         domain.SymptomProfile
		wantCorrelation domain.CorrelationLevel
		wantAdjusted    float64
	}{
		{
			name:            "strong correlation boosts proportionally",
			confidence:      0.85,
			profile:         bacterialProfile, // total 66, boost 0.099
			wantCorrelation: domain.CorrelationStrong,
			wantAdjusted:    0.949,
		},
		{
			name:            "strong boost capped at 0.96",
			confidence:      0.95,
			profile:         bacterialProfile,
			wantCorrelation: domain.CorrelationStrong,
			wantAdjusted:    0.96,
		},
		{
			name:       "moderate correlation",
			confidence: 0.80,
			profile: domain.SymptomProfile{
				Fever:             true, // 15
				YellowGreenSputum: true, // 8, bacterial 8, total 23... below 25
				ProductiveCough:   true, // 6, bacterial 6, total 29
			},
			wantCorrelation: domain.CorrelationModerate,
			wantAdjusted:    0.829, // + 29/100*0.10
		},
		{
			name:       "viral-leaning symptoms conflict",
			confidence: 0.85,
			profile: domain.SymptomProfile{
				GradualOnset:    true, // viral 5
				DryHackingCough: true, // viral 5
				MuscleAches:     true, // viral 4
				SoreThroat:      true, // viral 4
			},
			wantCorrelation: domain.CorrelationConflicting,
			wantAdjusted:    0.75,
		},
		{
			name:            "minimally symptomatic weakens confidence",
			confidence:      0.88,
			profile:         domain.SymptomProfile{Fatigue: true}, // total 5
			wantCorrelation: domain.CorrelationWeak,
			wantAdjusted:    0.76,
		},
		{
			name:            "weak penalty floored at 0.55",
			confidence:      0.58,
			profile:         domain.SymptomProfile{},
			wantCorrelation: domain.CorrelationWeak,
			wantAdjusted:    0.55,
		},
		{
			name:       "balanced mid-range stays moderate unadjusted",
			confidence: 0.82,
			profile: domain.SymptomProfile{
				Fever:           true, // 15
				RapidBreathing:  true, // 8, total 23: >=20, no sub-score lean
			},
			wantCorrelation: domain.CorrelationModerate,
			wantAdjusted:    0.82,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := adjuster.Adjust(domain.ModelPrediction{
				Category:   domain.BACTERIAL_PNEUMONIA,
				Confidence: tt.confidence,
			}, &tt.profile)

			assert.Equal(t, tt.wantCorrelation, result.ClinicalCorrelation)
			assert.InDelta(t, tt.wantAdjusted, result.AdjustedConfidence, 1e-9)
		})
	}
}

func TestConfidenceAdjuster_ViralPneumonia(t *testing.T) {
	adjuster := newAdjuster()

	viralProfile := domain.SymptomProfile{
		Fever:               true, // 15
		PersistentCough:     true, // 12
		DifficultyBreathing: true, // 15
		GradualOnset:        true, // 4, viral 5
		DryHackingCough:     true, // viral 5
	}

	tests := []struct {
		name            string
		confidence      float64
		profile         domain.SymptomProfile
		wantCorrelation domain.CorrelationLevel
		wantAdjusted    float64
	}{
		{
			name:            "strong viral correlation",
			confidence:      0.80,
			profile:         viralProfile, // total 46, boost 0.069
			wantCorrelation: domain.CorrelationStrong,
			wantAdjusted:    0.869,
		},
		{
			name:       "bacterial-leaning symptoms conflict",
			confidence: 0.85,
			profile: domain.SymptomProfile{
				SuddenOnset:       true,
				YellowGreenSputum: true,
				ProductiveCough:   true,
			},
			wantCorrelation: domain.CorrelationConflicting,
			wantAdjusted:    0.75,
		},
		{
			name:            "minimally symptomatic",
			confidence:      0.90,
			profile:         domain.SymptomProfile{},
			wantCorrelation: domain.CorrelationWeak,
			wantAdjusted:    0.78,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := adjuster.Adjust(domain.ModelPrediction{
				Category:   domain.VIRAL_PNEUMONIA,
				Confidence: tt.confidence,
			}, &tt.profile)

			assert.Equal(t, tt.wantCorrelation, result.ClinicalCorrelation)
			assert.InDelta(t, tt.wantAdjusted, result.AdjustedConfidence, 1e-9)
		})
	}
}

func TestConfidenceAdjuster_ClampsOutOfRangeConfidence(t *testing.T) {
	adjuster := newAdjuster()

	high := adjuster.Adjust(domain.ModelPrediction{Category: domain.NORMAL, Confidence: 1.7}, &domain.SymptomProfile{})
	assert.LessOrEqual(t, high.AdjustedConfidence, 1.0)
	assert.Equal(t, 1.0, high.ConfidenceBreakdown.ModelConfidence)

	low := adjuster.Adjust(domain.ModelPrediction{Category: domain.BACTERIAL_PNEUMONIA, Confidence: -0.3}, &domain.SymptomProfile{})
	assert.GreaterOrEqual(t, low.AdjustedConfidence, 0.0)
	assert.Equal(t, 0.0, low.ConfidenceBreakdown.ModelConfidence)
}

func TestConfidenceAdjuster_Breakdown(t *testing.T) {
	adjuster := newAdjuster()

	profile := domain.SymptomProfile{
		Fever:               true,
		PersistentCough:     true,
		ChestPain:           true,
		DifficultyBreathing: true,
	}
	result := adjuster.Adjust(domain.ModelPrediction{Category: domain.NORMAL, Confidence: 0.90}, &profile)

	assert.Equal(t, 0.90, result.ConfidenceBreakdown.ModelConfidence)
	assert.InDelta(t, 0.52, result.ConfidenceBreakdown.SymptomContribution, 1e-9)
	assert.InDelta(t, -0.15, result.ConfidenceBreakdown.AdjustmentFactor, 1e-9)
	assert.Equal(t, 52.0, result.SymptomScore)
}

func TestConfidenceAdjuster_OtherCategoriesPassThrough(t *testing.T) {
	adjuster := newAdjuster()

	for _, category := range []domain.Category{domain.COVID, domain.TB, domain.NON_XRAY} {
		result := adjuster.Adjust(domain.ModelPrediction{Category: category, Confidence: 0.77}, &domain.SymptomProfile{})
		assert.Equal(t, 0.77, result.AdjustedConfidence, "category %s", category)
	}
}
