package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pneumonia-cds-server/internal/domain"
)

func TestSymptomScorer_EmptyProfile(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	result := scorer.Score(&domain.SymptomProfile{})

	assert.Equal(t, 0.0, result.TotalScore)
	assert.Equal(t, 0.0, result.ViralScore)
	assert.Equal(t, 0.0, result.BacterialScore)
	assert.Equal(t, 100.0, result.NormalScore)
	assert.Equal(t, domain.SeverityNone, result.Severity)
	assert.Equal(t, 0, result.PrimarySymptomsCount)
}

func TestSymptomScorer_NilProfile(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	result := scorer.Score(nil)

	assert.Equal(t, 0.0, result.TotalScore)
	assert.Equal(t, 100.0, result.NormalScore)
	assert.Equal(t, domain.SeverityNone, result.Severity)
}

func TestSymptomScorer_AllPrimarySymptoms(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	result := scorer.Score(&domain.SymptomProfile{
		Fever:               true,
		PersistentCough:     true,
		ChestPain:           true,
		DifficultyBreathing: true,
	})

	// 15 + 12 + 10 + 15
	assert.Equal(t, 52.0, result.TotalScore)
	assert.Equal(t, 48.0, result.NormalScore)
	assert.Equal(t, domain.SeverityModerate, result.Severity)
	assert.Equal(t, 4, result.PrimarySymptomsCount)
}

func TestSymptomScorer_SeverityBands(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	tests := []struct {
		name         string
		profile      domain.SymptomProfile
		wantScore    float64
		wantSeverity domain.Severity
	}{
		{
			name: "mild boundary at 30",
			profile: domain.SymptomProfile{
				Fever:           true, // 15
				PersistentCough: true, // 12
				Headache:        true, // 3
			},
			wantScore:    30,
			wantSeverity: domain.SeverityMild,
		},
		{
			name: "just below mild band",
			profile: domain.SymptomProfile{
				Fever:           true, // 15
				PersistentCough: true, // 12
			},
			wantScore:    27,
			wantSeverity: domain.SeverityNone,
		},
		{
			name: "severe presentation",
			profile: domain.SymptomProfile{
				Fever:               true, // 15
				PersistentCough:     true, // 12
				ChestPain:           true, // 10
				DifficultyBreathing: true, // 15
				CracklingSounds:     true, // 10
				YellowGreenSputum:   true, // 8
			},
			wantScore:    70,
			wantSeverity: domain.SeveritySevere,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(&tt.profile)

			assert.Equal(t, tt.wantScore, result.TotalScore)
			assert.Equal(t, tt.wantSeverity, result.Severity)
			assert.Equal(t, 100-tt.wantScore, result.NormalScore)
		})
	}
}

func TestSymptomScorer_ViralBacterialIndicators(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	tests := []struct {
		name          string
		profile       domain.SymptomProfile
		wantTotal     float64
		wantViral     float64
		wantBacterial float64
	}{
		{
			name: "bacterial pattern",
			profile: domain.SymptomProfile{
				SuddenOnset:       true, // 7 total, 7 bacterial
				ProductiveCough:   true, // 6 total, 6 bacterial
				YellowGreenSputum: true, // 8 total, 8 bacterial
				ChillsAndShaking:  true, // 6 total, 6 bacterial
			},
			wantTotal:     27,
			wantViral:     0,
			wantBacterial: 27,
		},
		{
			name: "viral pattern",
			profile: domain.SymptomProfile{
				GradualOnset:    true, // 4 total, 5 viral
				DryHackingCough: true, // 0 total, 5 viral
				MuscleAches:     true, // 4 total, 4 viral
				SoreThroat:      true, // 0 total, 4 viral
			},
			wantTotal:     8,
			wantViral:     18,
			wantBacterial: 0,
		},
		{
			name: "differentiators only shift sub-scores",
			profile: domain.SymptomProfile{
				DryHackingCough: true,
				SoreThroat:      true,
				ClearSputum:     true,
			},
			wantTotal:     0,
			wantViral:     12,
			wantBacterial: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(&tt.profile)

			assert.Equal(t, tt.wantTotal, result.TotalScore)
			assert.Equal(t, tt.wantViral, result.ViralScore)
			assert.Equal(t, tt.wantBacterial, result.BacterialScore)
		})
	}
}

func TestSymptomScorer_TotalClampedAt100(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	profile := domain.SymptomProfile{
		Fever: true, PersistentCough: true, ChestPain: true, DifficultyBreathing: true,
		Fatigue: true, RapidBreathing: true, CracklingSounds: true,
		ProductiveCough: true, YellowGreenSputum: true, BloodInSputum: true,
		SuddenOnset: true, ChillsAndShaking: true, Confusion: true,
		RecentColdFlu: true, WeakenedImmuneSystem: true, Smoker: true,
		Age65Plus: true, ChronicLungDisease: true, HeartDisease: true, Diabetes: true,
		VitalSigns: &domain.VitalSigns{
			Temperature:      fptr(40.1),
			OxygenSaturation: fptr(85),
			RespiratoryRate:  fptr(36),
			HeartRate:        fptr(135),
		},
	}

	result := scorer.Score(&profile)

	assert.Equal(t, 100.0, result.TotalScore)
	assert.Equal(t, 0.0, result.NormalScore)
	assert.Equal(t, domain.SeveritySevere, result.Severity)
}

func TestSymptomScorer_VitalSignsContribute(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	withVitals := scorer.Score(&domain.SymptomProfile{
		Fever:      true,
		VitalSigns: &domain.VitalSigns{OxygenSaturation: fptr(88)},
	})
	withoutVitals := scorer.Score(&domain.SymptomProfile{Fever: true})

	assert.Equal(t, withoutVitals.TotalScore+20, withVitals.TotalScore)
}

// Flipping any single symptom flag must never decrease the total score.
func TestSymptomScorer_Monotonicity(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	base := domain.SymptomProfile{Fever: true, PersistentCough: true}
	baseScore := scorer.Score(&base).TotalScore

	flips := map[string]func(p *domain.SymptomProfile){
		"chestPain":           func(p *domain.SymptomProfile) { p.ChestPain = true },
		"difficultyBreathing": func(p *domain.SymptomProfile) { p.DifficultyBreathing = true },
		"fatigue":             func(p *domain.SymptomProfile) { p.Fatigue = true },
		"rapidBreathing":      func(p *domain.SymptomProfile) { p.RapidBreathing = true },
		"cracklingSounds":     func(p *domain.SymptomProfile) { p.CracklingSounds = true },
		"productiveCough":     func(p *domain.SymptomProfile) { p.ProductiveCough = true },
		"dryHackingCough":     func(p *domain.SymptomProfile) { p.DryHackingCough = true },
		"clearSputum":         func(p *domain.SymptomProfile) { p.ClearSputum = true },
		"yellowGreenSputum":   func(p *domain.SymptomProfile) { p.YellowGreenSputum = true },
		"bloodInSputum":       func(p *domain.SymptomProfile) { p.BloodInSputum = true },
		"suddenOnset":         func(p *domain.SymptomProfile) { p.SuddenOnset = true },
		"gradualOnset":        func(p *domain.SymptomProfile) { p.GradualOnset = true },
		"muscleAches":         func(p *domain.SymptomProfile) { p.MuscleAches = true },
		"chillsAndShaking":    func(p *domain.SymptomProfile) { p.ChillsAndShaking = true },
		"headache":            func(p *domain.SymptomProfile) { p.Headache = true },
		"soreThroat":          func(p *domain.SymptomProfile) { p.SoreThroat = true },
		"confusion":           func(p *domain.SymptomProfile) { p.Confusion = true },
		"recentColdFlu":       func(p *domain.SymptomProfile) { p.RecentColdFlu = true },
		"weakenedImmune":      func(p *domain.SymptomProfile) { p.WeakenedImmuneSystem = true },
		"smoker":              func(p *domain.SymptomProfile) { p.Smoker = true },
		"age65Plus":           func(p *domain.SymptomProfile) { p.Age65Plus = true },
		"ageUnder5":           func(p *domain.SymptomProfile) { p.AgeUnder5 = true },
		"chronicLungDisease":  func(p *domain.SymptomProfile) { p.ChronicLungDisease = true },
		"heartDisease":        func(p *domain.SymptomProfile) { p.HeartDisease = true },
		"diabetes":            func(p *domain.SymptomProfile) { p.Diabetes = true },
	}

	for name, flip := range flips {
		t.Run(name, func(t *testing.T) {
			profile := base
			flip(&profile)
			assert.GreaterOrEqual(t, scorer.Score(&profile).TotalScore, baseScore)
		})
	}
}

func TestSymptomScorer_Deterministic(t *testing.T) {
	scorer := NewSymptomScorer(testLogger())

	profile := domain.SymptomProfile{
		Fever:           true,
		ProductiveCough: true,
		SuddenOnset:     true,
		VitalSigns:      &domain.VitalSigns{Temperature: fptr(39.2)},
	}

	first := scorer.Score(&profile)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score(&profile))
	}
}
