package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// symptomRule binds one profile field to its pneumonia-likelihood weight
// and its viral/bacterial indicator contribution. Weights follow clinical
// guidelines for community-acquired pneumonia presentation.
type symptomRule struct {
	name      string
	present   func(p *domain.SymptomProfile) bool
	weight    float64
	viral     float64
	bacterial float64
	primary   bool
}

// symptomRules is the global weight table. Scoring is a pure fold over this
// table: summation, not sequential state, so the result is order-independent
// and flipping any single flag to true can never decrease the total.
var symptomRules = []symptomRule{
	// Primary pneumonia symptoms (highest weight)
	{name: "fever", present: func(p *domain.SymptomProfile) bool { return p.Fever }, weight: 15, primary: true},
	{name: "persistentCough", present: func(p *domain.SymptomProfile) bool { return p.PersistentCough }, weight: 12, primary: true},
	{name: "chestPain", present: func(p *domain.SymptomProfile) bool { return p.ChestPain }, weight: 10, primary: true},
	{name: "difficultyBreathing", present: func(p *domain.SymptomProfile) bool { return p.DifficultyBreathing }, weight: 15, primary: true},

	// Secondary symptoms
	{name: "fatigue", present: func(p *domain.SymptomProfile) bool { return p.Fatigue }, weight: 5},
	{name: "rapidBreathing", present: func(p *domain.SymptomProfile) bool { return p.RapidBreathing }, weight: 8},
	{name: "cracklingSounds", present: func(p *domain.SymptomProfile) bool { return p.CracklingSounds }, weight: 10, bacterial: 8},

	// Cough and sputum characteristics
	{name: "productiveCough", present: func(p *domain.SymptomProfile) bool { return p.ProductiveCough }, weight: 6, bacterial: 6},
	{name: "dryHackingCough", present: func(p *domain.SymptomProfile) bool { return p.DryHackingCough }, viral: 5},
	{name: "yellowGreenSputum", present: func(p *domain.SymptomProfile) bool { return p.YellowGreenSputum }, weight: 8, bacterial: 8},
	{name: "bloodInSputum", present: func(p *domain.SymptomProfile) bool { return p.BloodInSputum }, weight: 7, bacterial: 7},
	{name: "clearSputum", present: func(p *domain.SymptomProfile) bool { return p.ClearSputum }, viral: 3},

	// Onset pattern
	{name: "suddenOnset", present: func(p *domain.SymptomProfile) bool { return p.SuddenOnset }, weight: 7, bacterial: 7},
	{name: "gradualOnset", present: func(p *domain.SymptomProfile) bool { return p.GradualOnset }, weight: 4, viral: 5},

	// Associated symptoms
	{name: "chillsAndShaking", present: func(p *domain.SymptomProfile) bool { return p.ChillsAndShaking }, weight: 6, bacterial: 6},
	{name: "muscleAches", present: func(p *domain.SymptomProfile) bool { return p.MuscleAches }, weight: 4, viral: 4},
	{name: "headache", present: func(p *domain.SymptomProfile) bool { return p.Headache }, weight: 3, viral: 3},
	{name: "soreThroat", present: func(p *domain.SymptomProfile) bool { return p.SoreThroat }, viral: 4},
	{name: "confusion", present: func(p *domain.SymptomProfile) bool { return p.Confusion }, weight: 8},

	// Risk factors
	{name: "recentColdFlu", present: func(p *domain.SymptomProfile) bool { return p.RecentColdFlu }, weight: 5},
	{name: "weakenedImmuneSystem", present: func(p *domain.SymptomProfile) bool { return p.WeakenedImmuneSystem }, weight: 7},
	{name: "smoker", present: func(p *domain.SymptomProfile) bool { return p.Smoker }, weight: 3},
	{name: "age65Plus", present: func(p *domain.SymptomProfile) bool { return p.Age65Plus }, weight: 5},
	{name: "ageUnder5", present: func(p *domain.SymptomProfile) bool { return p.AgeUnder5 }, weight: 5},
	{name: "chronicLungDisease", present: func(p *domain.SymptomProfile) bool { return p.ChronicLungDisease }, weight: 6},
	{name: "heartDisease", present: func(p *domain.SymptomProfile) bool { return p.HeartDisease }, weight: 4},
	{name: "diabetes", present: func(p *domain.SymptomProfile) bool { return p.Diabetes }, weight: 3},
}

// Symptom severity bands on the clamped total score.
const (
	symptomSevereThreshold   = 70
	symptomModerateThreshold = 50
	symptomMildThreshold     = 30
)

// SymptomScorer aggregates weighted symptom fields and the vital-signs
// contribution into a total pneumonia-likelihood score with viral/bacterial
// sub-scores and a severity band.
type SymptomScorer struct {
	vitals *VitalSignsScorer
	logger *logrus.Logger
}

// NewSymptomScorer creates a new symptom scorer.
func NewSymptomScorer(logger *logrus.Logger) *SymptomScorer {
	return &SymptomScorer{
		vitals: NewVitalSignsScorer(),
		logger: logger,
	}
}

// Score evaluates the full symptom profile. It is a pure function: same
// profile in, bit-identical result out, with no state carried between calls.
func (s *SymptomScorer) Score(profile *domain.SymptomProfile) domain.ScoreResult {
	if profile == nil {
		profile = &domain.SymptomProfile{}
	}

	var total, viral, bacterial float64
	primaryCount := 0

	vitalsResult := s.vitals.Score(profile.VitalSigns)
	total += vitalsResult.Score
	viral += vitalsResult.ViralScore
	bacterial += vitalsResult.BacterialScore

	for _, rule := range symptomRules {
		if !rule.present(profile) {
			continue
		}
		total += rule.weight
		viral += rule.viral
		bacterial += rule.bacterial
		if rule.primary {
			primaryCount++
		}
	}

	// Normalize to the 0-100 scale; the normal score is its complement.
	if total > 100 {
		total = 100
	}
	normal := 100 - total
	if normal < 0 {
		normal = 0
	}

	severity := domain.SeverityNone
	switch {
	case total >= symptomSevereThreshold:
		severity = domain.SeveritySevere
	case total >= symptomModerateThreshold:
		severity = domain.SeverityModerate
	case total >= symptomMildThreshold:
		severity = domain.SeverityMild
	}

	result := domain.ScoreResult{
		TotalScore:           total,
		ViralScore:           viral,
		BacterialScore:       bacterial,
		NormalScore:          normal,
		Severity:             severity,
		PrimarySymptomsCount: primaryCount,
	}

	s.logger.WithFields(logrus.Fields{
		"total_score":      result.TotalScore,
		"viral_score":      result.ViralScore,
		"bacterial_score":  result.BacterialScore,
		"severity":         result.Severity.String(),
		"primary_symptoms": result.PrimarySymptomsCount,
	}).Debug("Symptom profile scored")

	return result
}
