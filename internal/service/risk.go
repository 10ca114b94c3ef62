package service

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// COVID-19 signature weights. Loss of taste/smell is the single most
// specific finding; silent hypoxia fires only when oxygen saturation is low
// despite a minimal symptom burden.
const (
	covidWeightLossOfTasteSmell      = 30
	covidWeightKnownExposure         = 15
	covidWeightSuddenSevereBreathing = 10
	covidWeightSilentHypoxia         = 12
)

// TB signature weights. Cough duration scales per week past the 3-week
// clinical TB-suspect cutoff.
const (
	tbWeightNightSweats          = 25
	tbWeightWeightLoss           = 20
	tbWeightHemoptysis           = 25
	tbWeightChronicCoughPerWeek  = 5
	tbWeightEndemicTravel        = 10
	tbWeightHIVImmunocompromised = 15
	tbWeightCloseContact         = 20

	tbChronicCoughMinWeeks = 3
	tbChronicCoughMinDays  = 21
)

// CovidRiskDetector scans a symptom profile for COVID-19 signature
// findings and produces a risk score, level and indicator list.
type CovidRiskDetector struct {
	logger *logrus.Logger
}

// NewCovidRiskDetector creates a new COVID-19 risk detector.
func NewCovidRiskDetector(logger *logrus.Logger) *CovidRiskDetector {
	return &CovidRiskDetector{logger: logger}
}

// Detect evaluates the COVID-19 signature rules in fixed order; each fired
// rule appends its explanation to the indicator list.
func (d *CovidRiskDetector) Detect(profile *domain.SymptomProfile) domain.RiskAssessment {
	if profile == nil {
		profile = &domain.SymptomProfile{}
	}

	var score float64
	indicators := []string{}

	if profile.LossOfTasteSmell {
		score += covidWeightLossOfTasteSmell
		indicators = append(indicators, "Loss of taste/smell (80% specific to COVID-19)")
	}

	if profile.KnownCovidExposure {
		score += covidWeightKnownExposure
		indicators = append(indicators, "Known COVID-19 exposure or contact")
	}

	if profile.SuddenSevereBreathing {
		score += covidWeightSuddenSevereBreathing
		indicators = append(indicators, "Sudden severe breathing difficulty")
	}

	// Silent hypoxia: low O2 despite minimal symptoms. A COVID-specific
	// presentation, not generic hypoxia, so the rule requires the absence
	// of fever, cough and breathing difficulty.
	if profile.VitalSigns != nil && profile.VitalSigns.OxygenSaturation != nil && *profile.VitalSigns.OxygenSaturation < 94 {
		if !profile.Fever && !profile.PersistentCough && !profile.DifficultyBreathing {
			score += covidWeightSilentHypoxia
			indicators = append(indicators, "Silent hypoxia (low O2 saturation <94% with minimal symptoms - classic COVID sign)")
		}
	}

	level := domain.RiskLow
	switch {
	case score >= 40:
		level = domain.RiskVeryHigh
	case score >= 25:
		level = domain.RiskHigh
	case score >= 15:
		level = domain.RiskModerate
	}

	d.logger.WithFields(logrus.Fields{
		"disease":    "covid",
		"risk_score": score,
		"risk_level": level.String(),
		"indicators": len(indicators),
	}).Debug("Disease risk screened")

	return domain.RiskAssessment{RiskScore: score, RiskLevel: level, Indicators: indicators}
}

// TBRiskDetector scans a symptom profile for tuberculosis signature
// findings and produces a risk score, level and indicator list.
type TBRiskDetector struct {
	logger *logrus.Logger
}

// NewTBRiskDetector creates a new tuberculosis risk detector.
func NewTBRiskDetector(logger *logrus.Logger) *TBRiskDetector {
	return &TBRiskDetector{logger: logger}
}

// Detect evaluates the TB signature rules in fixed order. The chronic-cough
// term is computed from chronicCoughWeeks when present, otherwise derived
// from symptomDuration when chronicCough is set and the duration crosses the
// 3-week cutoff.
func (d *TBRiskDetector) Detect(profile *domain.SymptomProfile) domain.RiskAssessment {
	if profile == nil {
		profile = &domain.SymptomProfile{}
	}

	var score float64
	indicators := []string{}

	if profile.NightSweats {
		score += tbWeightNightSweats
		indicators = append(indicators, "Drenching night sweats (90% specific to TB)")
	}

	if profile.WeightLoss || profile.UnintentionalWeightLoss {
		score += tbWeightWeightLoss
		indicators = append(indicators, "Unintentional weight loss")
	}

	if profile.Hemoptysis || profile.BloodInSputum {
		score += tbWeightHemoptysis
		indicators = append(indicators, "Hemoptysis (coughing blood - highly suspicious for TB)")
	}

	if profile.ChronicCoughWeeks != nil && *profile.ChronicCoughWeeks >= tbChronicCoughMinWeeks {
		weeks := *profile.ChronicCoughWeeks
		score += tbWeightChronicCoughPerWeek * weeks
		indicators = append(indicators, fmt.Sprintf("Chronic cough for %g weeks (>3 weeks = TB suspect)", weeks))
	} else if profile.ChronicCough && profile.SymptomDuration != nil && *profile.SymptomDuration >= tbChronicCoughMinDays {
		weeks := math.Floor(*profile.SymptomDuration / 7)
		score += tbWeightChronicCoughPerWeek * weeks
		indicators = append(indicators, fmt.Sprintf("Chronic cough for ~%g weeks", weeks))
	}

	if profile.TravelToTBEndemicArea {
		score += tbWeightEndemicTravel
		indicators = append(indicators, "Travel to TB-endemic area")
	}

	if profile.HIVPositiveOrImmunocompromised {
		score += tbWeightHIVImmunocompromised
		indicators = append(indicators, "HIV+ or immunocompromised (high TB risk)")
	}

	if profile.CloseContactWithTBPatient {
		score += tbWeightCloseContact
		indicators = append(indicators, "Close contact with TB patient")
	}

	level := domain.RiskLow
	switch {
	case score >= 50:
		level = domain.RiskVeryHigh
	case score >= 30:
		level = domain.RiskHigh
	case score >= 15:
		level = domain.RiskModerate
	}

	d.logger.WithFields(logrus.Fields{
		"disease":    "tb",
		"risk_score": score,
		"risk_level": level.String(),
		"indicators": len(indicators),
	}).Debug("Disease risk screened")

	return domain.RiskAssessment{RiskScore: score, RiskLevel: level, Indicators: indicators}
}
