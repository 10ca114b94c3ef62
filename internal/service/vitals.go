package service

import "github.com/pneumonia-cds-server/internal/domain"

// VitalSignsScorer converts raw vital signs into a bounded severity score
// plus viral/bacterial sub-indicator points. Each vital contributes at most
// once; the rules are independently additive.
type VitalSignsScorer struct{}

// NewVitalSignsScorer creates a new vital-signs scorer.
func NewVitalSignsScorer() *VitalSignsScorer {
	return &VitalSignsScorer{}
}

// Vital-sign severity bands on the summed score.
const (
	vitalSevereThreshold   = 40
	vitalModerateThreshold = 25
	vitalMildThreshold     = 10
)

// Score evaluates the vital signs. A nil VitalSigns yields the zero/normal
// result; "not measured" must not be conflated with "measured within normal
// range", so every rule fires only when its field is present.
func (s *VitalSignsScorer) Score(vitals *domain.VitalSigns) domain.VitalSignsResult {
	if vitals == nil {
		return domain.VitalSignsResult{Severity: domain.SeverityNormal}
	}

	var score, viral, bacterial float64

	// Temperature: high fever points bacterial, moderate fever points viral.
	if vitals.Temperature != nil {
		switch t := *vitals.Temperature; {
		case t >= 39:
			score += 15
			bacterial += 8
		case t >= 38:
			score += 10
			viral += 3
		case t >= 37.5:
			score += 5
		}
	}

	// Oxygen saturation (hypoxemia). <90% is critical.
	if vitals.OxygenSaturation != nil {
		switch o2 := *vitals.OxygenSaturation; {
		case o2 < 90:
			score += 20
		case o2 < 94:
			score += 12
		case o2 < 96:
			score += 6
		}
	}

	// Respiratory rate (tachypnea).
	if vitals.RespiratoryRate != nil {
		switch rr := *vitals.RespiratoryRate; {
		case rr > 30:
			score += 15
		case rr > 24:
			score += 10
		case rr > 20:
			score += 5
		}
	}

	// Heart rate (tachycardia).
	if vitals.HeartRate != nil {
		switch hr := *vitals.HeartRate; {
		case hr > 120:
			score += 8
		case hr > 100:
			score += 5
		}
	}

	severity := domain.SeverityNormal
	switch {
	case score >= vitalSevereThreshold:
		severity = domain.SeveritySevere
	case score >= vitalModerateThreshold:
		severity = domain.SeverityModerate
	case score >= vitalMildThreshold:
		severity = domain.SeverityMild
	}

	return domain.VitalSignsResult{
		Score:          score,
		Severity:       severity,
		ViralScore:     viral,
		BacterialScore: bacterial,
	}
}
