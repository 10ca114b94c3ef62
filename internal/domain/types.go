// Package domain contains the core value objects for pneumonia clinical
// decision support: the patient symptom profile, the imaging model's verdict,
// and the assessment types produced by the scoring engine.
//
// Everything in this package is a transient, request-scoped value object.
// Nothing here performs I/O and nothing is mutated after construction.
package domain

// Category represents the final diagnostic category being assessed.
// NORMAL, BACTERIAL_PNEUMONIA and VIRAL_PNEUMONIA are produced by the
// external image classifier; COVID, TB and NON_XRAY arise during clinical
// validation of the imaging verdict.
type Category string

const (
	NORMAL              Category = "NORMAL"
	BACTERIAL_PNEUMONIA Category = "BACTERIAL_PNEUMONIA"
	VIRAL_PNEUMONIA     Category = "VIRAL_PNEUMONIA"
	COVID               Category = "COVID"
	TB                  Category = "TB"
	NON_XRAY            Category = "NON_XRAY"
)

// IsValid reports whether the category is one of the closed set of known
// diagnostic categories. Unknown categories are not an error anywhere in the
// engine; they fall through to the defined default handling.
func (c Category) IsValid() bool {
	switch c {
	case NORMAL, BACTERIAL_PNEUMONIA, VIRAL_PNEUMONIA, COVID, TB, NON_XRAY:
		return true
	default:
		return false
	}
}

// String returns the wire representation of the category.
func (c Category) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for clinical reporting.
func (c Category) DisplayName() string {
	switch c {
	case NORMAL:
		return "Normal Findings"
	case BACTERIAL_PNEUMONIA:
		return "Bacterial Pneumonia"
	case VIRAL_PNEUMONIA:
		return "Viral Pneumonia"
	case COVID:
		return "COVID-19 Suspected"
	case TB:
		return "Tuberculosis Suspected"
	case NON_XRAY:
		return "Not a Chest X-Ray"
	default:
		return "Analysis Result"
	}
}

// Severity is the named tier derived from a numeric symptom or vital-sign
// score via fixed thresholds.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// IsValid validates the severity band.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityNormal, SeverityMild, SeverityModerate, SeveritySevere:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity band.
func (s Severity) String() string {
	return string(s)
}

// CorrelationLevel classifies how well symptom-derived likelihood agrees
// with the imaging model's category.
type CorrelationLevel string

const (
	CorrelationStrong      CorrelationLevel = "strong"
	CorrelationModerate    CorrelationLevel = "moderate"
	CorrelationWeak        CorrelationLevel = "weak"
	CorrelationConflicting CorrelationLevel = "conflicting"
)

// IsValid validates the correlation level.
func (cl CorrelationLevel) IsValid() bool {
	switch cl {
	case CorrelationStrong, CorrelationModerate, CorrelationWeak, CorrelationConflicting:
		return true
	default:
		return false
	}
}

// String returns the string representation of the correlation level.
func (cl CorrelationLevel) String() string {
	return string(cl)
}

// RiskLevel represents disease-specific risk derived from signature symptoms.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// IsValid validates the risk level.
func (rl RiskLevel) IsValid() bool {
	switch rl {
	case RiskLow, RiskModerate, RiskHigh, RiskVeryHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level.
func (rl RiskLevel) String() string {
	return string(rl)
}

// IsElevated reports whether the risk level warrants a cross-validation
// alert on its own (HIGH or VERY_HIGH).
func (rl RiskLevel) IsElevated() bool {
	return rl == RiskHigh || rl == RiskVeryHigh
}

// AlertLevel ranks cross-validation alerts.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// IsValid validates the alert level.
func (al AlertLevel) IsValid() bool {
	switch al {
	case AlertInfo, AlertWarning, AlertCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the alert level.
func (al AlertLevel) String() string {
	return string(al)
}

// Urgency ranks clinical recommendations for triage.
type Urgency string

const (
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyModerate Urgency = "MODERATE"
	UrgencyLow      Urgency = "LOW"
)

// IsValid validates the urgency tier.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyModerate, UrgencyLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the urgency tier.
func (u Urgency) String() string {
	return string(u)
}

// LogFields returns structured logging fields for audit trails.
// Assessments that escalate urgency must be traceable in medical software.
func (u Urgency) LogFields() map[string]any {
	return map[string]any{
		"urgency":         string(u),
		"is_valid":        u.IsValid(),
		"requires_action": u.RequiresImmediateAction(),
	}
}

// RequiresImmediateAction determines if the urgency tier requires immediate
// clinical follow-up.
func (u Urgency) RequiresImmediateAction() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh:
		return true
	default:
		return false
	}
}
