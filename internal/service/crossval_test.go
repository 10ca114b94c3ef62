package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pneumonia-cds-server/internal/domain"
)

func highRisk(indicators ...string) domain.RiskAssessment {
	return domain.RiskAssessment{RiskScore: 55, RiskLevel: domain.RiskHigh, Indicators: indicators}
}

func moderateRisk(indicators ...string) domain.RiskAssessment {
	return domain.RiskAssessment{RiskScore: 18, RiskLevel: domain.RiskModerate, Indicators: indicators}
}

func lowRisk() domain.RiskAssessment {
	return domain.RiskAssessment{RiskScore: 0, RiskLevel: domain.RiskLow, Indicators: []string{}}
}

func TestCrossValidationAlerter_NoAlert(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	alert := alerter.Validate(domain.BACTERIAL_PNEUMONIA, lowRisk(), lowRisk())

	assert.False(t, alert.HasAlert)
	assert.Equal(t, domain.AlertInfo, alert.AlertLevel)
	assert.Empty(t, alert.AlertMessage)
	assert.NotNil(t, alert.RecommendedActions)
	assert.Empty(t, alert.RecommendedActions)
}

func TestCrossValidationAlerter_CovidConfirmed(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	alert := alerter.Validate(domain.COVID, highRisk("Loss of taste/smell (80% specific to COVID-19)"), lowRisk())

	assert.True(t, alert.HasAlert)
	assert.Equal(t, domain.AlertCritical, alert.AlertLevel)
	assert.Contains(t, alert.AlertMessage, "COVID-19 DETECTED")
	assert.Contains(t, alert.AlertMessage, "Loss of taste/smell")
	assert.Contains(t, alert.RecommendedActions, "Isolate patient immediately")
}

func TestCrossValidationAlerter_TBConfirmed(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	alert := alerter.Validate(domain.TB, lowRisk(), highRisk("Drenching night sweats (90% specific to TB)"))

	assert.True(t, alert.HasAlert)
	assert.Equal(t, domain.AlertCritical, alert.AlertLevel)
	assert.Contains(t, alert.AlertMessage, "TUBERCULOSIS DETECTED")
	assert.Contains(t, alert.RecommendedActions, "IMMEDIATE respiratory isolation")
}

func TestCrossValidationAlerter_CovidContradiction(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	alert := alerter.Validate(domain.NORMAL, highRisk("Known COVID-19 exposure or contact"), lowRisk())

	assert.True(t, alert.HasAlert)
	assert.Equal(t, domain.AlertCritical, alert.AlertLevel)
	assert.Contains(t, alert.AlertMessage, "COVID-19 SUSPECTED despite imaging showing NORMAL")
	assert.Contains(t, alert.RecommendedActions, "Do NOT rule out COVID based on X-ray alone")
}

func TestCrossValidationAlerter_TBContradiction(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	alert := alerter.Validate(domain.VIRAL_PNEUMONIA, lowRisk(), highRisk("Hemoptysis (coughing blood - highly suspicious for TB)"))

	assert.True(t, alert.HasAlert)
	assert.Equal(t, domain.AlertCritical, alert.AlertLevel)
	assert.Contains(t, alert.AlertMessage, "TUBERCULOSIS SUSPECTED despite imaging showing VIRAL_PNEUMONIA")
	assert.Contains(t, alert.RecommendedActions, "Do NOT rule out TB based on X-ray alone")
}

func TestCrossValidationAlerter_ModerateWarnings(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	t.Run("moderate covid risk", func(t *testing.T) {
		alert := alerter.Validate(domain.NORMAL, moderateRisk("Known COVID-19 exposure or contact"), lowRisk())

		assert.True(t, alert.HasAlert)
		assert.Equal(t, domain.AlertWarning, alert.AlertLevel)
		assert.Contains(t, alert.AlertMessage, "Moderate COVID-19 risk")
	})

	t.Run("moderate tb risk", func(t *testing.T) {
		alert := alerter.Validate(domain.NORMAL, lowRisk(), moderateRisk("Unintentional weight loss"))

		assert.True(t, alert.HasAlert)
		assert.Equal(t, domain.AlertWarning, alert.AlertLevel)
		assert.Contains(t, alert.AlertMessage, "Moderate TB risk")
	})
}

// The rules are priority-ordered; a single Validate call returns exactly one
// alert even when several rules would match.
func TestCrossValidationAlerter_Priority(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	t.Run("covid confirmation outranks tb contradiction", func(t *testing.T) {
		alert := alerter.Validate(domain.COVID, highRisk("Loss of taste/smell (80% specific to COVID-19)"), highRisk("Drenching night sweats (90% specific to TB)"))

		assert.Contains(t, alert.AlertMessage, "COVID-19 DETECTED")
	})

	t.Run("covid contradiction outranks tb contradiction", func(t *testing.T) {
		alert := alerter.Validate(domain.NORMAL, highRisk("Known COVID-19 exposure or contact"), highRisk("Drenching night sweats (90% specific to TB)"))

		assert.Contains(t, alert.AlertMessage, "COVID-19 SUSPECTED")
	})

	t.Run("elevated contradiction outranks moderate warning", func(t *testing.T) {
		alert := alerter.Validate(domain.NORMAL, moderateRisk("Known COVID-19 exposure or contact"), highRisk("Hemoptysis (coughing blood - highly suspicious for TB)"))

		assert.Equal(t, domain.AlertCritical, alert.AlertLevel)
		assert.Contains(t, alert.AlertMessage, "TUBERCULOSIS SUSPECTED")
	})
}

func TestCrossValidationAlerter_VeryHighCountsAsElevated(t *testing.T) {
	alerter := NewCrossValidationAlerter(testLogger())

	veryHigh := domain.RiskAssessment{RiskScore: 75, RiskLevel: domain.RiskVeryHigh, Indicators: []string{"Loss of taste/smell (80% specific to COVID-19)"}}
	alert := alerter.Validate(domain.COVID, veryHigh, lowRisk())

	assert.Equal(t, domain.AlertCritical, alert.AlertLevel)
}
