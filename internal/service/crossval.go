package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// CrossValidationAlerter compares the imaging category against the disease
// risk screens and raises a ranked alert when they disagree or jointly
// confirm a high-risk condition.
//
// The rules are priority-ordered and evaluated first-match-wins; they are
// not independent OR conditions. Confirmation outranks contradiction,
// contradiction outranks moderate-risk warnings.
type CrossValidationAlerter struct {
	logger *logrus.Logger
}

// NewCrossValidationAlerter creates a new cross-validation alerter.
func NewCrossValidationAlerter(logger *logrus.Logger) *CrossValidationAlerter {
	return &CrossValidationAlerter{logger: logger}
}

// alertRule is one entry in the ordered rule list.
type alertRule struct {
	name    string
	matches func() bool
	build   func() domain.CrossValidationAlert
}

// Validate evaluates the ordered alert rules for the given category and
// risk screens. When no rule matches, the returned alert has HasAlert=false
// and AlertLevel=INFO.
func (a *CrossValidationAlerter) Validate(category domain.Category, covid, tb domain.RiskAssessment) domain.CrossValidationAlert {
	rules := []alertRule{
		{
			name:    "covid_confirmed",
			matches: func() bool { return category == domain.COVID && covid.RiskLevel.IsElevated() },
			build: func() domain.CrossValidationAlert {
				return domain.CrossValidationAlert{
					HasAlert:   true,
					AlertLevel: domain.AlertCritical,
					AlertMessage: fmt.Sprintf(
						"COVID-19 DETECTED - High clinical correlation\n\nImaging: COVID-19 pneumonia pattern\nSymptoms: %s",
						strings.Join(covid.Indicators, ", ")),
					RecommendedActions: []string{
						"PCR test for confirmation",
						"Isolate patient immediately",
						"Contact tracing",
						"Follow COVID-19 protocol",
					},
				}
			},
		},
		{
			name:    "tb_confirmed",
			matches: func() bool { return category == domain.TB && tb.RiskLevel.IsElevated() },
			build: func() domain.CrossValidationAlert {
				return domain.CrossValidationAlert{
					HasAlert:   true,
					AlertLevel: domain.AlertCritical,
					AlertMessage: fmt.Sprintf(
						"TUBERCULOSIS DETECTED - High clinical correlation\n\nImaging: TB pattern\nSymptoms: %s",
						strings.Join(tb.Indicators, ", ")),
					RecommendedActions: []string{
						"IMMEDIATE respiratory isolation",
						"Sputum AFB smear x3",
						"GeneXpert/TB PCR",
						"Notify public health department",
						"Contact tracing",
						"HIV test if status unknown",
					},
				}
			},
		},
		{
			name:    "covid_contradiction",
			matches: func() bool { return category != domain.COVID && covid.RiskLevel.IsElevated() },
			build: func() domain.CrossValidationAlert {
				return domain.CrossValidationAlert{
					HasAlert:   true,
					AlertLevel: domain.AlertCritical,
					AlertMessage: fmt.Sprintf(
						"COVID-19 SUSPECTED despite imaging showing %s\n\nWARNING: Early COVID may have normal or minimal X-ray changes!\n\nSymptoms: %s",
						category, strings.Join(covid.Indicators, ", ")),
					RecommendedActions: []string{
						"COVID PCR test IMMEDIATELY",
						"Isolate patient as precaution",
						"Do NOT rule out COVID based on X-ray alone",
						"Consider CT chest if PCR positive",
						"Repeat X-ray in 24-48h if symptoms worsen",
					},
				}
			},
		},
		{
			name:    "tb_contradiction",
			matches: func() bool { return category != domain.TB && tb.RiskLevel.IsElevated() },
			build: func() domain.CrossValidationAlert {
				return domain.CrossValidationAlert{
					HasAlert:   true,
					AlertLevel: domain.AlertCritical,
					AlertMessage: fmt.Sprintf(
						"TUBERCULOSIS SUSPECTED despite imaging showing %s\n\nWARNING: Early TB or extrapulmonary TB may have normal/minimal X-ray!\n\nSymptoms: %s",
						category, strings.Join(tb.Indicators, ", ")),
					RecommendedActions: []string{
						"TB workup REQUIRED (Sputum AFB, GeneXpert)",
						"Clinical evaluation for TB",
						"Consider CT chest for better sensitivity",
						"HIV testing if status unknown",
						"TB skin test or IGRA",
						"Do NOT rule out TB based on X-ray alone",
					},
				}
			},
		},
		{
			name:    "covid_moderate",
			matches: func() bool { return covid.RiskLevel == domain.RiskModerate },
			build: func() domain.CrossValidationAlert {
				return domain.CrossValidationAlert{
					HasAlert:   true,
					AlertLevel: domain.AlertWarning,
					AlertMessage: fmt.Sprintf(
						"Moderate COVID-19 risk detected\n\nSymptoms: %s",
						strings.Join(covid.Indicators, ", ")),
					RecommendedActions: []string{
						"Consider COVID PCR test",
						"Monitor symptoms closely",
						"Follow up in 24-48 hours",
					},
				}
			},
		},
		{
			name:    "tb_moderate",
			matches: func() bool { return tb.RiskLevel == domain.RiskModerate },
			build: func() domain.CrossValidationAlert {
				return domain.CrossValidationAlert{
					HasAlert:   true,
					AlertLevel: domain.AlertWarning,
					AlertMessage: fmt.Sprintf(
						"Moderate TB risk detected\n\nSymptoms: %s",
						strings.Join(tb.Indicators, ", ")),
					RecommendedActions: []string{
						"Consider TB screening (sputum AFB, TB skin test)",
						"Clinical evaluation",
						"Monitor for worsening symptoms",
					},
				}
			},
		},
	}

	for _, rule := range rules {
		if rule.matches() {
			alert := rule.build()
			a.logger.WithFields(logrus.Fields{
				"rule":        rule.name,
				"category":    category.String(),
				"covid_risk":  covid.RiskLevel.String(),
				"tb_risk":     tb.RiskLevel.String(),
				"alert_level": alert.AlertLevel.String(),
			}).Warn("Cross-validation alert raised")
			return alert
		}
	}

	return domain.CrossValidationAlert{
		HasAlert:           false,
		AlertLevel:         domain.AlertInfo,
		RecommendedActions: []string{},
	}
}
