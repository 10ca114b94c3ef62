package service

import (
	"fmt"
	"strings"

	"github.com/pneumonia-cds-server/internal/domain"
)

// Summarizer renders a one-paragraph clinical narrative from a symptom
// profile. It reuses the symptom scorer so the narrative always agrees with
// the numeric assessment.
type Summarizer struct {
	scorer *SymptomScorer
	vitals *VitalSignsScorer
}

// NewSummarizer creates a summarizer over the given scorers.
func NewSummarizer(scorer *SymptomScorer, vitals *VitalSignsScorer) *Summarizer {
	return &Summarizer{scorer: scorer, vitals: vitals}
}

// Summarize builds the narrative. A nil profile yields the zero-symptom
// sentence rather than an error.
func (s *Summarizer) Summarize(profile *domain.SymptomProfile) string {
	if profile == nil {
		profile = &domain.SymptomProfile{}
	}
	result := s.scorer.Score(profile)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Patient presents with %d primary pneumonia symptom(s). ", result.PrimarySymptomsCount)

	switch result.Severity {
	case domain.SeveritySevere:
		sb.WriteString("Symptom severity: SEVERE. ")
	case domain.SeverityModerate:
		sb.WriteString("Symptom severity: MODERATE. ")
	case domain.SeverityMild:
		sb.WriteString("Symptom severity: MILD. ")
	}

	if result.BacterialScore > result.ViralScore && result.BacterialScore > 15 {
		sb.WriteString("Clinical presentation more consistent with BACTERIAL pneumonia (sudden onset, high fever, productive cough). ")
	} else if result.ViralScore > result.BacterialScore && result.ViralScore > 15 {
		sb.WriteString("Clinical presentation more consistent with VIRAL pneumonia (gradual onset, dry cough, muscle aches). ")
	}

	if profile.VitalSigns != nil {
		vitals := s.vitals.Score(profile.VitalSigns)
		switch vitals.Severity {
		case domain.SeveritySevere:
			sb.WriteString("WARNING: Vital signs indicate severe distress. ")
		case domain.SeverityModerate:
			sb.WriteString("Vital signs show moderate abnormality. ")
		}
	}

	return strings.TrimSpace(sb.String())
}
