package service

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// RecommendationBuilder emits urgency-ranked clinical guidance for a final
// diagnostic category, informed by age, medical history and symptom flags.
//
// It is a closed dispatch over the known categories; anything else falls
// into a defined low-urgency shell rather than an error.
type RecommendationBuilder struct {
	logger *logrus.Logger
}

// NewRecommendationBuilder creates a new clinical recommendation builder.
func NewRecommendationBuilder(logger *logrus.Logger) *RecommendationBuilder {
	return &RecommendationBuilder{logger: logger}
}

// Build composes the recommendation. Confidence is on the 0-100 scale.
// The profile may be nil (no symptom intake); age is the raw form input and
// parses defensively to 0, never failing.
func (b *RecommendationBuilder) Build(category domain.Category, confidence float64, profile *domain.SymptomProfile, patientAge, medicalHistory string) domain.ClinicalRecommendation {
	age := parseAge(patientAge)
	isElderly := age >= 65
	isChild := age > 0 && age < 5
	history := strings.ToLower(medicalHistory)
	hasChronicCondition := strings.Contains(history, "chronic") ||
		strings.Contains(history, "diabetes") ||
		strings.Contains(history, "heart")

	baseUrgency := domain.UrgencyModerate
	if confidence > 85 {
		baseUrgency = domain.UrgencyHigh
		if confidence > 95 {
			baseUrgency = domain.UrgencyCritical
		}
	}
	if profile != nil && (profile.DifficultyBreathing || profile.Confusion) {
		baseUrgency = domain.UrgencyCritical
	}

	var rec domain.ClinicalRecommendation
	switch category {
	case domain.BACTERIAL_PNEUMONIA:
		rec = b.bacterial(confidence, profile, isElderly, isChild, hasChronicCondition, baseUrgency)
	case domain.VIRAL_PNEUMONIA:
		rec = b.viral(confidence, profile, isElderly)
	case domain.NORMAL:
		rec = b.normal(profile)
	case domain.COVID:
		rec = b.covid()
	case domain.TB:
		rec = b.tuberculosis()
	case domain.NON_XRAY:
		rec = b.nonXray()
	default:
		rec = domain.ClinicalRecommendation{
			Title:            "Analysis Result",
			Urgency:          baseUrgency,
			Recommendation:   "Refer to clinical assessment and radiologist interpretation for definitive diagnosis and management.",
			DiagnosticTests:  []string{},
			TreatmentOptions: []string{},
			FollowUp:         []string{},
			Warnings:         []string{},
		}
	}

	b.logger.WithFields(logrus.Fields(rec.Urgency.LogFields())).WithFields(logrus.Fields{
		"category":   category.String(),
		"confidence": confidence,
		"elderly":    isElderly,
		"child":      isChild,
	}).Info("Clinical recommendation generated")

	return rec
}

// parseAge parses a free-text age field. Anything unparseable is treated as
// 0 (non-elderly, non-child) rather than an error.
func parseAge(raw string) int {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || age < 0 {
		return 0
	}
	return age
}

func (b *RecommendationBuilder) bacterial(confidence float64, profile *domain.SymptomProfile, isElderly, isChild, hasChronicCondition bool, baseUrgency domain.Urgency) domain.ClinicalRecommendation {
	bloodInSputum := profile != nil && profile.BloodInSputum
	difficultyBreathing := profile != nil && profile.DifficultyBreathing

	urgency := baseUrgency
	if isElderly || isChild || hasChronicCondition || confidence > 90 || bloodInSputum {
		urgency = domain.UrgencyHigh
	}

	recommendation := "Immediate antibiotic treatment recommended. "
	if isElderly {
		recommendation += "CAUTION: Elderly patient - consider hospital admission. "
	}
	if difficultyBreathing {
		recommendation += "URGENT: Respiratory distress noted - assess for hospitalization. "
	}
	recommendation += "Start empiric antibiotic therapy covering Streptococcus pneumoniae, Haemophilus influenzae, and atypical organisms. Reassess clinically within 48-72 hours."

	// The productive-cough qualifier is part of the instruction text; the
	// workup item itself is always listed.
	tests := []string{
		"Complete blood count with differential",
		"Blood cultures (before antibiotics if possible)",
		"Sputum Gram stain and culture (if productive cough)",
		"Pulse oximetry / ABG if SpO2 < 92%",
		"CRP and procalcitonin levels",
	}
	if bloodInSputum {
		tests = append(tests, "Coagulation profile")
	}
	if isElderly || hasChronicCondition {
		tests = append(tests, "Comprehensive metabolic panel")
	}

	treatments := []string{}
	if isElderly || hasChronicCondition {
		treatments = append(treatments, "Hospitalization recommended - consider IV antibiotics")
	} else {
		treatments = append(treatments, "Outpatient: Amoxicillin-clavulanate 875/125mg BID or doxycycline 100mg BID")
	}
	treatments = append(treatments,
		"Alternative: Azithromycin 500mg daily for 3 days or clarithromycin 500mg BID",
		"Severe cases: IV ceftriaxone 1-2g daily or fluoroquinolone",
		"Duration: 5-7 days for uncomplicated, 7-10 days for severe",
		"Oxygen therapy if SpO2 < 92%",
		"Symptomatic treatment: acetaminophen or ibuprofen for fever/pain",
	)

	followUp := []string{
		"Clinical assessment within 48-72 hours",
		"Chest X-ray in 4-6 weeks to confirm resolution",
		"For patients not improving: Consider hospital admission, antibiotic change, or imaging (CT chest)",
	}
	if isElderly {
		followUp = append(followUp, "Contact follow-up within 24 hours for elderly patients")
	}
	followUp = append(followUp, "Patient education on recognizing worsening symptoms")

	warnings := []string{
		"High fever (>39°C) or septic appearance requires urgent evaluation",
		"Respiratory rate > 30 or SpO2 < 92% warrants hospital admission",
	}
	if bloodInSputum {
		warnings = append(warnings, "Hemoptysis may indicate severe infection or necrotizing pneumonia")
	}
	warnings = append(warnings, "Watch for secondary complications: empyema, lung abscess, sepsis")

	return domain.ClinicalRecommendation{
		Title:            "Bacterial Pneumonia",
		Urgency:          urgency,
		Recommendation:   recommendation,
		DiagnosticTests:  tests,
		TreatmentOptions: treatments,
		FollowUp:         followUp,
		Warnings:         warnings,
	}
}

func (b *RecommendationBuilder) viral(confidence float64, profile *domain.SymptomProfile, isElderly bool) domain.ClinicalRecommendation {
	difficultyBreathing := profile != nil && profile.DifficultyBreathing
	fever := profile != nil && profile.Fever

	urgency := domain.UrgencyLow
	if confidence > 90 {
		urgency = domain.UrgencyModerate
	}
	if difficultyBreathing || isElderly {
		urgency = domain.UrgencyHigh
	}

	recommendation := "Supportive care is primary treatment. Monitor closely for bacterial superinfection. "
	if difficultyBreathing {
		recommendation += "URGENT: Assess for hypoxemia and hospitalization need. "
	}
	recommendation += "Consider antiviral therapy (oseltamivir) if influenza suspected within 48 hours of symptom onset. Antibiotics only if secondary bacterial infection suspected."

	tests := []string{"Respiratory pathogen PCR panel (includes influenza, RSV, COVID-19, parainfluenza)"}
	if difficultyBreathing {
		tests = append(tests, "Pulse oximetry / ABG")
	} else {
		tests = append(tests, "Pulse oximetry")
	}
	tests = append(tests, "Complete blood count", "Consider blood cultures if clinical deterioration")
	if fever {
		tests = append(tests, "CRP if available")
	}

	followUp := []string{
		"Clinical assessment in 3-5 days",
		"If not improving: Reassess for secondary bacterial infection or other diagnoses",
		"Contact precautions if living with high-risk individuals",
		"Repeat imaging usually not needed unless worsening or prolonged symptoms",
	}
	if difficultyBreathing {
		followUp = append(followUp, "Close monitoring for clinical deterioration")
	}

	warnings := []string{
		"Most viral pneumonias are self-limited - recovery usually within 2-4 weeks",
		"Risk of secondary bacterial superinfection - educate patient on warning signs",
		"Some viral pneumonias (influenza, COVID-19) can cause severe ARDS - monitor SpO2 closely",
	}
	if isElderly {
		warnings = append(warnings, "Elderly patients have higher risk of severe disease and complications")
	}

	return domain.ClinicalRecommendation{
		Title:           "Viral Pneumonia",
		Urgency:         urgency,
		Recommendation:  recommendation,
		DiagnosticTests: tests,
		TreatmentOptions: []string{
			"Supportive care: Rest, hydration, antipyretics (acetaminophen 500-1000mg Q4-6H or ibuprofen 400-600mg Q6H)",
			"Antiviral therapy: Oseltamivir (Tamiflu) 75mg BID for 5 days if influenza (especially if started within 48 hours)",
			"Avoid antibiotics unless secondary bacterial infection suspected",
			"Oxygen therapy if SpO2 < 92% or respiratory distress",
			"Monitor for secondary bacterial infection - start antibiotics if high fever returns after initial improvement",
		},
		FollowUp: followUp,
		Warnings: warnings,
	}
}

func (b *RecommendationBuilder) normal(profile *domain.SymptomProfile) domain.ClinicalRecommendation {
	symptomatic := profile != nil && (profile.PersistentCough || profile.Fever)
	distress := profile != nil && profile.DifficultyBreathing

	urgency := domain.UrgencyLow
	if profile != nil && (profile.PersistentCough || profile.Fever || profile.DifficultyBreathing) {
		urgency = domain.UrgencyModerate
	}

	recommendation := "No significant radiographic findings. "
	if symptomatic {
		recommendation += "However, patient presents with symptoms. Consider clinical correlation, viral prodrome, or early-stage infection not yet visible on X-ray. Repeat imaging in 24-48 hours may be warranted if symptoms persist or worsen."
	} else {
		recommendation += "Patient appears clinically well."
	}

	var tests, treatments, followUp, warnings []string
	if symptomatic {
		tests = []string{
			"Viral respiratory pathogen panel",
			"Complete blood count",
			"Pulse oximetry",
			"Follow-up chest X-ray in 24-48 hours if symptoms persist",
		}
		treatments = []string{
			"Symptomatic treatment: Rest, hydration, antipyretics",
			"Supportive care for probable viral upper respiratory infection",
			"Avoid unnecessary antibiotics",
			"Return precautions: Seek care if breathing worsens, SpO2 drops, or high fever",
		}
		followUp = []string{
			"Clinical assessment in 24-48 hours",
			"Repeat chest X-ray if symptoms do not improve",
			"Consider other diagnoses if findings change",
		}
	} else {
		tests = []string{"Pulse oximetry if symptomatic"}
		treatments = []string{
			"Continue current management",
			"No specific treatment needed for normal X-ray",
			"Reassuring patient may reduce anxiety",
		}
		followUp = []string{"No follow-up imaging needed"}
	}

	if distress {
		warnings = []string{
			"Patient has respiratory distress despite normal X-ray - urgent evaluation needed",
			"Consider: Pulmonary embolism, early pneumonia, other cardiopulmonary pathology",
			"May need CT angiography or advanced imaging",
		}
	} else {
		warnings = []string{}
	}

	return domain.ClinicalRecommendation{
		Title:            "Normal Findings",
		Urgency:          urgency,
		Recommendation:   recommendation,
		DiagnosticTests:  tests,
		TreatmentOptions: treatments,
		FollowUp:         followUp,
		Warnings:         warnings,
	}
}

// covid is always HIGH urgency and always advises confirmatory testing
// regardless of imaging confidence.
func (b *RecommendationBuilder) covid() domain.ClinicalRecommendation {
	return domain.ClinicalRecommendation{
		Title:          "COVID-19 Suspected",
		Urgency:        domain.UrgencyHigh,
		Recommendation: "COVID-19 is suspected based on imaging and/or symptoms. This is a validation result only. COVID-19 testing is STRONGLY RECOMMENDED regardless of X-ray findings. Early diagnosis allows for timely isolation and treatment.",
		DiagnosticTests: []string{
			"COVID-19 PCR (nasopharyngeal or oropharyngeal swab) - REQUIRED",
			"Rapid antigen test if PCR not available",
			"Chest CT if X-ray findings unclear (typically bilateral ground glass opacities)",
			"D-dimer if high-risk for pulmonary embolism",
			"Troponin if cardiac involvement suspected",
		},
		TreatmentOptions: []string{
			"Isolate immediately - inform public health authorities",
			"Supportive care: Rest, hydration, oxygen if SpO2 < 92%",
			"Antiviral therapy: Consider remdesivir for hospitalized patients",
			"Monoclonal antibodies if high-risk and within treatment window",
			"Monitor for thrombotic complications",
		},
		FollowUp: []string{
			"COVID-19 testing MUST be done to confirm/exclude diagnosis",
			"Repeat imaging in 7-10 days if hospitalized",
			"Close contacts should quarantine and monitor for symptoms",
			"Vaccinate after recovery if not previously vaccinated",
		},
		Warnings: []string{
			"COVID-19 can cause life-threatening pneumonia and ARDS",
			"Early radiographic findings can be subtle - normal or near-normal X-rays do NOT exclude COVID",
			"CT chest is more sensitive than X-ray for COVID-19 pneumonia",
			"Patients are infectious 24-48 hours before symptom onset",
		},
	}
}

// tuberculosis is hardcoded CRITICAL: TB is rapidly progressive and
// respiratory isolation cannot wait for confirmatory testing.
func (b *RecommendationBuilder) tuberculosis() domain.ClinicalRecommendation {
	return domain.ClinicalRecommendation{
		Title:          "Tuberculosis Suspected",
		Urgency:        domain.UrgencyCritical,
		Recommendation: "Tuberculosis is suspected based on clinical and radiographic findings. This requires URGENT investigation. TB can be rapidly progressive and potentially fatal if untreated. Respiratory isolation must be implemented IMMEDIATELY until TB is excluded.",
		DiagnosticTests: []string{
			"Sputum smear microscopy for AFB (Acid-Fast Bacilli) - PRIORITY",
			"GeneXpert MTB/RIF or PCR - REQUIRED for rapid diagnosis",
			"TB culture (slow but gold standard)",
			"HIV testing (TB-HIV coinfection)",
			"Chest CT for better characterization if diagnosis unclear",
			"TB skin test or IGRA after acute phase",
		},
		TreatmentOptions: []string{
			"Respiratory isolation IMMEDIATELY - place in negative pressure room if hospitalized",
			"Infectious disease consultation REQUIRED",
			"Do NOT wait for confirmatory tests to start treatment if clinical suspicion is high",
			"Standard TB regimen: Isoniazid, Rifampin, Pyrazinamide, Ethambutol for 2 months, then Isoniazid + Rifampin for 4 months",
			"Drug susceptibility testing to guide therapy",
		},
		FollowUp: []string{
			"TB diagnosis MUST be confirmed with positive smear or culture",
			"Repeat sputum smears at 2 weeks, 4 weeks - goal is smear conversion",
			"Chest X-ray improvement expected at 2-3 months",
			"Contact tracing - identify and evaluate exposed persons",
			"Monitor treatment compliance and side effects",
		},
		Warnings: []string{
			"URGENT: TB is highly contagious and can be fatal",
			"TB may have normal or minimal X-ray findings, especially in HIV+ patients",
			"Up to 20-25% of TB patients have normal X-rays",
			"Extrapulmonary TB (lymph, meninges, bone) may have negative CXR",
			"Delayed diagnosis can result in severe disease and death",
			"Contact precautions must continue until patient is smear-negative and on treatment",
		},
	}
}

func (b *RecommendationBuilder) nonXray() domain.ClinicalRecommendation {
	return domain.ClinicalRecommendation{
		Title:           "Not a Chest X-Ray",
		Urgency:         domain.UrgencyLow,
		Recommendation:  "The uploaded image does not appear to be a chest X-ray. Please upload a valid frontal (posteroanterior) or lateral chest radiograph for pneumonia analysis.",
		DiagnosticTests: []string{},
		TreatmentOptions: []string{
			"Upload a valid chest X-ray image",
			"Ensure image is in DICOM or standard image format",
		},
		FollowUp: []string{"Resubmit with correct chest X-ray"},
		Warnings: []string{
			"Only chest X-rays can be analyzed",
			"Ensure the image shows the full chest cavity",
		},
	}
}
