package domain

import "time"

// VitalSignsResult is the vital-signs contribution to symptom scoring:
// a bounded severity score plus viral/bacterial sub-indicator points.
type VitalSignsResult struct {
	Score          float64  `json:"score"`
	Severity       Severity `json:"severity"`
	ViralScore     float64  `json:"viralScore"`
	BacterialScore float64  `json:"bacterialScore"`
}

// ScoreResult is the aggregate pneumonia-likelihood assessment of a
// symptom profile.
//
// Invariants: TotalScore is clamped to [0,100]; NormalScore is always
// 100 − TotalScore; Severity is a pure step function of TotalScore.
type ScoreResult struct {
	TotalScore           float64  `json:"totalScore"`
	ViralScore           float64  `json:"viralScore"`
	BacterialScore       float64  `json:"bacterialScore"`
	NormalScore          float64  `json:"normalScore"`
	Severity             Severity `json:"severity"`
	PrimarySymptomsCount int      `json:"primarySymptomsCount"`
}

// ConfidenceBreakdown records the raw numbers behind a confidence
// adjustment so the final figure is fully auditable.
type ConfidenceBreakdown struct {
	ModelConfidence     float64 `json:"modelConfidence"`
	SymptomContribution float64 `json:"symptomContribution"`
	AdjustmentFactor    float64 `json:"adjustmentFactor"`
}

// AdjustedAssessment is the reconciliation of the imaging verdict with the
// symptom-derived likelihood. AdjustedConfidence is rounded to four decimal
// places and always stays inside [0,1].
type AdjustedAssessment struct {
	AdjustedConfidence  float64             `json:"adjustedConfidence"`
	SymptomScore        float64             `json:"symptomScore"`
	ClinicalCorrelation CorrelationLevel    `json:"clinicalCorrelation"`
	Recommendation      string              `json:"recommendation"`
	ConfidenceBreakdown ConfidenceBreakdown `json:"confidenceBreakdown"`
}

// RiskAssessment is a disease-specific risk verdict (one per disease).
// Indicators preserve rule-firing order.
type RiskAssessment struct {
	RiskScore  float64   `json:"riskScore"`
	RiskLevel  RiskLevel `json:"riskLevel"`
	Indicators []string  `json:"indicators"`
}

// CrossValidationAlert is raised when the imaging category and a disease
// risk detector disagree, or jointly confirm a high-risk condition.
type CrossValidationAlert struct {
	HasAlert           bool       `json:"hasAlert"`
	AlertLevel         AlertLevel `json:"alertLevel"`
	AlertMessage       string     `json:"alertMessage"`
	RecommendedActions []string   `json:"recommendedActions"`
}

// ClinicalRecommendation is the structured, urgency-ranked guidance emitted
// for a final diagnostic category.
type ClinicalRecommendation struct {
	Title            string   `json:"title"`
	Urgency          Urgency  `json:"urgency"`
	Recommendation   string   `json:"recommendation"`
	DiagnosticTests  []string `json:"diagnosticTests"`
	TreatmentOptions []string `json:"treatmentOptions"`
	FollowUp         []string `json:"followUp"`
	Warnings         []string `json:"warnings"`
}

// AnalysisReport is the full output of one scoring pass over an upload:
// the adjusted assessment plus risk screens, cross-validation alert and
// clinical recommendation, keyed by a reference number for retrieval.
type AnalysisReport struct {
	ReferenceNumber  string                 `json:"referenceNumber"`
	Category         Category               `json:"category"`
	ModelConfidence  float64                `json:"modelConfidence"`
	Assessment       AdjustedAssessment     `json:"assessment"`
	SymptomScore     ScoreResult            `json:"symptomScore"`
	CovidRisk        RiskAssessment         `json:"covidRisk"`
	TBRisk           RiskAssessment         `json:"tbRisk"`
	Alert            CrossValidationAlert   `json:"alert"`
	Recommendation   ClinicalRecommendation `json:"recommendation"`
	ClinicalSummary  string                 `json:"clinicalSummary"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
	CreatedAt        time.Time              `json:"createdAt"`
}

// AnalysisRecord is the persisted form of an analysis report: the headline
// figures as columns for querying, the full report as a JSON payload.
type AnalysisRecord struct {
	ID                 string           `json:"id"`
	ReferenceNumber    string           `json:"reference_number"`
	Category           Category         `json:"category"`
	ModelConfidence    float64          `json:"model_confidence"`
	AdjustedConfidence float64          `json:"adjusted_confidence"`
	Correlation        CorrelationLevel `json:"correlation"`
	CovidRiskLevel     RiskLevel        `json:"covid_risk_level"`
	TBRiskLevel        RiskLevel        `json:"tb_risk_level"`
	AlertLevel         AlertLevel       `json:"alert_level"`
	Urgency            Urgency          `json:"urgency"`
	Report             []byte           `json:"report"`
	CreatedAt          time.Time        `json:"created_at"`
}
