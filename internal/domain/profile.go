package domain

// VitalSigns holds raw vital-sign measurements. Every field is optional:
// a nil pointer means "not measured" and contributes zero score. Absence
// must never be conflated with a measured-normal value.
type VitalSigns struct {
	Temperature      *float64 `json:"temperature,omitempty"`      // °C
	OxygenSaturation *float64 `json:"oxygenSaturation,omitempty"` // %
	HeartRate        *float64 `json:"heartRate,omitempty"`        // bpm
	RespiratoryRate  *float64 `json:"respiratoryRate,omitempty"`  // breaths/min
}

// SymptomProfile is the full structured input capturing a patient's reported
// symptoms, durations, risk factors, disease-signature findings and vital
// signs. Booleans default to false when unset; the profile is immutable
// input and is never mutated by any scorer.
type SymptomProfile struct {
	// Primary respiratory symptoms
	Fever               bool `json:"fever"`
	PersistentCough     bool `json:"persistentCough"`
	ChestPain           bool `json:"chestPain"`
	DifficultyBreathing bool `json:"difficultyBreathing"`

	// Secondary symptoms
	Fatigue         bool `json:"fatigue"`
	RapidBreathing  bool `json:"rapidBreathing"`
	CracklingSounds bool `json:"cracklingSounds"`

	// Cough characteristics
	CoughDuration   *float64 `json:"coughDuration,omitempty"` // days
	ProductiveCough bool     `json:"productiveCough"`
	DryHackingCough bool     `json:"dryHackingCough"`

	// Sputum characteristics
	ClearSputum       bool `json:"clearSputum"`
	YellowGreenSputum bool `json:"yellowGreenSputum"`
	BloodInSputum     bool `json:"bloodInSputum"`

	// Onset and progression
	SuddenOnset     bool     `json:"suddenOnset"`
	GradualOnset    bool     `json:"gradualOnset"`
	SymptomDuration *float64 `json:"symptomDuration,omitempty"` // days

	// Associated symptoms
	MuscleAches      bool `json:"muscleAches"`
	ChillsAndShaking bool `json:"chillsAndShaking"`
	Headache         bool `json:"headache"`
	SoreThroat       bool `json:"soreThroat"`
	NauseaVomiting   bool `json:"nauseaVomiting"`
	Confusion        bool `json:"confusion"` // especially in elderly

	// Risk factors
	RecentColdFlu        bool `json:"recentColdFlu"`
	WeakenedImmuneSystem bool `json:"weakenedImmuneSystem"`
	Smoker               bool `json:"smoker"`
	Age65Plus            bool `json:"age65Plus"`
	AgeUnder5            bool `json:"ageUnder5"`
	ChronicLungDisease   bool `json:"chronicLungDisease"`
	HeartDisease         bool `json:"heartDisease"`
	Diabetes             bool `json:"diabetes"`

	// COVID-19 signature findings
	LossOfTasteSmell      bool `json:"lossOfTasteSmell"`
	KnownCovidExposure    bool `json:"knownCovidExposure"`
	SuddenSevereBreathing bool `json:"suddenSevereBreathing"`

	// TB signature findings
	NightSweats                    bool     `json:"nightSweats"`
	WeightLoss                     bool     `json:"weightLoss"`
	UnintentionalWeightLoss        bool     `json:"unintentionalWeightLoss"`
	ChronicCough                   bool     `json:"chronicCough"`
	ChronicCoughWeeks              *float64 `json:"chronicCoughWeeks,omitempty"`
	Hemoptysis                     bool     `json:"hemoptysis"`
	TravelToTBEndemicArea          bool     `json:"travelToTBEndemicArea"`
	HIVPositiveOrImmunocompromised bool     `json:"hivPositiveOrImmunocompromised"`
	CloseContactWithTBPatient      bool     `json:"closeContactWithTBPatient"`

	// Vital signs
	VitalSigns *VitalSigns `json:"vitalSigns,omitempty"`
}

// ModelPrediction is the upstream image classifier's verdict, consumed
// read-only. Confidence is expected in [0,1]; out-of-range values are
// clamped when combined, never rejected.
type ModelPrediction struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}
