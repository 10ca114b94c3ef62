// Package feedback provides clinician feedback storage for analysis results.
// It stores agreements and corrections against the suggested category to
// track how well the scoring engine matches clinical judgment.
package feedback

import (
	"context"
	"io"
	"time"

	"github.com/pneumonia-cds-server/internal/domain"
)

// Feedback represents a clinician's feedback on one analysis result.
type Feedback struct {
	ID                int64           `json:"id,omitempty"`
	ReferenceNumber   string          `json:"reference_number"`             // Analysis this feedback refers to
	ClinicianID       string          `json:"clinician_id"`                 // Reviewing clinician
	SuggestedCategory domain.Category `json:"suggested_category"`           // Engine's suggestion
	ClinicianCategory domain.Category `json:"clinician_category"`           // Clinician's final call
	Agreed            bool            `json:"agreed"`                       // Did the clinician agree?
	AssessmentSummary string          `json:"assessment_summary,omitempty"` // Engine rationale at review time
	Notes             string          `json:"notes,omitempty"`              // Clinician notes
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Store defines the interface for feedback storage operations.
type Store interface {
	// Save stores or updates clinician feedback for an analysis.
	// If feedback for the same reference+clinician exists, it will be updated.
	Save(ctx context.Context, feedback *Feedback) error

	// Get retrieves the feedback a clinician gave on an analysis.
	Get(ctx context.Context, referenceNumber string, clinicianID string) (*Feedback, error)

	// List returns all feedback entries with pagination.
	List(ctx context.Context, limit, offset int) ([]*Feedback, error)

	// Count returns the total number of feedback entries.
	Count(ctx context.Context) (int64, error)

	// Delete removes a feedback entry by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all feedback to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports feedback from a JSON reader.
	// Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// FeedbackExport represents the JSON export format.
type FeedbackExport struct {
	Version    string      `json:"version"`
	ExportedAt time.Time   `json:"exported_at"`
	Count      int         `json:"count"`
	Feedback   []*Feedback `json:"feedback"`
}
