package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pneumonia-cds-server/internal/domain"
)

// AnalysisRepository handles analysis record persistence
type AnalysisRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *pgxpool.Pool, logger *logrus.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:  db,
		log: logger,
	}
}

// Create inserts a completed analysis into the database
func (r *AnalysisRepository) Create(ctx context.Context, record *domain.AnalysisRecord) error {
	query := `
		INSERT INTO analyses (
			id, reference_number, category, model_confidence, adjusted_confidence,
			correlation, covid_risk_level, tb_risk_level, alert_level, urgency,
			report, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.ReferenceNumber,
		record.Category,
		record.ModelConfidence,
		record.AdjustedConfidence,
		record.Correlation,
		record.CovidRiskLevel,
		record.TBRiskLevel,
		record.AlertLevel,
		record.Urgency,
		record.Report,
		record.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("analysis %s: %w", record.ReferenceNumber, domain.ErrDuplicateReference)
		}
		r.log.WithFields(logrus.Fields{
			"reference": record.ReferenceNumber,
			"error":     err,
		}).Error("Failed to create analysis record")
		return fmt.Errorf("creating analysis record: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"reference": record.ReferenceNumber,
		"category":  record.Category,
		"urgency":   record.Urgency,
	}).Info("Analysis record created successfully")

	return nil
}

// GetByReference retrieves an analysis by its reference number
func (r *AnalysisRepository) GetByReference(ctx context.Context, reference string) (*domain.AnalysisRecord, error) {
	query := `
		SELECT id, reference_number, category, model_confidence, adjusted_confidence,
			   correlation, covid_risk_level, tb_risk_level, alert_level, urgency,
			   report, created_at
		FROM analyses
		WHERE reference_number = $1`

	var record domain.AnalysisRecord

	err := r.db.QueryRow(ctx, query, reference).Scan(
		&record.ID,
		&record.ReferenceNumber,
		&record.Category,
		&record.ModelConfidence,
		&record.AdjustedConfidence,
		&record.Correlation,
		&record.CovidRiskLevel,
		&record.TBRiskLevel,
		&record.AlertLevel,
		&record.Urgency,
		&record.Report,
		&record.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("analysis not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"reference": reference,
			"error":     err,
		}).Error("Failed to get analysis by reference")
		return nil, fmt.Errorf("getting analysis by reference: %w", err)
	}

	return &record, nil
}

// ListRecent retrieves the most recent analyses, newest first
func (r *AnalysisRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, reference_number, category, model_confidence, adjusted_confidence,
			   correlation, covid_risk_level, tb_risk_level, alert_level, urgency,
			   report, created_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"limit": limit,
			"error": err,
		}).Error("Failed to list recent analyses")
		return nil, fmt.Errorf("listing recent analyses: %w", err)
	}
	defer rows.Close()

	var records []*domain.AnalysisRecord
	for rows.Next() {
		var record domain.AnalysisRecord

		err := rows.Scan(
			&record.ID,
			&record.ReferenceNumber,
			&record.Category,
			&record.ModelConfidence,
			&record.AdjustedConfidence,
			&record.Correlation,
			&record.CovidRiskLevel,
			&record.TBRiskLevel,
			&record.AlertLevel,
			&record.Urgency,
			&record.Report,
			&record.CreatedAt,
		)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"error": err,
			}).Error("Failed to scan analysis row")
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analysis rows: %w", err)
	}

	return records, nil
}

// CountByCategory returns the number of analyses per diagnostic category
func (r *AnalysisRepository) CountByCategory(ctx context.Context) (map[domain.Category]int64, error) {
	query := `
		SELECT category, COUNT(*)
		FROM analyses
		GROUP BY category`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"error": err,
		}).Error("Failed to count analyses by category")
		return nil, fmt.Errorf("counting analyses by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int64)
	for rows.Next() {
		var category domain.Category
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scanning category count row: %w", err)
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category count rows: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan removes analyses created before the retention horizon and
// returns the number of rows removed
func (r *AnalysisRepository) DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	query := `DELETE FROM analyses WHERE created_at < NOW() - ($1 * INTERVAL '1 day')`

	result, err := r.db.Exec(ctx, query, retentionDays)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"retention_days": retentionDays,
			"error":          err,
		}).Error("Failed to prune old analyses")
		return 0, fmt.Errorf("pruning old analyses: %w", err)
	}

	removed := result.RowsAffected()
	if removed > 0 {
		r.log.WithFields(logrus.Fields{
			"retention_days": retentionDays,
			"removed":        removed,
		}).Info("Old analyses pruned")
	}

	return removed, nil
}
