package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

const recordColumns = `id, source_url, platform, state, county, city, department_name,
	processing_instructions, permit_fee, phone, email, address, hours, turnaround_time,
	downloadable_applications, confidence, evidence, extracted_at, created_at, updated_at`

// RecordRepository handles database operations for permit records.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Save inserts rec, or updates the existing record for the same source URL
// and platform. rec.ID, CreatedAt and UpdatedAt are set from the stored row.
func (r *RecordRepository) Save(ctx context.Context, rec *domain.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	query := `
		INSERT INTO permit_records (id, source_url, platform, state, county, city,
			department_name, processing_instructions, permit_fee, phone, email, address,
			hours, turnaround_time, downloadable_applications, confidence, evidence, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (source_url, platform)
		DO UPDATE SET
			state = EXCLUDED.state,
			county = EXCLUDED.county,
			city = EXCLUDED.city,
			department_name = EXCLUDED.department_name,
			processing_instructions = EXCLUDED.processing_instructions,
			permit_fee = EXCLUDED.permit_fee,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			hours = EXCLUDED.hours,
			turnaround_time = EXCLUDED.turnaround_time,
			downloadable_applications = EXCLUDED.downloadable_applications,
			confidence = EXCLUDED.confidence,
			evidence = EXCLUDED.evidence,
			extracted_at = EXCLUDED.extracted_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.SourceURL,
		rec.Platform,
		rec.State,
		rec.County,
		rec.City,
		rec.DepartmentName,
		rec.ProcessingInstructions,
		rec.PermitFee,
		rec.Phone,
		rec.Email,
		rec.Address,
		rec.Hours,
		rec.TurnaroundTime,
		rec.DownloadableApplications,
		rec.Confidence,
		rec.Evidence,
		rec.ExtractedAt,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save permit record: %w", err)
	}

	return nil
}

// GetByID returns the record with id, or ErrNotFound.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	var rec domain.Record
	query := `SELECT ` + recordColumns + ` FROM permit_records WHERE id = $1`

	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permit record %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get permit record: %w", err)
	}

	return &rec, nil
}

// RecordFilter narrows List and Count.
type RecordFilter struct {
	Platform      string
	State         string
	County        string
	City          string
	Search        string // source URL or department substring
	MinConfidence float64
	Limit         int
	Offset        int
}

func (f RecordFilter) where() (string, []any) {
	clauses := []string{}
	args := []any{}
	argIndex := 1

	add := func(clause string, arg any) {
		clauses = append(clauses, fmt.Sprintf(clause, argIndex))
		args = append(args, arg)
		argIndex++
	}

	if f.Platform != "" {
		add("platform = $%d", f.Platform)
	}
	if f.State != "" {
		add("state = $%d", f.State)
	}
	if f.County != "" {
		add("county = $%d", f.County)
	}
	if f.City != "" {
		add("city = $%d", f.City)
	}
	if f.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(source_url ILIKE $%d OR department_name ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+f.Search+"%")
		argIndex++
	}
	if f.MinConfidence > 0 {
		add("confidence >= $%d", f.MinConfidence)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// List returns records matching filter, newest extraction first.
func (r *RecordRepository) List(ctx context.Context, filter RecordFilter) ([]*domain.Record, error) {
	whereClause, args := filter.where()

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := max(filter.Offset, 0)

	query := fmt.Sprintf(`SELECT %s FROM permit_records %s ORDER BY extracted_at DESC, id LIMIT $%d OFFSET $%d`,
		recordColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	records := []*domain.Record{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list permit records: %w", err)
	}

	return records, nil
}

// Count returns the number of records matching filter. Limit and Offset are ignored.
func (r *RecordRepository) Count(ctx context.Context, filter RecordFilter) (int, error) {
	whereClause, args := filter.where()
	query := `SELECT COUNT(*) FROM permit_records ` + whereClause

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count permit records: %w", err)
	}

	return count, nil
}

// Delete removes the record with id.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM permit_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete permit record: %w", err)
	}
	return execRequireRows(result, nil, fmt.Errorf("permit record %s: %w", id, ErrNotFound))
}
