package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/permit-scraper/internal/domain"
)

const jobColumns = `id, url, state, county, city, status, attempts, outcome, last_error,
	record_id, created_at, updated_at, completed_at`

// JobRepository handles database operations for the scrape job queue.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Enqueue queues pageURL unless an open (pending or processing) job for the
// same URL exists, in which case that job is returned with created=false.
func (r *JobRepository) Enqueue(
	ctx context.Context, pageURL string, j domain.Jurisdiction,
) (job *domain.ScrapeJob, created bool, err error) {
	existing, err := r.findOpen(ctx, pageURL)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	job = &domain.ScrapeJob{
		ID:     uuid.New().String(),
		URL:    pageURL,
		State:  j.State,
		County: j.County,
		City:   j.City,
		Status: domain.JobStatusPending,
	}

	query := `
		INSERT INTO scrape_jobs (id, url, state, county, city, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		job.ID, job.URL, job.State, job.County, job.City, job.Status,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to enqueue scrape job: %w", err)
	}

	return job, true, nil
}

func (r *JobRepository) findOpen(ctx context.Context, pageURL string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `SELECT ` + jobColumns + ` FROM scrape_jobs
		WHERE url = $1 AND status IN ('pending', 'processing')
		ORDER BY created_at DESC LIMIT 1`

	if err := r.db.GetContext(ctx, &job, query, pageURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up open scrape job: %w", err)
	}
	return &job, nil
}

// GetByID returns the job with id, or ErrNotFound.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `SELECT ` + jobColumns + ` FROM scrape_jobs WHERE id = $1`

	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scrape job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get scrape job: %w", err)
	}
	return &job, nil
}

// Pending returns up to limit pending jobs, newest first.
func (r *JobRepository) Pending(ctx context.Context, limit int) ([]*domain.ScrapeJob, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + jobColumns + ` FROM scrape_jobs
		WHERE status = 'pending'
		ORDER BY created_at DESC
		LIMIT $1`

	jobs := []*domain.ScrapeJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list pending scrape jobs: %w", err)
	}
	return jobs, nil
}

// List returns jobs, optionally filtered by status, newest first.
func (r *JobRepository) List(ctx context.Context, status domain.JobStatus, limit int) ([]*domain.ScrapeJob, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		where string
		args  []any
	)
	if status != "" {
		where = "WHERE status = $1"
		args = append(args, status)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM scrape_jobs %s ORDER BY created_at DESC LIMIT $%d`,
		jobColumns, where, len(args))

	jobs := []*domain.ScrapeJob{}
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list scrape jobs: %w", err)
	}
	return jobs, nil
}

// MarkProcessing claims a pending job and increments its attempt count.
// It returns ErrJobNotPending if another worker claimed it first.
func (r *JobRepository) MarkProcessing(ctx context.Context, id string) error {
	query := `
		UPDATE scrape_jobs
		SET status = 'processing', attempts = attempts + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark scrape job processing: %w", err)
	}
	return execRequireRows(result, nil, fmt.Errorf("scrape job %s: %w", id, ErrJobNotPending))
}

// MarkCompleted finishes a job with outcome and the saved record, if any.
func (r *JobRepository) MarkCompleted(ctx context.Context, id, outcome string, recordID *string) error {
	query := `
		UPDATE scrape_jobs
		SET status = 'completed', outcome = $2, record_id = $3, last_error = '',
			completed_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, outcome, recordID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark scrape job completed: %w", err)
	}
	return execRequireRows(result, nil, fmt.Errorf("scrape job %s: %w", id, ErrNotFound))
}

// MarkFailed records lastErr on the job. With requeue the job goes back to
// pending for another attempt; otherwise it is failed for good.
func (r *JobRepository) MarkFailed(ctx context.Context, id, lastErr string, requeue bool) error {
	status := domain.JobStatusFailed
	var completedAt *time.Time
	if requeue {
		status = domain.JobStatusPending
	} else {
		now := time.Now().UTC()
		completedAt = &now
	}

	query := `
		UPDATE scrape_jobs
		SET status = $2, last_error = $3, completed_at = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, truncateError(lastErr), completedAt)
	if err != nil {
		return fmt.Errorf("failed to mark scrape job failed: %w", err)
	}
	return execRequireRows(result, nil, fmt.Errorf("scrape job %s: %w", id, ErrNotFound))
}

// CountByStatus returns the number of jobs in each status.
func (r *JobRepository) CountByStatus(ctx context.Context) (map[domain.JobStatus]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM scrape_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scrape jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int)
	for rows.Next() {
		var (
			status domain.JobStatus
			n      int
		)
		if scanErr := rows.Scan(&status, &n); scanErr != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", scanErr)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count scrape jobs: %w", err)
	}
	return counts, nil
}

const maxErrorLen = 1000

func truncateError(msg string) string {
	msg = strings.TrimSpace(msg)
	if len(msg) <= maxErrorLen {
		return msg
	}
	return msg[:maxErrorLen]
}
