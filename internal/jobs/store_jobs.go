package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound indicates no job exists with the requested id.
var ErrJobNotFound = errors.New("jobs: job not found")

// ErrJobTerminal indicates the job already reached a terminal status.
var ErrJobTerminal = errors.New("jobs: job is terminal")

// ErrCounterOverflow indicates an item result would push the counters past
// the job total.
var ErrCounterOverflow = errors.New("jobs: item results exceed job total")

const jobColumns = `id, type, status, badge_types, item_ids, completed, failed, total,
    cancel_requested, error_message, extra_json, created_at, started_at, completed_at, updated_at`

// Create persists a new job in the queued state. Total is fixed to the item
// count and never changes afterward.
func (s *Store) Create(ctx context.Context, jobType Type, badgeTypes, itemIDs []string, extra map[string]string) (*Job, error) {
	if len(itemIDs) == 0 {
		return nil, errors.New("jobs: at least one item id required")
	}
	if len(badgeTypes) == 0 {
		return nil, errors.New("jobs: at least one badge type required")
	}
	if jobType == TypeSingle && len(itemIDs) != 1 {
		return nil, errors.New("jobs: single job must target exactly one item")
	}

	badgeJSON, err := json.Marshal(badgeTypes)
	if err != nil {
		return nil, fmt.Errorf("marshal badge types: %w", err)
	}
	itemJSON, err := json.Marshal(itemIDs)
	if err != nil {
		return nil, fmt.Errorf("marshal item ids: %w", err)
	}
	var extraJSON any
	if len(extra) > 0 {
		encoded, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("marshal extra fields: %w", err)
		}
		extraJSON = string(encoded)
	}

	id := uuid.NewString()
	now := timestamp(time.Now())
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO jobs (id, type, status, badge_types, item_ids, completed, failed, total,
            cancel_requested, extra_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, 0, 0, ?, 0, ?, ?, ?)`,
		id,
		string(jobType),
		StatusQueued,
		string(badgeJSON),
		string(itemJSON),
		len(itemIDs),
		extraJSON,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListOptions filters and pages a job listing.
type ListOptions struct {
	Status Status
	Limit  int
	Offset int
}

// List returns jobs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, 3)
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// ClaimNextQueued atomically moves the oldest queued job to running and
// returns it. The conditional update keyed on the current status guarantees
// at most one caller claims a given job; a lost race simply moves on to the
// next candidate. Returns nil when no queued job exists.
func (s *Store) ClaimNextQueued(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	for attempt := 0; attempt < 3; attempt++ {
		var id string
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT 1`,
			StatusQueued,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find queued job: %w", err)
		}

		now := timestamp(time.Now())
		res, err := s.execWithRetry(ctx,
			`UPDATE jobs SET status = ?, started_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
			StatusRunning, now, now, id, StatusQueued,
		)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim rows affected: %w", err)
		}
		if affected == 1 {
			return s.GetByID(ctx, id)
		}
		// Another worker won the claim; try the next candidate.
	}
	return nil, nil
}

// RecordItemResult appends the item outcome and bumps exactly one of the
// completed/failed counters in the same transaction. Counters never
// decrement, and an insert that would exceed the job total is refused.
func (s *Store) RecordItemResult(ctx context.Context, result ItemResult) error {
	if result.JobID == "" || result.ItemID == "" {
		return errors.New("jobs: item result requires job id and item id")
	}
	counter := "completed"
	if result.Status == ItemFailed {
		counter = "failed"
	}
	appliedJSON, err := json.Marshal(result.AppliedBadges)
	if err != nil {
		return fmt.Errorf("marshal applied badges: %w", err)
	}
	failedJSON, err := json.Marshal(result.FailedBadges)
	if err != nil {
		return fmt.Errorf("marshal failed badges: %w", err)
	}
	attempts := result.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin result tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		now := timestamp(time.Now())
		res, err := tx.ExecContext(ctx,
			`UPDATE jobs SET `+counter+` = `+counter+` + 1, updated_at = ?
             WHERE id = ? AND completed + failed < total`,
			now, result.JobID,
		)
		if err != nil {
			return fmt.Errorf("increment %s counter: %w", counter, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("counter rows affected: %w", err)
		}
		if affected == 0 {
			if _, getErr := s.GetByID(ctx, result.JobID); errors.Is(getErr, ErrJobNotFound) {
				return ErrJobNotFound
			}
			return fmt.Errorf("%w: job %s", ErrCounterOverflow, result.JobID)
		}

		// A retried or crash-recovered job records its items again; the
		// re-run result supersedes the prior run's record.
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_items (job_id, item_id, status, attempts, applied_badges,
                failed_badges, output_path, error_message, elapsed_ms, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
             ON CONFLICT(job_id, item_id) DO UPDATE SET
                status = excluded.status,
                attempts = excluded.attempts,
                applied_badges = excluded.applied_badges,
                failed_badges = excluded.failed_badges,
                output_path = excluded.output_path,
                error_message = excluded.error_message,
                elapsed_ms = excluded.elapsed_ms,
                created_at = excluded.created_at`,
			result.JobID,
			result.ItemID,
			string(result.Status),
			attempts,
			string(appliedJSON),
			string(failedJSON),
			nullableString(result.OutputPath),
			nullableString(result.ErrorMessage),
			result.Elapsed.Milliseconds(),
			now,
		); err != nil {
			return fmt.Errorf("insert item record: %w", err)
		}

		return tx.Commit()
	})
}

// FinalizeJob moves a running job to its terminal status: cancelled when a
// cancel was requested, completed otherwise. A completed job may carry a
// non-zero failed count; partial success is not a separate terminal status.
func (s *Store) FinalizeJob(ctx context.Context, id string) (*Job, error) {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE jobs SET
            status = CASE WHEN cancel_requested = 1 THEN ? ELSE ? END,
            completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCancelled, StatusCompleted, now, now, id, StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("finalize job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("finalize rows affected: %w", err)
	}
	if affected == 0 {
		job, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: job %s is %s", ErrJobTerminal, id, job.Status)
	}
	return s.GetByID(ctx, id)
}

// MarkJobFailed records an infrastructure-level job failure.
func (s *Store) MarkJobFailed(ctx context.Context, id, message string) error {
	now := timestamp(time.Now())
	_, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE jobs SET status = ?, error_message = ?, completed_at = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusFailed, message, now, now, id, StatusQueued, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// RequestCancel flags a job for cancellation. Queued jobs go terminal
// immediately; running jobs keep processing until the worker observes the
// flag at the next item boundary.
func (s *Store) RequestCancel(ctx context.Context, id string) (*Job, error) {
	ctx = ensureContext(ctx)
	now := timestamp(time.Now())

	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, cancel_requested = 1, completed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCancelled, now, now, id, StatusQueued,
	)
	if err != nil {
		return nil, fmt.Errorf("cancel queued job: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("cancel rows affected: %w", err)
	} else if affected == 1 {
		return s.GetByID(ctx, id)
	}

	res, err = s.execWithRetry(ctx,
		`UPDATE jobs SET cancel_requested = 1, updated_at = ? WHERE id = ? AND status = ?`,
		now, id, StatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("flag running job: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("flag rows affected: %w", err)
	} else if affected == 1 {
		return s.GetByID(ctx, id)
	}

	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: job %s is %s", ErrJobTerminal, id, job.Status)
}

// CancelRequested reports whether a cancel flag is set for the job.
func (s *Store) CancelRequested(ctx context.Context, id string) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT cancel_requested FROM jobs WHERE id = ?`, id).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrJobNotFound
	}
	if err != nil {
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return flag == 1, nil
}

// RetryJob moves a failed or cancelled job back to queued with counters
// reset. Item records from the previous run remain visible until the re-run
// supersedes them item by item.
func (s *Store) RetryJob(ctx context.Context, id string) (*Job, error) {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE jobs SET status = ?, completed = 0, failed = 0, cancel_requested = 0,
            error_message = NULL, started_at = NULL, completed_at = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusQueued, now, id, StatusFailed, StatusCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("retry job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("retry rows affected: %w", err)
	}
	if affected == 0 {
		job, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("jobs: job %s is %s, only failed or cancelled jobs can be retried", id, job.Status)
	}
	return s.GetByID(ctx, id)
}

// ResetStuckRunning returns jobs left running by a crashed process to the
// queue. Counters are reset so the re-run starts clean; item records from
// the interrupted run remain until the re-run supersedes them.
func (s *Store) ResetStuckRunning(ctx context.Context) (int64, error) {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ensureContext(ctx),
		`UPDATE jobs SET status = ?, completed = 0, failed = 0,
            started_at = NULL, updated_at = ?
         WHERE status = ?`,
		StatusQueued, now, StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// ItemRecords returns the per-item outcomes for a job in report order.
func (s *Store) ItemRecords(ctx context.Context, jobID string) ([]ItemRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, job_id, item_id, status, attempts, applied_badges, failed_badges,
            output_path, error_message, elapsed_ms, created_at
         FROM job_items WHERE job_id = ? ORDER BY id ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list item records: %w", err)
	}
	defer rows.Close()

	var records []ItemRecord
	for rows.Next() {
		var (
			record     ItemRecord
			status     string
			applied    sql.NullString
			failed     sql.NullString
			outputPath sql.NullString
			errMessage sql.NullString
			elapsedMS  int64
			createdAt  string
		)
		if err := rows.Scan(&record.ID, &record.JobID, &record.ItemID, &status, &record.Attempts,
			&applied, &failed, &outputPath, &errMessage, &elapsedMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan item record: %w", err)
		}
		record.Status = ItemStatus(status)
		if applied.Valid {
			if err := json.Unmarshal([]byte(applied.String), &record.AppliedBadges); err != nil {
				return nil, fmt.Errorf("decode applied badges: %w", err)
			}
		}
		if failed.Valid {
			if err := json.Unmarshal([]byte(failed.String), &record.FailedBadges); err != nil {
				return nil, fmt.Errorf("decode failed badges: %w", err)
			}
		}
		record.OutputPath = outputPath.String
		record.ErrorMessage = errMessage.String
		record.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if record.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("parse item timestamp: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job        Job
		jobType    string
		status     string
		badgeJSON  string
		itemJSON   string
		cancelFlag int
		errMessage sql.NullString
		extraJSON  sql.NullString
		createdAt  string
		startedAt  sql.NullString
		doneAt     sql.NullString
		updatedAt  string
	)
	if err := row.Scan(&job.ID, &jobType, &status, &badgeJSON, &itemJSON,
		&job.Completed, &job.Failed, &job.Total, &cancelFlag,
		&errMessage, &extraJSON, &createdAt, &startedAt, &doneAt, &updatedAt); err != nil {
		return nil, err
	}

	job.Type = Type(jobType)
	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown job status %q", status)
	}
	job.Status = parsed
	job.CancelRequested = cancelFlag == 1
	job.ErrorMessage = errMessage.String

	if err := json.Unmarshal([]byte(badgeJSON), &job.BadgeTypes); err != nil {
		return nil, fmt.Errorf("decode badge types: %w", err)
	}
	if err := json.Unmarshal([]byte(itemJSON), &job.ItemIDs); err != nil {
		return nil, fmt.Errorf("decode item ids: %w", err)
	}
	if extraJSON.Valid && strings.TrimSpace(extraJSON.String) != "" {
		if err := json.Unmarshal([]byte(extraJSON.String), &job.Extra); err != nil {
			return nil, fmt.Errorf("decode extra fields: %w", err)
		}
	}

	var err error
	if job.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if job.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if startedAt.Valid {
		t, err := parseTimestamp(startedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		job.StartedAt = &t
	}
	if doneAt.Valid {
		t, err := parseTimestamp(doneAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		job.CompletedAt = &t
	}
	return &job, nil
}
