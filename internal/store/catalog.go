package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/soyeahso/annobot/internal/domain"
)

// ErrJobNotFound is returned when a job ID is not in the catalog.
var ErrJobNotFound = errors.New("job not found")

// AddJob inserts or replaces a job. An empty ID is filled with a new UUID.
func (db *DB) AddJob(job domain.Job) (domain.Job, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.StartFrame != nil && job.StopFrame != nil && *job.StartFrame > *job.StopFrame {
		return domain.Job{}, fmt.Errorf("job %s: start frame %d after stop frame %d", job.ID, *job.StartFrame, *job.StopFrame)
	}

	_, err := db.sql.Exec(
		`INSERT INTO jobs (id, name, start_frame, stop_frame) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			start_frame = excluded.start_frame, stop_frame = excluded.stop_frame`,
		job.ID, job.Name, nullInt(job.StartFrame), nullInt(job.StopFrame),
	)
	if err != nil {
		return domain.Job{}, fmt.Errorf("saving job %s: %w", job.ID, err)
	}
	db.log.Debug().Str("job", job.ID).Msg("job saved")
	return job, nil
}

// GetJob returns the job with the given ID.
func (db *DB) GetJob(id string) (domain.Job, error) {
	row := db.sql.QueryRow(`SELECT id, name, start_frame, stop_frame FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return domain.Job{}, fmt.Errorf("loading job %s: %w", id, err)
	}
	return job, nil
}

// ListJobs returns all jobs ordered by creation.
func (db *DB) ListJobs() ([]domain.Job, error) {
	rows, err := db.sql.Query(`SELECT id, name, start_frame, stop_frame FROM jobs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJob removes a job and its labels.
func (db *DB) DeleteJob(id string) error {
	res, err := db.sql.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return nil
}

// AddLabel adds a label to a job's catalog.
func (db *DB) AddLabel(jobID, name string) (domain.Label, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Label{}, errors.New("label name is required")
	}
	if _, err := db.GetJob(jobID); err != nil {
		return domain.Label{}, err
	}

	label := domain.Label{ID: uuid.NewString(), JobID: jobID, Name: name}
	if _, err := db.sql.Exec(
		`INSERT INTO labels (id, job_id, name) VALUES (?, ?, ?)`,
		label.ID, label.JobID, label.Name,
	); err != nil {
		return domain.Label{}, fmt.Errorf("adding label %q to job %s: %w", name, jobID, err)
	}
	return label, nil
}

// Labels returns a job's label catalog ordered by name.
func (db *DB) Labels(jobID string) ([]domain.Label, error) {
	rows, err := db.sql.Query(`SELECT id, job_id, name FROM labels WHERE job_id = ? ORDER BY name`, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing labels for job %s: %w", jobID, err)
	}
	defer rows.Close()

	labels := []domain.Label{}
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.JobID, &l.Name); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (domain.Job, error) {
	var (
		job         domain.Job
		start, stop sql.NullInt64
	)
	if err := s.Scan(&job.ID, &job.Name, &start, &stop); err != nil {
		return domain.Job{}, err
	}
	job.StartFrame = intPtr(start)
	job.StopFrame = intPtr(stop)
	return job, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
