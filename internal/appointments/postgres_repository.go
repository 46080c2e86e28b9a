package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/healthdesk/scheduler/internal/timeutil"
)

// PgxIface is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database. Dates are
// DATE columns, clock values are minutes-since-midnight SMALLINT columns, so
// the overlap exclusion constraint in the schema compares plain integers.
type PostgresRepository struct {
	db PgxIface
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db PgxIface) *PostgresRepository {
	if db == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const appointmentColumns = `id, doctor_id, patient_id, date, start_min, end_min, type, description, status, created_at, updated_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, apt *Appointment) error {
	if apt.ID == "" {
		apt.ID = uuid.NewString()
	}
	query := `
		INSERT INTO appointments (id, doctor_id, patient_id, date, start_min, end_min, type, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		apt.ID,
		apt.DoctorID,
		apt.PatientID,
		apt.Date.String(),
		int(apt.Start),
		int(apt.End),
		apt.Type,
		apt.Description,
		string(apt.Status),
	).Scan(&apt.CreatedAt, &apt.UpdatedAt); err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID retrieves a single row.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	apt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: load: %w", err)
	}
	return apt, nil
}

// Update replaces all mutable fields of the row.
func (r *PostgresRepository) Update(ctx context.Context, apt *Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $2, patient_id = $3, date = $4, start_min = $5, end_min = $6,
		    type = $7, description = $8, status = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		apt.ID,
		apt.DoctorID,
		apt.PatientID,
		apt.Date.String(),
		int(apt.Start),
		int(apt.End),
		apt.Type,
		apt.Description,
		string(apt.Status),
	).Scan(&apt.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("appointments: update failed: %w", err)
	}
	return nil
}

// UpdateStatus patches only the status column.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	query := `
		UPDATE appointments SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	row := r.db.QueryRow(ctx, query, id, string(status))
	apt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return apt, nil
}

// CancelMany cancels all given ids inside one transaction.
func (r *PostgresRepository) CancelMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin cancel: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, id := range ids {
		tag, err := tx.Exec(ctx, `UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`, id, string(StatusCanceled))
		if err != nil {
			return fmt.Errorf("appointments: cancel %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit cancel: %w", err)
	}
	return nil
}

// Delete removes the row entirely.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all rows ordered by date and start.
func (r *PostgresRepository) List(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY date, start_min, id`)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListByPatient returns the patient's rows.
func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE patient_id = $1 ORDER BY date, start_min, id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("appointments: list by patient: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListInProgress returns all tentative holds.
func (r *PostgresRepository) ListInProgress(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE status = $1 ORDER BY date, start_min, id`, string(StatusInProgress))
	if err != nil {
		return nil, fmt.Errorf("appointments: list in-progress: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *apt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		apt    Appointment
		date   time.Time
		start  int
		end    int
		status string
	)
	if err := row.Scan(&apt.ID, &apt.DoctorID, &apt.PatientID, &date, &start, &end,
		&apt.Type, &apt.Description, &status, &apt.CreatedAt, &apt.UpdatedAt); err != nil {
		return nil, err
	}
	apt.Date = timeutil.DateOf(date)
	apt.Start = timeutil.Minutes(start)
	apt.End = timeutil.Minutes(end)
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	apt.Status = parsed
	return &apt, nil
}

var _ Repository = (*PostgresRepository)(nil)
