package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxIface is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores patients in the relational database. The
// appointment reverse index lives in a TEXT[] column mutated with array
// functions so concurrent index updates never clobber each other.
type PostgresRepository struct {
	db PgxIface
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db PgxIface) *PostgresRepository {
	if db == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

const patientColumns = `id, name, gender, age, email, phone, appointment_ids, created_at`

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AppointmentIDs == nil {
		p.AppointmentIDs = []string{}
	}
	query := `
		INSERT INTO patients (id, name, gender, age, email, phone, appointment_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, p.ID, p.Name, p.Gender, p.Age, p.Email, p.Phone, p.AppointmentIDs).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("patients: insert failed: %w", err)
	}
	return nil
}

// GetByID retrieves a single row.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	row := r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: load: %w", err)
	}
	return p, nil
}

// List returns all rows ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()

	out := make([]Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: rows: %w", err)
	}
	return out, nil
}

// Delete removes the row entirely.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddAppointment appends the appointment id to the index unless already
// present.
func (r *PostgresRepository) AddAppointment(ctx context.Context, patientID, appointmentID string) error {
	query := `
		UPDATE patients
		SET appointment_ids = array_append(appointment_ids, $2)
		WHERE id = $1 AND NOT ($2 = ANY(appointment_ids))
	`
	if _, err := r.db.Exec(ctx, query, patientID, appointmentID); err != nil {
		return fmt.Errorf("patients: index appointment: %w", err)
	}
	return nil
}

// RemoveAppointment drops the appointment id from the index.
func (r *PostgresRepository) RemoveAppointment(ctx context.Context, patientID, appointmentID string) error {
	query := `UPDATE patients SET appointment_ids = array_remove(appointment_ids, $2) WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, patientID, appointmentID); err != nil {
		return fmt.Errorf("patients: unindex appointment: %w", err)
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.Name, &p.Gender, &p.Age, &p.Email, &p.Phone, &p.AppointmentIDs, &p.CreatedAt); err != nil {
		return nil, err
	}
	if p.AppointmentIDs == nil {
		p.AppointmentIDs = []string{}
	}
	return &p, nil
}

var _ Repository = (*PostgresRepository)(nil)
