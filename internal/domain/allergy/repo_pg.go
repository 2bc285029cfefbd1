package allergy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/careops/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const allergyCols = `id, patient_id, substance, substance_class, severity, status,
	reaction, notes, onset_date, recorded_by, created_at, updated_at`

func scanAllergy(row pgx.Row) (*PatientMedicationAllergy, error) {
	var a PatientMedicationAllergy
	err := row.Scan(&a.ID, &a.PatientID, &a.Substance, &a.SubstanceClass, &a.Severity, &a.Status,
		&a.Reaction, &a.Notes, &a.OnsetDate, &a.RecordedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *PatientMedicationAllergy) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_medication_allergy (id, patient_id, substance, substance_class,
			severity, status, reaction, notes, onset_date, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.PatientID, a.Substance, a.SubstanceClass,
		a.Severity, a.Status, a.Reaction, a.Notes, a.OnsetDate, a.RecordedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*PatientMedicationAllergy, error) {
	return scanAllergy(r.conn(ctx).QueryRow(ctx, `SELECT `+allergyCols+` FROM patient_medication_allergy WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *PatientMedicationAllergy) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_medication_allergy SET substance=$2, substance_class=$3, severity=$4,
			status=$5, reaction=$6, notes=$7, onset_date=$8, updated_at=NOW()
		WHERE id=$1`,
		a.ID, a.Substance, a.SubstanceClass, a.Severity,
		a.Status, a.Reaction, a.Notes, a.OnsetDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*PatientMedicationAllergy, int, error) {
	q := r.conn(ctx)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patient_medication_allergy WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `SELECT `+allergyCols+` FROM patient_medication_allergy
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*PatientMedicationAllergy
	for rows.Next() {
		a, err := scanAllergy(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*PatientMedicationAllergy, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+allergyCols+` FROM patient_medication_allergy
		WHERE patient_id = $1 AND status = $2 ORDER BY created_at DESC`,
		patientID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*PatientMedicationAllergy
	for rows.Next() {
		a, err := scanAllergy(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
