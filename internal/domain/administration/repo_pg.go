package administration

import (
	"context"
	"errors"
	"time"

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

const administrationCols = `id, prescription_id, patient_id, administered_by, administered_at,
	dose_given, route, notes, refusal_reason, omission_reason, adverse_reaction,
	created_at, updated_at`

func scanAdministration(row pgx.Row) (*MedicationAdministration, error) {
	var a MedicationAdministration
	err := row.Scan(&a.ID, &a.PrescriptionID, &a.PatientID, &a.AdministeredBy, &a.AdministeredAt,
		&a.DoseGiven, &a.Route, &a.Notes, &a.RefusalReason, &a.OmissionReason, &a.AdverseReaction,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *MedicationAdministration) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication_administration (id, prescription_id, patient_id,
			administered_by, administered_at, dose_given, route,
			notes, refusal_reason, omission_reason, adverse_reaction)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.PrescriptionID, a.PatientID,
		a.AdministeredBy, a.AdministeredAt, a.DoseGiven, a.Route,
		a.Notes, a.RefusalReason, a.OmissionReason, a.AdverseReaction)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicationAdministration, error) {
	return scanAdministration(r.conn(ctx).QueryRow(ctx, `SELECT `+administrationCols+` FROM medication_administration WHERE id = $1`, id))
}

func (r *repoPG) UpdateNarrative(ctx context.Context, a *MedicationAdministration) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication_administration SET notes=$2, refusal_reason=$3,
			omission_reason=$4, adverse_reaction=$5, updated_at=NOW()
		WHERE id=$1`,
		a.ID, a.Notes, a.RefusalReason, a.OmissionReason, a.AdverseReaction)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) list(ctx context.Context, column string, key uuid.UUID, limit, offset int) ([]*MedicationAdministration, int, error) {
	q := r.conn(ctx)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM medication_administration WHERE `+column+` = $1`, key).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `SELECT `+administrationCols+` FROM medication_administration
		WHERE `+column+` = $1 ORDER BY administered_at DESC LIMIT $2 OFFSET $3`,
		key, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*MedicationAdministration
	for rows.Next() {
		a, err := scanAdministration(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicationAdministration, int, error) {
	return r.list(ctx, "patient_id", patientID, limit, offset)
}

func (r *repoPG) ListByPrescription(ctx context.Context, prescriptionID uuid.UUID, limit, offset int) ([]*MedicationAdministration, int, error) {
	return r.list(ctx, "prescription_id", prescriptionID, limit, offset)
}

func (r *repoPG) ListByPatientSince(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*MedicationAdministration, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+administrationCols+` FROM medication_administration
		WHERE patient_id = $1 AND administered_at >= $2 ORDER BY administered_at DESC`,
		patientID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MedicationAdministration
	for rows.Next() {
		a, err := scanAdministration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
