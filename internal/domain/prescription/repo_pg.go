package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const prescriptionCols = `id, patient_id, prescriber_id, medication_name, strength,
	dosage_form, route, frequency, quantity, instructions,
	refills_allowed, refills_remaining, status, contraindications_checked,
	approved_by, approved_at, cancelled_by, cancel_reason, cancelled_at,
	version, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.PatientID, &p.PrescriberID, &p.MedicationName, &p.Strength,
		&p.DosageForm, &p.Route, &p.Frequency, &p.Quantity, &p.Instructions,
		&p.RefillsAllowed, &p.RefillsRemaining, &p.Status, &p.ContraindicationsChecked,
		&p.ApprovedBy, &p.ApprovedAt, &p.CancelledBy, &p.CancelReason, &p.CancelledAt,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (id, patient_id, prescriber_id, medication_name, strength,
			dosage_form, route, frequency, quantity, instructions,
			refills_allowed, refills_remaining, status, contraindications_checked, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.PatientID, p.PrescriberID, p.MedicationName, p.Strength,
		p.DosageForm, p.Route, p.Frequency, p.Quantity, p.Instructions,
		p.RefillsAllowed, p.RefillsRemaining, p.Status, p.ContraindicationsChecked, p.Version)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescription SET medication_name=$2, strength=$3, dosage_form=$4, route=$5,
			frequency=$6, quantity=$7, instructions=$8,
			refills_allowed=$9, refills_remaining=$10,
			status=$11, contraindications_checked=$12,
			approved_by=$13, approved_at=$14,
			cancelled_by=$15, cancel_reason=$16, cancelled_at=$17,
			version=version+1, updated_at=NOW()
		WHERE id=$1 AND version=$18`,
		p.ID, p.MedicationName, p.Strength, p.DosageForm, p.Route,
		p.Frequency, p.Quantity, p.Instructions,
		p.RefillsAllowed, p.RefillsRemaining,
		p.Status, p.ContraindicationsChecked,
		p.ApprovedBy, p.ApprovedAt,
		p.CancelledBy, p.CancelReason, p.CancelledAt,
		p.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from a stale version.
		if _, getErr := r.GetByID(ctx, p.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	p.Version++
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Prescription, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	n := 0

	add := func(clause string, v interface{}) {
		n++
		where += fmt.Sprintf(" AND %s = $%d", clause, n)
		args = append(args, v)
	}

	if f.PatientID != uuid.Nil {
		add("patient_id", f.PatientID)
	}
	if f.PrescriberID != "" {
		add("prescriber_id", f.PrescriberID)
	}
	if f.Status != "" {
		add("status", f.Status)
	}
	if f.Medication != "" {
		add("LOWER(medication_name)", strings.ToLower(f.Medication))
	}

	q := r.conn(ctx)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM prescription `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT %s FROM prescription %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		prescriptionCols, where, n+1, n+2), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+prescriptionCols+` FROM prescription
		WHERE patient_id = $1 AND status = $2 ORDER BY created_at DESC`,
		patientID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
