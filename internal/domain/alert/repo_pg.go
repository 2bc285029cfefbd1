package alert

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

const alertCols = `id, patient_id, interaction_type, severity, status,
	description, evidence, recommendation, requires_acknowledgment,
	prescription_id, conflicting_prescription_id,
	acknowledged_by, acknowledged_at,
	overridden_by, override_reason, overridden_at,
	resolved_by, resolved_at, created_at, updated_at`

func scanAlert(row pgx.Row) (*InteractionAlert, error) {
	var a InteractionAlert
	err := row.Scan(&a.ID, &a.PatientID, &a.InteractionType, &a.Severity, &a.Status,
		&a.Description, &a.Evidence, &a.Recommendation, &a.RequiresAcknowledgment,
		&a.PrescriptionID, &a.ConflictingPrescriptionID,
		&a.AcknowledgedBy, &a.AcknowledgedAt,
		&a.OverriddenBy, &a.OverrideReason, &a.OverriddenAt,
		&a.ResolvedBy, &a.ResolvedAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *InteractionAlert) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO interaction_alert (id, patient_id, interaction_type, severity, status,
			description, evidence, recommendation, requires_acknowledgment,
			prescription_id, conflicting_prescription_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.PatientID, a.InteractionType, a.Severity, a.Status,
		a.Description, a.Evidence, a.Recommendation, a.RequiresAcknowledgment,
		a.PrescriptionID, a.ConflictingPrescriptionID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*InteractionAlert, error) {
	return scanAlert(r.conn(ctx).QueryRow(ctx, `SELECT `+alertCols+` FROM interaction_alert WHERE id = $1`, id))
}

// Update persists a lifecycle transition. The row must still be ACTIVE; a
// concurrent transition that got there first leaves zero rows affected and
// surfaces as ErrNotActive.
func (r *repoPG) Update(ctx context.Context, a *InteractionAlert) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE interaction_alert SET status=$2,
			acknowledged_by=$3, acknowledged_at=$4,
			overridden_by=$5, override_reason=$6, overridden_at=$7,
			resolved_by=$8, resolved_at=$9, updated_at=NOW()
		WHERE id = $1 AND status = $10`,
		a.ID, a.Status,
		a.AcknowledgedBy, a.AcknowledgedAt,
		a.OverriddenBy, a.OverrideReason, a.OverriddenAt,
		a.ResolvedBy, a.ResolvedAt, StatusActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing row from one already transitioned.
		if _, getErr := r.GetByID(ctx, a.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrNotActive
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*InteractionAlert, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM interaction_alert WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+alertCols+`
		FROM interaction_alert WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*InteractionAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*InteractionAlert, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+alertCols+`
		FROM interaction_alert WHERE patient_id = $1 AND status = $2
		ORDER BY created_at DESC`, patientID, StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*InteractionAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
