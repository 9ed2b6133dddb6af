package entry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hepacheck/hepacheck/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &entryRepoPG{pool: pool}
}

func (r *entryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, created_at, age, ast, alt, platelets, albumin, bmi,
	glucose, insulin, diabetes, glucose_unit, fib4, apri, nfs, homa_ir, fib4_risk`

func (r *entryRepoPG) scanRow(row pgx.Row) (*Entry, error) {
	var e Entry
	var unit string
	var risk *int16
	err := row.Scan(&e.ID, &e.CreatedAt, &e.Age, &e.AST, &e.ALT, &e.Platelets, &e.Albumin, &e.BMI,
		&e.Glucose, &e.Insulin, &e.Diabetes, &unit, &e.FIB4, &e.APRI, &e.NFS, &e.HOMAIR, &risk)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.GlucoseUnit = glucoseUnitOrDefault(unit)
	if risk != nil {
		code := int(*risk)
		e.FIB4Risk = &code
	}
	return &e, nil
}

func (r *entryRepoPG) Create(ctx context.Context, e *Entry) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO entries (age, ast, alt, platelets, albumin, bmi,
			glucose, insulin, diabetes, glucose_unit, fib4, apri, nfs, homa_ir, fib4_risk)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at`,
		e.Age, e.AST, e.ALT, e.Platelets, e.Albumin, e.BMI,
		e.Glucose, e.Insulin, e.Diabetes, string(glucoseUnitOrDefault(string(e.GlucoseUnit))),
		e.FIB4, e.APRI, e.NFS, e.HOMAIR, riskParam(e.FIB4Risk),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (r *entryRepoPG) GetByID(ctx context.Context, id int64) (*Entry, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+entryCols+` FROM entries WHERE id = $1`, id))
}

func (r *entryRepoPG) Delete(ctx context.Context, id int64) (*Entry, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `DELETE FROM entries WHERE id = $1 RETURNING `+entryCols, id))
}

func (r *entryRepoPG) List(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM entries`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+entryCols+` FROM entries
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Entry{}
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *entryRepoPG) Clear(ctx context.Context) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func riskParam(code *int) *int16 {
	if code == nil {
		return nil
	}
	v := int16(*code)
	return &v
}
