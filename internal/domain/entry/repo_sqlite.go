package entry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type entryRepoSQLite struct{ db *sql.DB }

// NewRepoSQLite stores entries in a database opened with db.OpenSQLite.
// created_at is kept as unix milliseconds.
func NewRepoSQLite(conn *sql.DB) Repository {
	return &entryRepoSQLite{db: conn}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *entryRepoSQLite) scanRow(row rowScanner) (*Entry, error) {
	var (
		e         Entry
		createdMS int64
		diabetes  int64
		unit      string
		risk      sql.NullInt64
	)
	err := row.Scan(&e.ID, &createdMS, &e.Age, &e.AST, &e.ALT, &e.Platelets, &e.Albumin, &e.BMI,
		&e.Glucose, &e.Insulin, &diabetes, &unit, &e.FIB4, &e.APRI, &e.NFS, &e.HOMAIR, &risk)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = time.UnixMilli(createdMS).UTC()
	e.Diabetes = diabetes != 0
	e.GlucoseUnit = glucoseUnitOrDefault(unit)
	if risk.Valid {
		code := int(risk.Int64)
		e.FIB4Risk = &code
	}
	return &e, nil
}

func (r *entryRepoSQLite) Create(ctx context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	var risk sql.NullInt64
	if e.FIB4Risk != nil {
		risk = sql.NullInt64{Int64: int64(*e.FIB4Risk), Valid: true}
	}
	diabetes := 0
	if e.Diabetes {
		diabetes = 1
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (created_at, age, ast, alt, platelets, albumin, bmi,
			glucose, insulin, diabetes, glucose_unit, fib4, apri, nfs, homa_ir, fib4_risk)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.CreatedAt.UnixMilli(), e.Age, e.AST, e.ALT, e.Platelets, e.Albumin, e.BMI,
		e.Glucose, e.Insulin, diabetes, string(glucoseUnitOrDefault(string(e.GlucoseUnit))),
		e.FIB4, e.APRI, e.NFS, e.HOMAIR, risk)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	e.ID = id
	e.CreatedAt = time.UnixMilli(e.CreatedAt.UnixMilli()).UTC()
	return nil
}

func (r *entryRepoSQLite) GetByID(ctx context.Context, id int64) (*Entry, error) {
	return r.scanRow(r.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM entries WHERE id = ?`, id))
}

func (r *entryRepoSQLite) Delete(ctx context.Context, id int64) (*Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e, err := r.scanRow(tx.QueryRowContext(ctx, `SELECT `+entryCols+` FROM entries WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *entryRepoSQLite) List(ctx context.Context, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryCols+` FROM entries
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
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

func (r *entryRepoSQLite) Clear(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
