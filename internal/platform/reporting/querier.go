package reporting

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier runs a read-only query and returns each row as a column map.
type Querier interface {
	Query(ctx context.Context, query string) ([]map[string]interface{}, error)
}

type pgQuerier struct{ pool *pgxpool.Pool }

func PGQuerier(pool *pgxpool.Pool) Querier { return pgQuerier{pool: pool} }

func (q pgQuerier) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

type sqlQuerier struct{ db *sql.DB }

func SQLQuerier(db *sql.DB) Querier { return sqlQuerier{db: db} }

func (q sqlQuerier) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	results := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
