package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgUndefinedTable = "42P01"
)

// PostgresStore reads the catalog from a products table:
//
//	CREATE TABLE products (
//	    id               TEXT PRIMARY KEY,
//	    position         INT NOT NULL,
//	    name             TEXT NOT NULL,
//	    popularity_score DOUBLE PRECISION,
//	    weight           DOUBLE PRECISION,
//	    images           JSONB
//	);
//
// NULL numeric columns are left out of the record so the pricing step
// reports them as missing.
type PostgresStore struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, s.db.PingContext)
}

func (s *PostgresStore) Load(ctx context.Context) ([]Record, error) {
	var out []Record

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, popularity_score, weight, images
			FROM products
			ORDER BY position ASC, id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Record, 0, 16)
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCatalogParse, err)
			}
			out = append(out, r)
		}
		return rows.Err()
	})

	if isUndefinedTable(err) {
		return nil, fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		id, name           string
		popularity, weight sql.NullFloat64
		images             []byte
	)
	if err := rows.Scan(&id, &name, &popularity, &weight, &images); err != nil {
		return nil, err
	}

	r := Record{fieldID: id, fieldName: name}
	if popularity.Valid {
		r[fieldPopularity] = popularity.Float64
	}
	if weight.Valid {
		r[fieldWeight] = weight.Float64
	}
	if len(images) > 0 {
		var v map[string]any
		if err := json.Unmarshal(images, &v); err != nil {
			return nil, fmt.Errorf("product %s images: %w", id, err)
		}
		r["images"] = v
	}
	return r, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
