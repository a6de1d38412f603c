package countries

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/marketglobe/internal/database"
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/rs/zerolog"
)

// Repository persists the latest country snapshot in countries.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a countries repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "countries").Logger(),
	}
}

// ReplaceAll swaps the stored snapshot for countries in one transaction.
func (r *Repository) ReplaceAll(countries []domain.Country) error {
	now := time.Now().Unix()

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM countries"); err != nil {
			return fmt.Errorf("failed to clear countries: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO countries (id, name, iso_code, performance, position, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, c := range countries {
			var perf sql.NullFloat64
			if c.Performance != nil {
				perf = sql.NullFloat64{Float64: *c.Performance, Valid: true}
			}
			if _, err := stmt.Exec(c.ID, c.Name, c.ISOCode, perf, i, now); err != nil {
				return fmt.Errorf("failed to insert country %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// GetAll returns the stored countries in their original order.
func (r *Repository) GetAll() ([]domain.Country, error) {
	rows, err := r.db.Query("SELECT id, name, iso_code, performance FROM countries ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer rows.Close()

	var out []domain.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID returns one country or domain.ErrCountryNotFound.
func (r *Repository) GetByID(id string) (domain.Country, error) {
	row := r.db.QueryRow("SELECT id, name, iso_code, performance FROM countries WHERE id = ?", id)
	c, err := scanCountry(row)
	if err == sql.ErrNoRows {
		return domain.Country{}, fmt.Errorf("country %s: %w", id, domain.ErrCountryNotFound)
	}
	return c, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCountry(s scanner) (domain.Country, error) {
	var c domain.Country
	var perf sql.NullFloat64
	if err := s.Scan(&c.ID, &c.Name, &c.ISOCode, &perf); err != nil {
		if err == sql.ErrNoRows {
			return c, err
		}
		return c, fmt.Errorf("failed to scan country: %w", err)
	}
	if perf.Valid {
		c.Performance = domain.Float(perf.Float64)
	}
	return c, nil
}
