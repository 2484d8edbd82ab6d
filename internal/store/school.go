// Package store persists school records. The unique constraints on email and
// contact enforced here are the final arbiter of duplicate rejection; the
// advisory check elsewhere always defers to this layer's result.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"school-directory/internal/models"
)

const pgUniqueViolation = "23505"

type SchoolStore struct {
	pool *pgxpool.Pool
}

func NewSchoolStore(pool *pgxpool.Pool) *SchoolStore {
	return &SchoolStore{pool: pool}
}

// List returns all school records, newest first.
func (s *SchoolStore) List(ctx context.Context) ([]models.School, error) {
	query := `
		SELECT id, name, address, city, state, contact, email, image, created_at, updated_at
		FROM schools
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	defer rows.Close()

	var schools []models.School
	for rows.Next() {
		var sc models.School
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Address, &sc.City, &sc.State, &sc.Contact, &sc.Email, &sc.Image, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, sc)
	}
	return schools, rows.Err()
}

// Insert writes a new record and returns its id. A unique-constraint
// violation comes back as *models.DuplicateError naming the conflicting
// field, even when an earlier advisory check reported no conflict.
func (s *SchoolStore) Insert(ctx context.Context, in models.SchoolInput, imageURL *string) (int64, error) {
	query := `
		INSERT INTO schools (name, address, city, state, contact, email, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := s.pool.QueryRow(ctx, query, in.Name, in.Address, in.City, in.State, in.Contact, in.Email, imageURL).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, &models.DuplicateError{Field: conflictField(pgErr.ConstraintName)}
		}
		return 0, fmt.Errorf("failed to insert school: %w", err)
	}
	return id, nil
}

// EmailExists reports whether any record has the given email. Advisory only.
func (s *SchoolStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT id FROM schools WHERE email = $1 LIMIT 1`, email)
}

// ContactExists reports whether any record has the given contact. Advisory only.
func (s *SchoolStore) ContactExists(ctx context.Context, contact string) (bool, error) {
	return s.exists(ctx, `SELECT id FROM schools WHERE contact = $1 LIMIT 1`, contact)
}

func (s *SchoolStore) exists(ctx context.Context, query, value string) (bool, error) {
	var id int64
	err := s.pool.QueryRow(ctx, query, value).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check existing record: %w", err)
	}
	return true, nil
}

func conflictField(constraint string) string {
	switch {
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "contact"):
		return "contact"
	default:
		return "data"
	}
}
