package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewClient(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Ping to verify connection using a short timeout context
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// RunMigrations creates the schools table and its indexes if they don't exist.
// The unique constraints on email and contact are the single source of truth
// for duplicate rejection.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	query := `
	CREATE TABLE IF NOT EXISTS schools (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		contact TEXT NOT NULL,
		email TEXT NOT NULL,
		image TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		CONSTRAINT unique_email UNIQUE (email),
		CONSTRAINT unique_contact UNIQUE (contact)
	);
	CREATE INDEX IF NOT EXISTS idx_schools_city ON schools (city);
	CREATE INDEX IF NOT EXISTS idx_schools_state ON schools (state);
	CREATE INDEX IF NOT EXISTS idx_schools_name ON schools (name);
	CREATE INDEX IF NOT EXISTS idx_schools_created_at ON schools (created_at);
	`
	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schools table: %w", err)
	}
	return nil
}

// SeedSampleData inserts a handful of well-known schools so a fresh install
// has something to list. Existing rows are left alone.
func SeedSampleData(ctx context.Context, pool *pgxpool.Pool) error {
	samples := []struct {
		name, address, city, state, contact, email string
	}{
		{"Delhi Public School", "Mathura Road, New Delhi - 110076", "New Delhi", "Delhi", "9876543210", "info@dpsdelhi.com"},
		{"Kendriya Vidyalaya No. 1", "Andrews Ganj, New Delhi - 110049", "New Delhi", "Delhi", "9876543211", "kv1delhi@kvs.gov.in"},
		{"Ryan International School", "Sector 25, Rohini, Delhi - 110085", "New Delhi", "Delhi", "9876543212", "admin@ryaninternational.com"},
		{"The Shri Ram School", "Moulsari Avenue, DLF Phase 3, Gurgaon - 122002", "Gurgaon", "Haryana", "9876543213", "info@tsrs.org"},
		{"DAV Public School", "Sector 14, Faridabad - 121007", "Faridabad", "Haryana", "9876543214", "dav.sector14@gmail.com"},
		{"Birla Public School", "Kalyan Vihar, Delhi - 110009", "New Delhi", "Delhi", "9876543215", "info@birlapublicschool.com"},
		{"Modern School", "Barakhamba Road, New Delhi - 110001", "New Delhi", "Delhi", "9876543216", "principal@modernschool.net"},
		{"St. Columba's School", "Ashok Place, New Delhi - 110001", "New Delhi", "Delhi", "9876543217", "office@stcolumbas.org"},
	}

	query := `
		INSERT INTO schools (name, address, city, state, contact, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING
	`
	for _, s := range samples {
		if _, err := pool.Exec(ctx, query, s.name, s.address, s.city, s.state, s.contact, s.email); err != nil {
			return fmt.Errorf("failed to seed school %q: %w", s.name, err)
		}
	}
	return nil
}
