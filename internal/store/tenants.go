// ABOUTME: SQLite implementation for tenant records and usage accounting.
// ABOUTME: Provides API-key/secret-key lookups and the atomic usage increment.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const tenantColumns = `id, name, api_key, secret_key, allowed_origins, plan, usage_count, created_at, updated_at`

// CreateTenant inserts a new tenant record.
// Returns ErrDuplicateKey if the API key or secret key is already taken.
func (s *SQLiteStore) CreateTenant(ctx context.Context, tenant *Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if tenant.Plan == "" {
		tenant.Plan = PlanFree
	}
	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	if tenant.UpdatedAt.IsZero() {
		tenant.UpdatedAt = now
	}

	origins, err := json.Marshal(tenant.AllowedOrigins)
	if err != nil {
		return fmt.Errorf("encoding allowed origins: %w", err)
	}

	query := `
		INSERT INTO tenants (id, name, api_key, secret_key, allowed_origins, plan, usage_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.APIKey,
		tenant.SecretKey,
		string(origins),
		tenant.Plan,
		tenant.UsageCount,
		tenant.CreatedAt.Format(time.RFC3339),
		tenant.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("inserting tenant: %w", err)
	}

	s.logger.Debug("created tenant", "id", tenant.ID, "name", tenant.Name, "plan", tenant.Plan)
	return nil
}

// GetTenantByAPIKey retrieves a tenant by its browser-facing API key.
// Returns ErrNotFound if no tenant holds the key.
func (s *SQLiteStore) GetTenantByAPIKey(ctx context.Context, apiKey string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE api_key = ?`
	return s.scanTenant(s.db.QueryRowContext(ctx, query, apiKey))
}

// GetTenantBySecretKey retrieves a tenant by its backend-facing secret key.
// Returns ErrNotFound if no tenant holds the key. Secret keys are a separate
// namespace from API keys and are never matched against them.
func (s *SQLiteStore) GetTenantBySecretKey(ctx context.Context, secretKey string) (*Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE secret_key = ?`
	return s.scanTenant(s.db.QueryRowContext(ctx, query, secretKey))
}

// IncrementUsage atomically increments the usage counter for the tenant
// identified by apiKey. The single UPDATE makes concurrent increments for the
// same tenant race-free; no increment is ever lost.
// Returns ErrNotFound if no tenant holds the key.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, apiKey string) error {
	query := `
		UPDATE tenants
		SET usage_count = usage_count + 1, updated_at = ?
		WHERE api_key = ?
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), apiKey)
	if err != nil {
		return fmt.Errorf("incrementing usage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// OriginAllowlisted reports whether any tenant allow-lists origin, either
// exactly or via the "*" wildcard. Origins are stored as JSON arrays, so the
// candidate rows are narrowed with a substring match and confirmed in Go.
func (s *SQLiteStore) OriginAllowlisted(ctx context.Context, origin string) (bool, error) {
	if origin == "" {
		return false, nil
	}

	query := `SELECT allowed_origins FROM tenants WHERE allowed_origins LIKE ? OR allowed_origins LIKE '%"*"%'`
	rows, err := s.db.QueryContext(ctx, query, `%"`+origin+`"%`)
	if err != nil {
		return false, fmt.Errorf("querying allowed origins: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var originsJSON string
		if err := rows.Scan(&originsJSON); err != nil {
			return false, fmt.Errorf("scanning allowed origins: %w", err)
		}
		var origins []string
		if err := json.Unmarshal([]byte(originsJSON), &origins); err != nil {
			continue
		}
		for _, o := range origins {
			if o == origin || o == "*" {
				return true, nil
			}
		}
	}
	return false, rows.Err()
}

// scanTenant scans a single tenant row.
func (s *SQLiteStore) scanTenant(row *sql.Row) (*Tenant, error) {
	var t Tenant
	var originsJSON, createdAtStr, updatedAtStr string

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.APIKey,
		&t.SecretKey,
		&originsJSON,
		&t.Plan,
		&t.UsageCount,
		&createdAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}

	_ = json.Unmarshal([]byte(originsJSON), &t.AllowedOrigins) // Best effort: invalid JSON leaves origins empty
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)

	return &t, nil
}
