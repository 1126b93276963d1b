package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/riskhub/platform-core/internal/domain"
	"github.com/riskhub/platform-core/internal/tenant"
)

// The tenants and api_keys tables are deliberately outside row-level
// security: they are what tenant resolution itself reads, before any tenant
// is bound.

func (s *PostgresStore) CreateTenant(ctx context.Context, slug, name string) (*domain.Tenant, string, error) {
	rawKey, keyHash, err := newAPIKey()
	if err != nil {
		return nil, "", err
	}

	var t domain.Tenant
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO tenants (slug, name)
			VALUES ($1, $2)
			RETURNING id, slug, name, active, created_at
		`, slug, name).Scan(&t.ID, &t.Slug, &t.Name, &t.Active, &t.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting tenant: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO api_keys (tenant_id, key_hash, name)
			VALUES ($1, $2, 'provisioning')
		`, t.ID, keyHash)
		if err != nil {
			return fmt.Errorf("inserting api key: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return &t, rawKey, nil
}

// GetBySlug implements tenant.Provider.
func (s *PostgresStore) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, name, active, created_at
		FROM tenants WHERE slug = $1
	`, slug).Scan(&t.ID, &t.Slug, &t.Name, &t.Active, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("querying tenant by slug: %w", err)
	}
	return &t, nil
}

// AuthenticateKey implements tenant.KeyAuthenticator. The raw key is never
// stored; lookup is by SHA-256 digest.
func (s *PostgresStore) AuthenticateKey(ctx context.Context, rawKey string) (*domain.Tenant, string, error) {
	var (
		t      domain.Tenant
		userID *string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT t.id, t.slug, t.name, t.active, t.created_at, k.user_id
		FROM api_keys k
		JOIN tenants t ON t.id = k.tenant_id
		WHERE k.key_hash = $1 AND k.revoked_at IS NULL
	`, hashAPIKey(rawKey)).Scan(&t.ID, &t.Slug, &t.Name, &t.Active, &t.CreatedAt, &userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", tenant.ErrUnauthorizedTenant
		}
		return nil, "", fmt.Errorf("querying api key: %w", err)
	}

	uid := ""
	if userID != nil {
		uid = *userID
	}
	return &t, uid, nil
}

func (s *PostgresStore) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, slug, name, active, created_at
		FROM tenants ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}
		tenants = append(tenants, t)
	}

	if tenants == nil {
		tenants = []domain.Tenant{}
	}
	return tenants, nil
}

// newAPIKey generates a raw bearer key and its storable digest.
func newAPIKey() (raw, digest string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating api key: %w", err)
	}
	raw = "rk_" + hex.EncodeToString(buf)
	return raw, hashAPIKey(raw), nil
}

func hashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
