package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/riskhub/platform-core/internal/tenant"
)

// tenantSetting is the session variable the row-level-security policies
// consult. The policies are fail-closed: when the variable is unset, every
// RLS-protected query returns no rows rather than all rows.
const tenantSetting = "app.current_tenant"

// BindTenant propagates the request's tenant into the database session so
// row-level-security policies can filter on it. It must run inside the
// transaction the tenant-scoped queries will use; set_config with
// is_local=true scopes the value to that transaction only.
func (s *PostgresStore) BindTenant(ctx context.Context, q Querier) error {
	rc := tenant.FromContext(ctx)
	if rc.TenantID == "" {
		return tenant.ErrMissingTenant
	}

	_, err := q.Exec(ctx, "SELECT set_config($1, $2, true)", tenantSetting, rc.TenantID)
	if err != nil {
		return fmt.Errorf("binding tenant %s: %w", rc.TenantID, err)
	}
	return nil
}

// CurrentTenant reads back the tenant bound to the session, for verification.
// Returns empty when nothing is bound.
func (s *PostgresStore) CurrentTenant(ctx context.Context, q Querier) (string, error) {
	var bound string
	err := q.QueryRow(ctx,
		"SELECT COALESCE(current_setting($1, true), '')", tenantSetting,
	).Scan(&bound)
	if err != nil {
		return "", fmt.Errorf("reading bound tenant: %w", err)
	}
	return bound, nil
}

// InTenantTx runs fn in a transaction with the request's tenant bound for
// row-level security. This is the unit-of-work primitive for all
// tenant-scoped reads and writes: the outbox row, the audit record and the
// domain mutation commit or roll back together. Fails closed when no tenant
// is bound.
func (s *PostgresStore) InTenantTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	if tenant.FromContext(ctx).TenantID == "" {
		return tenant.ErrMissingTenant
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.BindTenant(ctx, tx); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
