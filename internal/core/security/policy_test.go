package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
)

func ctxWithRoles(roles ...string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "u1",
		Roles:  roles,
	})
}

func TestPolicy_DefaultRules(t *testing.T) {
	policy, err := NewPolicy(DefaultRules())
	require.NoError(t, err)

	t.Run("admin may delete", func(t *testing.T) {
		assert.NoError(t, policy.Allow(ctxWithRoles("admin"), ActionDelete, "products"))
	})

	t.Run("staff may not delete", func(t *testing.T) {
		err := policy.Allow(ctxWithRoles("staff"), ActionDelete, "products")
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeForbidden, appErr.Code)
	})

	t.Run("unrestricted action allowed for anyone", func(t *testing.T) {
		assert.NoError(t, policy.Allow(ctxWithRoles("staff"), ActionRead, "sales"))
	})

	t.Run("no user context denies restricted action", func(t *testing.T) {
		err := policy.Allow(context.Background(), ActionAuditRead, "sales")
		assert.Error(t, err)
	})
}

func TestPolicy_CustomRule(t *testing.T) {
	policy, err := NewPolicy(map[string]string{
		ActionUpdate: `"admin" in roles || (kind != "invoices" && "staff" in roles)`,
	})
	require.NoError(t, err)

	assert.NoError(t, policy.Allow(ctxWithRoles("staff"), ActionUpdate, "products"))
	assert.Error(t, policy.Allow(ctxWithRoles("staff"), ActionUpdate, "invoices"))
	assert.NoError(t, policy.Allow(ctxWithRoles("admin"), ActionUpdate, "invoices"))
}

func TestPolicy_RejectsNonBoolRule(t *testing.T) {
	_, err := NewPolicy(map[string]string{ActionRead: `kind`})
	assert.Error(t, err)
}

func TestPolicy_RejectsInvalidExpression(t *testing.T) {
	_, err := NewPolicy(map[string]string{ActionRead: `roles ==`})
	assert.Error(t, err)
}
