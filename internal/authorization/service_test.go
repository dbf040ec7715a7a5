package authorization

import (
	"context"
	"testing"

	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
	"github.com/smallbiznis/utilibill/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	enforcer, err := NewMemoryEnforcer()
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeMatrix(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    authdomain.Role
		object  string
		action  string
		allowed bool
	}{
		{authdomain.RoleFieldOfficer, ObjectReading, ActionCreate, true},
		{authdomain.RoleFieldOfficer, ObjectReading, ActionDelete, false},
		{authdomain.RoleFieldOfficer, ObjectPayment, ActionCreate, false},
		{authdomain.RoleFieldOfficer, ObjectUtilityType, ActionView, true},
		{authdomain.RoleCashier, ObjectPayment, ActionCreate, true},
		{authdomain.RoleCashier, ObjectBill, ActionMarkOverdue, false},
		{authdomain.RoleCashier, ObjectMeter, ActionView, false},
		{authdomain.RoleCashier, ObjectReport, ActionGenerate, true},
		{authdomain.RoleManager, ObjectBill, ActionMarkOverdue, true},
		{authdomain.RoleManager, ObjectTariff, ActionCreate, false},
		{authdomain.RoleManager, ObjectUser, ActionManage, false},
		{authdomain.RoleAdmin, ObjectTariff, ActionCreate, true},
		{authdomain.RoleAdmin, ObjectUser, ActionManage, true},
		{authdomain.RoleAdmin, ObjectUtilityType, ActionManage, true},
	}
	for _, tc := range cases {
		err := svc.Authorize(ctx, tc.role, tc.object, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s.%s", tc.role, tc.object, tc.action)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s.%s", tc.role, tc.object, tc.action)
		}
	}
}

func TestAuthorizeRejectsUnknownRole(t *testing.T) {
	svc := newTestService(t)
	assert.ErrorIs(t, svc.Authorize(context.Background(), authdomain.Role("Guest"), ObjectBill, ActionView), ErrInvalidRole)
}

func TestNewEnforcerPersistsPolicies(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	first, err := NewEnforcer(conn)
	require.NoError(t, err)
	rules, err := first.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, rules, len(policies()))

	// a second start must not duplicate rules
	second, err := NewEnforcer(conn)
	require.NoError(t, err)
	rules, err = second.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, rules, len(policies()))

	ok, err := second.Enforce(Subject(authdomain.RoleCashier), ObjectPayment, ActionCreate)
	require.NoError(t, err)
	assert.True(t, ok)
}
