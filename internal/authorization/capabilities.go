package authorization

import (
	"fmt"
	"strings"

	authdomain "github.com/smallbiznis/utilibill/internal/auth/domain"
)

const (
	ObjectCustomer    = "customer"
	ObjectMeter       = "meter"
	ObjectReading     = "reading"
	ObjectBill        = "bill"
	ObjectPayment     = "payment"
	ObjectReport      = "report"
	ObjectTariff      = "tariff"
	ObjectUtilityType = "utility_type"
	ObjectUser        = "user"
)

const (
	ActionView        = "view"
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionManage      = "manage"
	ActionGenerate    = "generate"
	ActionMarkOverdue = "mark_overdue"
)

var (
	admin        = authdomain.RoleAdmin
	manager      = authdomain.RoleManager
	fieldOfficer = authdomain.RoleFieldOfficer
	cashier      = authdomain.RoleCashier
)

type grant struct {
	object  string
	actions []string
	roles   []authdomain.Role
}

// matrix is the complete role capability table. Anything absent is denied.
var matrix = []grant{
	{ObjectCustomer, []string{ActionView}, []authdomain.Role{admin, manager, cashier}},
	{ObjectCustomer, []string{ActionCreate, ActionUpdate, ActionDelete}, []authdomain.Role{admin, manager}},

	{ObjectMeter, []string{ActionView, ActionCreate, ActionUpdate, ActionDelete}, []authdomain.Role{admin, manager, fieldOfficer}},

	{ObjectReading, []string{ActionView, ActionCreate}, []authdomain.Role{admin, manager, fieldOfficer}},
	{ObjectReading, []string{ActionDelete}, []authdomain.Role{admin, manager}},

	{ObjectBill, []string{ActionView}, []authdomain.Role{admin, manager, cashier}},
	{ObjectBill, []string{ActionUpdate, ActionDelete, ActionMarkOverdue}, []authdomain.Role{admin, manager}},

	{ObjectPayment, []string{ActionView, ActionCreate}, []authdomain.Role{admin, manager, cashier}},
	{ObjectPayment, []string{ActionDelete}, []authdomain.Role{admin, manager}},

	{ObjectReport, []string{ActionGenerate}, []authdomain.Role{admin, manager, cashier}},

	{ObjectTariff, []string{ActionView}, []authdomain.Role{admin, manager, cashier}},
	{ObjectTariff, []string{ActionCreate, ActionUpdate, ActionDelete}, []authdomain.Role{admin}},

	{ObjectUtilityType, []string{ActionView}, authdomain.Roles},
	{ObjectUtilityType, []string{ActionManage}, []authdomain.Role{admin}},

	{ObjectUser, []string{ActionView, ActionManage}, []authdomain.Role{admin}},
}

// Subject is the casbin subject for a role, e.g. "role:fieldofficer".
func Subject(role authdomain.Role) string {
	return fmt.Sprintf("role:%s", strings.ToLower(string(role)))
}

func policies() [][]string {
	var out [][]string
	for _, g := range matrix {
		for _, role := range g.roles {
			for _, action := range g.actions {
				out = append(out, []string{Subject(role), g.object, action})
			}
		}
	}
	return out
}
