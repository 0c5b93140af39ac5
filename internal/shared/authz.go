package shared

import "strings"

// Roles recognised by the shop.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Ledger permissions.
const (
	PermOrdersView     = "orders.view"
	PermOrdersCreate   = "orders.create"
	PermOrdersEdit     = "orders.edit"
	PermOrdersDelete   = "orders.delete"
	PermPaymentsRecord = "payments.record"
	PermPaymentsEdit   = "payments.edit"

	PermExpensesView = "expenses.view"
	PermExpensesEdit = "expenses.edit"

	PermTransactionsView = "transactions.view"
	PermTransactionsEdit = "transactions.edit"

	PermBalancesView = "balances.view"
	PermBalancesEdit = "balances.edit"

	PermReportsView   = "reports.view"
	PermReportsAdjust = "reports.adjust"

	PermUsersManage = "users.manage"
)

var (
	staffScopes = []string{
		PermOrdersView,
		PermOrdersCreate,
		PermPaymentsRecord,
		PermExpensesView,
	}
	managerScopes = append(append([]string{}, staffScopes...),
		PermOrdersEdit,
		PermPaymentsEdit,
		PermExpensesEdit,
		PermTransactionsView,
		PermTransactionsEdit,
		PermBalancesView,
		PermReportsView,
		PermReportsAdjust,
	)
	adminScopes = append(append([]string{}, managerScopes...),
		PermOrdersDelete,
		PermBalancesEdit,
		PermUsersManage,
	)
)

// ValidRole reports whether role is one of admin, manager or staff.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// RolePermissions lists the permissions granted to role.
func RolePermissions(role string) []string {
	var scopes []string
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleAdmin:
		scopes = adminScopes
	case RoleManager:
		scopes = managerScopes
	case RoleStaff:
		scopes = staffScopes
	}
	return append([]string(nil), scopes...)
}
