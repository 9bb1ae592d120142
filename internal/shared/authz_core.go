package shared

// RoleSuperAdmin is the bypass role. It is exempt from explicit permission
// checks as a code path, never as data, so a seed that omits a mapping can
// not silently strip its access.
const RoleSuperAdmin = "SUPER_ADMIN"

// IsBypassRole reports whether the named role bypasses permission checks.
func IsBypassRole(name string) bool {
	return name == RoleSuperAdmin
}

// Platform permissions.
const (
	PermUsersCreate = "users.create"
	PermUsersRead   = "users.read"
	PermUsersUpdate = "users.update"
	PermUsersDelete = "users.delete"

	PermEntitiesManage = "entities.manage"
	PermRolesManage    = "roles.manage"

	PermAttendanceRead  = "attendance.read"
	PermAttendanceWrite = "attendance.write"

	PermVisitsRead  = "visits.read"
	PermVisitsWrite = "visits.write"

	PermLeadsRead  = "leads.read"
	PermLeadsWrite = "leads.write"

	PermExpensesRead    = "expenses.read"
	PermExpensesWrite   = "expenses.write"
	PermExpensesApprove = "expenses.approve"

	PermDiscrepanciesRead    = "discrepancies.read"
	PermDiscrepanciesWrite   = "discrepancies.write"
	PermDiscrepanciesResolve = "discrepancies.resolve"

	PermRoutesManage = "routes.manage"
	PermAuditRead    = "audit.read"
	PermReportsRead  = "reports.read"
)

// AllPermissions lists every platform permission for seeding.
func AllPermissions() []string {
	return []string{
		PermUsersCreate,
		PermUsersRead,
		PermUsersUpdate,
		PermUsersDelete,
		PermEntitiesManage,
		PermRolesManage,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermVisitsRead,
		PermVisitsWrite,
		PermLeadsRead,
		PermLeadsWrite,
		PermExpensesRead,
		PermExpensesWrite,
		PermExpensesApprove,
		PermDiscrepanciesRead,
		PermDiscrepanciesWrite,
		PermDiscrepanciesResolve,
		PermRoutesManage,
		PermAuditRead,
		PermReportsRead,
	}
}
