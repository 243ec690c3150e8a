package model

// Roles
const (
	RoleAdmin       = "admin"
	RoleSalesViewer = "sales_viewer"
	RoleUser        = "user"
)

// Permission codes checked by the route guards
const (
	PermSalesView      = "sales.view"
	PermScrapingRun    = "scraping.run"
	PermUsersManage    = "users.manage"
	PermLogsView       = "logs.view"
	PermScheduleManage = "schedule.manage"
)

// ProtectedUsername is the bootstrap account whose role and password cannot be reset by others
const ProtectedUsername = "admin"

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSalesViewer, RoleUser:
		return true
	}
	return false
}

// PermissionsFor returns the permission codes granted to a role.
// Unknown roles get the plain user set.
func PermissionsFor(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{PermSalesView, PermScrapingRun, PermUsersManage, PermLogsView, PermScheduleManage}
	case RoleSalesViewer:
		return []string{PermSalesView}
	default:
		return []string{PermScrapingRun, PermLogsView}
	}
}

// HasPermission reports whether role grants perm
func HasPermission(role, perm string) bool {
	for _, p := range PermissionsFor(role) {
		if p == perm {
			return true
		}
	}
	return false
}
