// Package auth implements privilege-based authorization for the entry API:
// static users with per-tenant privileges, password verification and JWT
// bearer tokens interchangeable with basic auth.
package auth

import "strings"

// Privilege is one grantable action on the entry resource.
type Privilege string

const (
	PrivilegeGet    Privilege = "get"
	PrivilegeList   Privilege = "list"
	PrivilegeEdit   Privilege = "edit"
	PrivilegeDelete Privilege = "delete"
	PrivilegeImport Privilege = "import"
	PrivilegeExport Privilege = "export"
	PrivilegeAdmin  Privilege = "admin"
)

// AllPrivileges lists every privilege, i.e. what the ADMIN role grants.
var AllPrivileges = []Privilege{
	PrivilegeGet, PrivilegeList, PrivilegeEdit, PrivilegeDelete,
	PrivilegeImport, PrivilegeExport, PrivilegeAdmin,
}

// PrivilegesFromRole expands a role name into its privileges. Unknown roles
// grant nothing.
func PrivilegesFromRole(role string) []Privilege {
	switch strings.ToUpper(role) {
	case "ADMIN":
		return AllPrivileges
	case "EDITOR":
		return []Privilege{PrivilegeGet, PrivilegeList, PrivilegeEdit}
	case "VIEWER":
		return []Privilege{PrivilegeGet, PrivilegeList}
	}
	return nil
}

// ParsePrivilege maps a privilege name, case-insensitively.
func ParsePrivilege(name string) (Privilege, bool) {
	p := Privilege(strings.ToLower(name))
	for _, known := range AllPrivileges {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// entryResource is the only protected resource of this service.
const entryResource = "entry"

// WildcardTenant grants an authority on every tenant.
const WildcardTenant = "*"

// Authority renders the granted-authority string for a privilege on a
// tenant: "entry:get" for the default tenant, "tenant1:entry:get" otherwise.
func Authority(tenantID string, p Privilege) string {
	if tenantID == "" || tenantID == "_" {
		return entryResource + ":" + string(p)
	}
	return tenantID + ":" + entryResource + ":" + string(p)
}
