package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User is a configured API user with the authorities it holds.
type User struct {
	Name        string
	password    string // "{noop}secret" or "{bcrypt}$2a$..."
	authorities map[string]bool
}

// VerifyPassword checks a raw password against the stored encoded form.
func (u *User) VerifyPassword(raw string) bool {
	encoder, encoded, ok := splitEncoded(u.password)
	if !ok {
		return false
	}
	switch encoder {
	case "noop":
		return subtle.ConstantTimeCompare([]byte(encoded), []byte(raw)) == 1
	case "bcrypt":
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
	}
	return false
}

func splitEncoded(password string) (encoder, encoded string, ok bool) {
	if !strings.HasPrefix(password, "{") {
		return "", "", false
	}
	end := strings.Index(password, "}")
	if end < 0 {
		return "", "", false
	}
	return password[1:end], password[end+1:], true
}

// Authorities returns the user's granted authorities.
func (u *User) Authorities() []string {
	list := make([]string, 0, len(u.authorities))
	for a := range u.authorities {
		list = append(list, a)
	}
	return list
}

// HasPrivilege reports whether the user holds the privilege on the tenant,
// either directly or through a wildcard-tenant grant.
func (u *User) HasPrivilege(tenantID string, p Privilege) bool {
	return u.authorities[Authority(tenantID, p)] ||
		u.authorities[Authority(WildcardTenant, p)]
}

// HasAuthorities reports whether the user holds every listed authority
// string, used when rebuilding a user from JWT claims.
func HasAuthorities(authorities []string, tenantID string, p Privilege) bool {
	want := Authority(tenantID, p)
	wildcard := Authority(WildcardTenant, p)
	for _, a := range authorities {
		if a == want || a == wildcard {
			return true
		}
	}
	return false
}

// AdminUser is the operator account from configuration. Its roles grant
// authorities on the default tenant and on every tenant via the wildcard.
type AdminUser struct {
	Name     string
	Password string
	Roles    []string
}

// UserStore holds all configured users.
type UserStore struct {
	users map[string]*User
}

// NewUserStore builds the store from the admin account and the tenant user
// definitions. A definition has the form
//
//	name|{noop}secret|_=GET,LIST|tenant1=EDIT,DELETE
//
// granting the listed privileges per tenant.
func NewUserStore(admin AdminUser, tenantUserDefs []string) (*UserStore, error) {
	users := map[string]*User{}
	if admin.Name != "" {
		authorities := map[string]bool{}
		roles := admin.Roles
		if len(roles) == 0 {
			roles = []string{"ADMIN"}
		}
		for _, role := range roles {
			for _, p := range PrivilegesFromRole(role) {
				authorities[Authority("", p)] = true
				authorities[Authority(WildcardTenant, p)] = true
			}
		}
		password := admin.Password
		if !strings.HasPrefix(password, "{") {
			password = "{noop}" + password
		}
		users[admin.Name] = &User{Name: admin.Name, password: password, authorities: authorities}
	}
	for _, def := range tenantUserDefs {
		user, err := parseTenantUser(def)
		if err != nil {
			return nil, err
		}
		users[user.Name] = user
	}
	return &UserStore{users: users}, nil
}

func parseTenantUser(def string) (*User, error) {
	parts := strings.Split(def, "|")
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid tenant user definition %q: want name|password|tenant=privileges...", def)
	}
	name, password := parts[0], parts[1]
	if name == "" {
		return nil, fmt.Errorf("invalid tenant user definition %q: empty name", def)
	}
	if _, _, ok := splitEncoded(password); !ok {
		return nil, fmt.Errorf("invalid tenant user definition %q: password must carry an {encoder} prefix", def)
	}
	authorities := map[string]bool{}
	for _, grant := range parts[2:] {
		tenantID, privileges, ok := strings.Cut(grant, "=")
		if !ok || tenantID == "" {
			return nil, fmt.Errorf("invalid tenant user grant %q", grant)
		}
		for _, privilegeName := range strings.Split(privileges, ",") {
			p, ok := ParsePrivilege(strings.TrimSpace(privilegeName))
			if !ok {
				return nil, fmt.Errorf("unknown privilege %q in %q", privilegeName, grant)
			}
			authorities[Authority(tenantID, p)] = true
		}
	}
	return &User{Name: name, password: password, authorities: authorities}, nil
}

// Authenticate verifies the credentials and returns the matching user.
func (s *UserStore) Authenticate(name, password string) (*User, bool) {
	user, ok := s.users[name]
	if !ok || !user.VerifyPassword(password) {
		return nil, false
	}
	return user, true
}

// Find returns a user by name.
func (s *UserStore) Find(name string) (*User, bool) {
	user, ok := s.users[name]
	return user, ok
}
