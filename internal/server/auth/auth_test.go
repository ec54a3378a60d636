package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPrivilegesFromRole(t *testing.T) {
	assert.Equal(t, AllPrivileges, PrivilegesFromRole("admin"))
	assert.Equal(t, []Privilege{PrivilegeGet, PrivilegeList, PrivilegeEdit}, PrivilegesFromRole("EDITOR"))
	assert.Equal(t, []Privilege{PrivilegeGet, PrivilegeList}, PrivilegesFromRole("Viewer"))
	assert.Nil(t, PrivilegesFromRole("nosuch"))
}

func TestAuthority(t *testing.T) {
	assert.Equal(t, "entry:get", Authority("", PrivilegeGet))
	assert.Equal(t, "entry:get", Authority("_", PrivilegeGet))
	assert.Equal(t, "tenant1:entry:edit", Authority("tenant1", PrivilegeEdit))
	assert.Equal(t, "*:entry:admin", Authority(WildcardTenant, PrivilegeAdmin))
}

func TestNewUserStoreAdmin(t *testing.T) {
	store, err := NewUserStore(AdminUser{Name: "admin", Password: "changeme"}, nil)
	require.NoError(t, err)

	user, ok := store.Authenticate("admin", "changeme")
	require.True(t, ok)
	assert.True(t, user.HasPrivilege("", PrivilegeAdmin))
	// the wildcard grant covers every tenant
	assert.True(t, user.HasPrivilege("tenant1", PrivilegeEdit))

	_, ok = store.Authenticate("admin", "wrong")
	assert.False(t, ok)
}

func TestParseTenantUser(t *testing.T) {
	store, err := NewUserStore(AdminUser{}, []string{
		"alice|{noop}secret|_=GET,LIST|tenant1=EDIT,DELETE",
	})
	require.NoError(t, err)

	alice, ok := store.Authenticate("alice", "secret")
	require.True(t, ok)
	assert.True(t, alice.HasPrivilege("", PrivilegeGet))
	assert.True(t, alice.HasPrivilege("_", PrivilegeList))
	assert.True(t, alice.HasPrivilege("tenant1", PrivilegeEdit))
	assert.False(t, alice.HasPrivilege("tenant1", PrivilegeGet))
	assert.False(t, alice.HasPrivilege("", PrivilegeEdit))
	assert.False(t, alice.HasPrivilege("tenant2", PrivilegeEdit))
}

func TestParseTenantUserBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cr3t"), bcrypt.MinCost)
	require.NoError(t, err)
	store, err := NewUserStore(AdminUser{}, []string{
		"bob|{bcrypt}" + string(hash) + "|tenant2=GET,LIST",
	})
	require.NoError(t, err)

	_, ok := store.Authenticate("bob", "s3cr3t")
	assert.True(t, ok)
	_, ok = store.Authenticate("bob", "nope")
	assert.False(t, ok)
}

func TestParseTenantUserRejectsMalformed(t *testing.T) {
	for _, def := range []string{
		"",
		"alice",
		"alice|{noop}x",
		"alice|plaintext|_=GET",
		"alice|{noop}x|=GET",
		"alice|{noop}x|_=FLY",
	} {
		_, err := NewUserStore(AdminUser{}, []string{def})
		assert.Error(t, err, "definition %q", def)
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	store, err := NewUserStore(AdminUser{}, []string{"alice|{noop}secret|_=GET,LIST"})
	require.NoError(t, err)
	alice, _ := store.Find("alice")
	secret := []byte("signing-secret")

	token, err := GenerateToken(alice, secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, HasAuthorities(claims.Authorities, "", PrivilegeList))
	assert.False(t, HasAuthorities(claims.Authorities, "", PrivilegeEdit))
}

func TestParseTokenExpired(t *testing.T) {
	store, err := NewUserStore(AdminUser{Name: "admin", Password: "x"}, nil)
	require.NoError(t, err)
	admin, _ := store.Find("admin")
	secret := []byte("signing-secret")

	token, err := GenerateToken(admin, secret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, secret)
	assert.Error(t, err)
}

func TestParseTokenWrongSecret(t *testing.T) {
	store, err := NewUserStore(AdminUser{Name: "admin", Password: "x"}, nil)
	require.NoError(t, err)
	admin, _ := store.Find("admin")

	token, err := GenerateToken(admin, []byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, []byte("wrong"))
	assert.Error(t, err)
}
