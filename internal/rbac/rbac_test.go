package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shopd/internal/domain/user"
)

func TestDefaultGrants(t *testing.T) {
	p := New()

	admin := Subject{UserID: "u1", Roles: []string{user.RoleSuperAdmin}}
	assert.True(t, p.Authorize(admin, "view", "orders"))
	assert.True(t, p.Authorize(admin, "manage", "orders"))
	assert.True(t, p.Authorize(admin, "view", "payments"))
	assert.True(t, p.Authorize(admin, "manage", "products"))
	assert.True(t, p.Authorize(admin, "manage", "users"))

	client := Subject{UserID: "u2", Roles: []string{user.RoleClient}}
	assert.False(t, p.Authorize(client, "view", "orders"))
	assert.False(t, p.Authorize(client, "manage", "products"))

	productManager := Subject{UserID: "u3", Roles: []string{user.RoleProductManager}}
	assert.True(t, p.Authorize(productManager, "manage", "products"))
	assert.False(t, p.Authorize(productManager, "view", "orders"))
}

func TestAnonymousAndUnknownDeny(t *testing.T) {
	p := New()

	assert.False(t, p.Authorize(Subject{}, "view", "orders"))
	assert.False(t, p.Authorize(Subject{UserID: "u1", Roles: []string{"made_up"}}, "view", "orders"))
	assert.False(t, p.Authorize(Subject{UserID: "u1", Roles: []string{user.RoleSuperAdmin}}, "fly", "moon"))
}

func TestGrantExtendsRole(t *testing.T) {
	p := New()
	sub := Subject{UserID: "u1", Roles: []string{"auditor"}}

	assert.False(t, p.Authorize(sub, "view", "payments"))
	p.Grant("auditor", "payments:view")
	assert.True(t, p.Authorize(sub, "view", "payments"))
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, Subject{}, SubjectFor(nil))

	u := &user.User{ID: "u1", Roles: []string{user.RoleClient}}
	sub := SubjectFor(u)
	assert.Equal(t, "u1", sub.UserID)
	assert.Equal(t, []string{user.RoleClient}, sub.Roles)
}
