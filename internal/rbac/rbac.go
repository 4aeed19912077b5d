package rbac

import "shopd/internal/domain/user"

// Subject is the authenticated principal being authorized.
type Subject struct {
	UserID string
	Roles  []string
}

func SubjectFor(u *user.User) Subject {
	if u == nil {
		return Subject{}
	}
	return Subject{UserID: u.ID, Roles: u.Roles}
}

// Policy is the single authorization evaluation point. Business code asks
// "may this subject perform action on resource" and never inspects roles
// itself.
type Policy struct {
	grants map[string]map[string]bool
}

// New seeds the default role grants. super_admin holds every permission the
// backend knows about; the manager roles mirror the admin tooling split.
func New() *Policy {
	p := &Policy{grants: make(map[string]map[string]bool)}

	p.Grant(user.RoleSuperAdmin,
		"orders:view", "orders:manage",
		"payments:view",
		"products:manage",
		"users:manage",
		"roles:manage",
	)
	p.Grant(user.RoleProductManager, "products:manage")
	p.Grant(user.RoleUserManager, "users:manage")

	return p
}

// Grant adds action:resource permissions to a role.
func (p *Policy) Grant(role string, permissions ...string) {
	set := p.grants[role]
	if set == nil {
		set = make(map[string]bool)
		p.grants[role] = set
	}
	for _, perm := range permissions {
		set[perm] = true
	}
}

// Authorize reports whether the subject may perform action on resource.
// Unknown roles, unknown permissions and the anonymous subject all deny.
func (p *Policy) Authorize(sub Subject, action, resource string) bool {
	perm := resource + ":" + action
	for _, role := range sub.Roles {
		if p.grants[role][perm] {
			return true
		}
	}
	return false
}
