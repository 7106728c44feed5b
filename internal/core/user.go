package core

// Role is the coarse permission group of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Capability names a single permission checked by the outer layers.
type Capability int

const (
	CapManageOwnEntries Capability = iota
	CapViewAllUsers
	CapViewRoster
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {CapManageOwnEntries, CapViewAllUsers, CapViewRoster},
	RoleUser:  {CapManageOwnEntries},
}

// User is an identity resolved by the external identity collaborator.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Can reports whether the role grants the capability.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// Can reports whether the user's role grants the capability.
func (u User) Can(c Capability) bool {
	return u.Role.Can(c)
}
