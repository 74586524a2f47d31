package authdomain

// Role represents an actor's role for authorization purposes.
type Role string

const (
	RolePlayer Role = "player"
	RoleStaff  Role = "staff"
	RoleJudge  Role = "judge"
	RoleAdmin  Role = "admin"
)

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RolePlayer, RoleStaff, RoleJudge, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

func (r Role) rank() int {
	switch r {
	case RolePlayer:
		return 1
	case RoleStaff:
		return 2
	case RoleJudge:
		return 3
	case RoleAdmin:
		return 4
	default:
		return 0
	}
}

// Satisfies reports whether r grants at least the privileges of required.
// Judges can do anything staff can; admins can do everything.
func (r Role) Satisfies(required Role) bool {
	return r.IsValid() && r.rank() >= required.rank()
}
