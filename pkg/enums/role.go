package enums

// Role maps to the role column on users.
type Role string

const (
	RolePatient Role = "patient"
	RoleNurse   Role = "nurse"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
	RoleUnknown Role = "unknown"
)

var validRoles = []Role{
	RolePatient,
	RoleNurse,
	RoleDoctor,
	RoleAdmin,
	RoleUnknown,
}

// IsValid checks whether the given role matches the canonical enum.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw strings into Role. Unrecognized or empty values map
// to RolePatient, matching how legacy records default.
func ParseRole(value string) Role {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate
		}
	}
	return RolePatient
}

var defaultPermissions = map[Role][]string{
	RolePatient: {
		"profile:read",
		"profile:update",
		"appointments:request",
		"videos:watch",
		"predictions:create",
	},
	RoleNurse: {
		"profile:read",
		"profile:update",
		"appointments:manage",
		"patients:read",
	},
	RoleDoctor: {
		"profile:read",
		"profile:update",
		"appointments:manage",
		"patients:read",
		"patients:update",
	},
	RoleAdmin: {
		"profile:read",
		"profile:update",
		"appointments:manage",
		"patients:read",
		"patients:update",
		"catalog:manage",
		"users:manage",
	},
	RoleUnknown: {},
}

// DefaultPermissions returns the canonical permission set for a role. The
// returned slice is a copy and safe to mutate.
func DefaultPermissions(role Role) []string {
	perms, ok := defaultPermissions[role]
	if !ok {
		perms = defaultPermissions[RolePatient]
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
