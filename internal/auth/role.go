package auth

import (
	"encoding/json"
	"fmt"
)

// Role is the account type of a user.
type Role string

const (
	RoleNone      Role = ""
	RoleParent    Role = "parent"
	RoleClinician Role = "clinician"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

// Roles lists every assignable role.
var Roles = []Role{RoleParent, RoleClinician, RoleTherapist, RoleAdmin}

// ParseRole matches s exactly; "Clinician" is not a role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleParent, RoleClinician, RoleTherapist, RoleAdmin:
		return r, nil
	}
	return RoleNone, fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }

// UnmarshalJSON rejects unknown role strings.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
