package user

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// GuestName is shown when nobody is signed in.
	GuestName = "Guest"
	// FallbackName is shown for a signed-in user with no name and no email.
	FallbackName = "User"
)

// User is the identity returned by the auth API.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone,omitempty"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	Roles      []Role     `json:"roles"`
	CreatedAt  *Timestamp `json:"created_at,omitempty"`
}

// Timestamp decodes RFC 3339 as well as ISO 8601 without a zone offset,
// which Python backends emit for naive datetimes. Naive values are UTC.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Role groups permissions under a name.
type Role struct {
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// Permission is a named capability.
type Permission struct {
	Name string `json:"name"`
}

// HasRole reports whether any of the user's roles is named role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether any role grants permission.
func (u *User) HasPermission(permission string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		for _, p := range r.Permissions {
			if p.Name == permission {
				return true
			}
		}
	}
	return false
}

// DisplayName returns "first last", then the email, then FallbackName.
// A nil user is a guest.
func (u *User) DisplayName() string {
	if u == nil {
		return GuestName
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return FallbackName
}

// Clone returns a deep copy so callers cannot mutate session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Roles != nil {
		c.Roles = make([]Role, len(u.Roles))
		for i, r := range u.Roles {
			c.Roles[i] = Role{Name: r.Name}
			if r.Permissions != nil {
				c.Roles[i].Permissions = append([]Permission(nil), r.Permissions...)
			}
		}
	}
	if u.CreatedAt != nil {
		ts := *u.CreatedAt
		c.CreatedAt = &ts
	}
	return &c
}

// UnmarshalJSON accepts both {"name": ..., "permissions": [...]} and a bare
// role name, which is how some backends flatten roles.
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = Role{Name: name}
		return nil
	}

	type rawRole Role
	var raw rawRole
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Role(raw)
	return nil
}

// UnmarshalJSON accepts both {"name": ...} and a bare permission name.
func (p *Permission) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = Permission{Name: name}
		return nil
	}

	type rawPermission Permission
	var raw rawPermission
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Permission(raw)
	return nil
}
