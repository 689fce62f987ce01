// Package models defines the records shared by the session and feed engines.
package models

import (
	"strings"

	"github.com/dmitrijs2005/cribfeed/internal/common"
)

// Role is the kind of account.
type Role string

const (
	RoleArtist Role = "artist"
	RoleViewer Role = "viewer"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleArtist, RoleViewer, RoleAdmin:
		return true
	}
	return false
}

// DefaultLabel is shown next to authors that have no creative discipline.
const DefaultLabel = "Art Enthusiast"

// Account is an identity record. It is immutable once created apart from
// profile edits and counters owned by other subsystems.
type Account struct {
	ID                 string  `json:"id"`
	DisplayName        string  `json:"displayName"`
	Email              string  `json:"email"`
	AvatarRef          *string `json:"avatarRef,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	Role               Role    `json:"role"`
	CreativeDiscipline *string `json:"creativeDiscipline,omitempty"`
	Followers          int     `json:"followers"`
	Following          int     `json:"following"`
	Collaborations     int     `json:"collaborations"`
	WorksPublished     int     `json:"worksPublished"`
}

// Label is the role/discipline text shown alongside the display name.
func (a *Account) Label() string {
	if a.Role == RoleArtist && a.CreativeDiscipline != nil && *a.CreativeDiscipline != "" {
		return *a.CreativeDiscipline
	}
	return DefaultLabel
}

// Validate checks the fields a usable account must carry. It is applied to
// records read back from storage.
func (a *Account) Validate() error {
	var missing []string
	if strings.TrimSpace(a.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(a.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(a.DisplayName) == "" {
		missing = append(missing, "displayName")
	}
	if !a.Role.Valid() {
		missing = append(missing, "role")
	}
	if a.Followers < 0 || a.Following < 0 || a.Collaborations < 0 || a.WorksPublished < 0 {
		missing = append(missing, "counters")
	}
	if len(missing) > 0 {
		return common.NewValidationError("malformed account", missing...)
	}
	return nil
}

// Clone returns a copy that shares no pointers with a.
func (a *Account) Clone() *Account {
	c := *a
	c.AvatarRef = cloneString(a.AvatarRef)
	c.Bio = cloneString(a.Bio)
	c.CreativeDiscipline = cloneString(a.CreativeDiscipline)
	return &c
}

// Optional returns a pointer to s, or nil when s is blank.
func Optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional string.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
