package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
)

// User represents a requester identity with authorization attributes.
// Users are provisioned out-of-band and are read-only for the duration
// of a request.
type User struct {
	ID          string
	Name        string
	Roles       []string
	Departments []string
	AccessTags  types.TagSet
}

// Validate checks required fields at the boundary
func (u *User) Validate() error {
	if u.ID == "" {
		return goerr.New("user ID is required")
	}
	if u.Name == "" {
		return goerr.New("user name is required", goerr.V("id", u.ID))
	}
	return nil
}

// IsAdmin reports whether the user carries the administrative tag
func (u *User) IsAdmin() bool {
	return u.AccessTags.Contains(types.TagAdmin)
}
