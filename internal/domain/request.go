package domain

import "time"

// AccessRequest is one evaluation request: who wants to perform what kind
// of access on which resource. Built fresh per check and never reused.
// The group set may be empty; its ordering carries no meaning.
type AccessRequest struct {
	Resource   Resource
	User       string
	UserGroups []string
	Access     AccessType
	AccessTime time.Time
}

// NewAccessRequest builds a request with the access time set to now.
func NewAccessRequest(res Resource, user string, groups []string, access AccessType) *AccessRequest {
	return &AccessRequest{
		Resource:   res,
		User:       user,
		UserGroups: groups,
		Access:     access,
		AccessTime: time.Now(),
	}
}

// HasGroup reports whether the request carries the named group.
func (r *AccessRequest) HasGroup(name string) bool {
	for _, g := range r.UserGroups {
		if g == name {
			return true
		}
	}
	return false
}
