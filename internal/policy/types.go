// Package policy implements the policy store and evaluator behind the
// domain.PolicyEvaluator port: access policies with wildcard resource
// matchers, row filter policies, and data mask policies.
package policy

import (
	"strings"

	"trinogate/internal/domain"
)

// Wildcard matches any value (including absence) for a resource key.
const Wildcard = "*"

// AccessPolicy allows a set of access types on the resources matched by
// its patterns, for the listed users and groups.
type AccessPolicy struct {
	ID       int64
	Name     string
	Resource map[string]string // resource key -> exact value or Wildcard
	Accesses []domain.AccessType
	Users    []string
	Groups   []string
}

// MatchesResource reports whether the policy covers the resource. Every
// element of the resource must be matched by an equal or wildcard pattern,
// and every non-wildcard pattern of the policy must be matched by an
// element of the resource, so a policy scoped to a specific column never
// covers a whole-table request.
func (p *AccessPolicy) MatchesResource(res domain.Resource) bool {
	elements := res.Elements()
	for key, value := range elements {
		pattern, ok := p.Resource[key]
		if !ok || !matchPattern(pattern, value) {
			return false
		}
	}
	for key, pattern := range p.Resource {
		if _, ok := elements[key]; !ok && pattern != Wildcard {
			return false
		}
	}
	return true
}

// MatchesAccess reports whether the policy allows the access type, either
// directly or through ALL.
func (p *AccessPolicy) MatchesAccess(access domain.AccessType) bool {
	for _, a := range p.Accesses {
		if a == access || a == domain.AccessAll {
			return true
		}
	}
	return false
}

// MatchesPrincipal reports whether the request's user or any of its
// groups is named by the policy.
func (p *AccessPolicy) MatchesPrincipal(req *domain.AccessRequest) bool {
	return matchesPrincipal(p.Users, p.Groups, req)
}

// RowFilterPolicy attaches a filter expression to the tables matched by
// its patterns, for the listed users and groups.
type RowFilterPolicy struct {
	ID         int64
	Name       string
	Catalog    string
	Schema     string
	Table      string
	FilterExpr string
	Users      []string
	Groups     []string
}

// Matches reports whether this policy applies to the request's table and
// principal.
func (p *RowFilterPolicy) Matches(req *domain.AccessRequest) bool {
	res := req.Resource
	return matchPattern(p.Catalog, res.Catalog()) &&
		matchPattern(p.Schema, res.Schema()) &&
		matchPattern(p.Table, res.Table()) &&
		matchesPrincipal(p.Users, p.Groups, req)
}

// DataMaskPolicy attaches a mask type to the columns matched by its
// patterns, for the listed users and groups.
type DataMaskPolicy struct {
	ID          int64
	Name        string
	Catalog     string
	Schema      string
	Table       string
	Column      string
	MaskType    string
	MaskedValue *string
	Users       []string
	Groups      []string
}

// Matches reports whether this policy applies to the request's column and
// principal.
func (p *DataMaskPolicy) Matches(req *domain.AccessRequest) bool {
	res := req.Resource
	column, ok := res.Value(domain.KeyColumn)
	if !ok {
		return false
	}
	return matchPattern(p.Catalog, res.Catalog()) &&
		matchPattern(p.Schema, res.Schema()) &&
		matchPattern(p.Table, res.Table()) &&
		matchPattern(p.Column, column) &&
		matchesPrincipal(p.Users, p.Groups, req)
}

func matchPattern(pattern, value string) bool {
	return pattern == Wildcard || strings.EqualFold(pattern, value)
}

func matchesPrincipal(users, groups []string, req *domain.AccessRequest) bool {
	for _, u := range users {
		if u == req.User {
			return true
		}
	}
	for _, g := range groups {
		if req.HasGroup(g) {
			return true
		}
	}
	return false
}
