package service

import (
	"slices"
	"strings"
)

// ScopeMode selects how a requirement's scopes combine.
type ScopeMode int

const (
	// AllOf requires every listed scope.
	AllOf ScopeMode = iota
	// AnyOf requires at least one listed scope.
	AnyOf
)

// ScopeRequirement is an endpoint's required-scope expression.
type ScopeRequirement struct {
	Mode   ScopeMode
	Scopes []string
}

// RequireAll builds an all-of requirement.
func RequireAll(scopes ...string) ScopeRequirement {
	return ScopeRequirement{Mode: AllOf, Scopes: scopes}
}

// RequireAny builds an any-of requirement.
func RequireAny(scopes ...string) ScopeRequirement {
	return ScopeRequirement{Mode: AnyOf, Scopes: scopes}
}

func (r ScopeRequirement) String() string {
	sep := " "
	if r.Mode == AnyOf {
		sep = "|"
	}
	return strings.Join(r.Scopes, sep)
}

// AuthorizeScopes checks granted against req. An empty requirement always
// passes. On denial the error is an *InsufficientScopeError naming what was
// missing: every absent scope for AllOf, the whole set for AnyOf.
func AuthorizeScopes(granted []string, req ScopeRequirement) error {
	if len(req.Scopes) == 0 {
		return nil
	}

	var missing []string
	for _, s := range req.Scopes {
		has := slices.Contains(granted, s)
		if req.Mode == AnyOf && has {
			return nil
		}
		if !has {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &InsufficientScopeError{Missing: missing}
}
