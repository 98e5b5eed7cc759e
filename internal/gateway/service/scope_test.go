package service_test

import (
	"errors"
	"testing"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeScopes(t *testing.T) {
	tests := []struct {
		name    string
		granted []string
		req     service.ScopeRequirement
		missing []string
	}{
		{"all of, present", []string{"read:patients"}, service.RequireAll("read:patients"), nil},
		{"all of, absent", []string{"read:patients"}, service.RequireAll("export:data"), []string{"export:data"}},
		{"all of, partial", []string{"a"}, service.RequireAll("a", "b", "c"), []string{"b", "c"}},
		{"any of, one present", []string{"export:data"}, service.RequireAny("read:patients", "export:data"), nil},
		{"any of, none present", []string{"read:assessments"}, service.RequireAny("read:patients", "export:data"), []string{"read:patients", "export:data"}},
		{"empty requirement", nil, service.ScopeRequirement{}, nil},
		{"no grant", nil, service.RequireAll("read:patients"), []string{"read:patients"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.AuthorizeScopes(tt.granted, tt.req)
			if tt.missing == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, service.ErrInsufficientScope)
			var se *service.InsufficientScopeError
			require.True(t, errors.As(err, &se))
			require.Equal(t, tt.missing, se.Missing)
		})
	}
}

func TestScopeRequirementString(t *testing.T) {
	require.Equal(t, "a b", service.RequireAll("a", "b").String())
	require.Equal(t, "a|b", service.RequireAny("a", "b").String())
}
