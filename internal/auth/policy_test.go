package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-service/internal/apperr"
)

func TestAuthorize(t *testing.T) {
	admin := Identity{UserID: "a1", Role: RoleAdmin, Active: true}
	driver := Identity{UserID: "d1", Role: RoleDriver, Active: true}
	client := Identity{UserID: "c1", Role: RoleClient, Active: true}

	tests := []struct {
		name      string
		id        Identity
		op        Operation
		wantScope Scope
		wantCode  apperr.Code
	}{
		{"admin creates", admin, OpCreateJob, ScopeAll, ""},
		{"admin assigns", admin, OpAssignDriver, ScopeAll, ""},
		{"admin lists users", admin, OpListUsers, ScopeAll, ""},
		{"admin cannot change status", admin, OpChangeStatus, ScopeNone, apperr.CodeForbidden},
		{"admin cannot upload proof", admin, OpUploadProof, ScopeNone, apperr.CodeForbidden},
		{"driver lists assigned", driver, OpListJobs, ScopeAssigned, ""},
		{"driver changes status", driver, OpChangeStatus, ScopeAssigned, ""},
		{"driver cannot assign", driver, OpAssignDriver, ScopeNone, apperr.CodeForbidden},
		{"driver cannot create", driver, OpCreateJob, ScopeNone, apperr.CodeForbidden},
		{"client creates own", client, OpCreateOwnJob, ScopeOwned, ""},
		{"client gets owned", client, OpGetJob, ScopeOwned, ""},
		{"client cannot create as admin", client, OpCreateJob, ScopeNone, apperr.CodeForbidden},
		{"client cannot list users", client, OpListUsers, ScopeNone, apperr.CodeForbidden},
		{"inactive identity", Identity{UserID: "x", Role: RoleAdmin}, OpListJobs, ScopeNone, apperr.CodeUnauthorized},
		{"anonymous", Identity{}, OpListJobs, ScopeNone, apperr.CodeUnauthorized},
		{"unknown role", Identity{UserID: "x", Role: "dispatcher", Active: true}, OpListJobs, ScopeNone, apperr.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := Authorize(tt.id, tt.op)
			assert.Equal(t, tt.wantScope, scope)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperr.CodeOf(err))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Driver ")
	assert.True(t, ok)
	assert.Equal(t, RoleDriver, r)

	_, ok = ParseRole("rider")
	assert.False(t, ok)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Role: RoleClient, Active: true})
	id, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
}
