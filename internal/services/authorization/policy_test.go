package authorization

import (
	"testing"

	"gamewallet/internal/models"

	"github.com/stretchr/testify/assert"
)

func principal(tenant, owner string) *AccountFacts {
	return &AccountFacts{Kind: models.KindPrincipal, TenantID: tenant, OwnerID: owner}
}

func player(tenant, agent string) *AccountFacts {
	return &AccountFacts{Kind: models.KindPlayer, TenantID: tenant, AgentID: agent}
}

func TestDecide(t *testing.T) {
	top := models.Actor{ID: "root", Role: models.RoleTop, TenantID: "platform"}
	admin := models.Actor{ID: "adm", Role: models.RoleTenantAdmin, TenantID: "brand-a"}
	agent := models.Actor{ID: "ag-1", Role: models.RoleAgent, TenantID: "brand-a"}

	tests := []struct {
		name       string
		in         Input
		wantAllow  bool
		wantReason string
	}{
		{
			name:      "top mints",
			in:        Input{Actor: top, TenantID: "brand-a", Destination: player("brand-a", ""), IsMint: true},
			wantAllow: true,
		},
		{
			name:       "tenant admin cannot mint",
			in:         Input{Actor: admin, TenantID: "brand-a", Destination: player("brand-a", ""), IsMint: true},
			wantReason: ReasonMintForbidden,
		},
		{
			name:       "agent cannot mint",
			in:         Input{Actor: agent, TenantID: "brand-a", Destination: player("brand-a", "ag-1"), IsMint: true},
			wantReason: ReasonMintForbidden,
		},
		{
			name:      "top inside the request tenant",
			in:        Input{Actor: top, TenantID: "brand-a", Source: player("brand-a", ""), Destination: principal("brand-a", "")},
			wantAllow: true,
		},
		{
			name:       "top cannot mix tenants",
			in:         Input{Actor: top, TenantID: "brand-a", Source: player("brand-a", ""), Destination: player("brand-b", "")},
			wantReason: ReasonCrossTenant,
		},
		{
			name:       "top under another request tenant",
			in:         Input{Actor: top, TenantID: "brand-b", Source: player("brand-a", ""), Destination: player("brand-a", "")},
			wantReason: ReasonCrossTenant,
		},
		{
			name:       "top mints into another tenant",
			in:         Input{Actor: top, TenantID: "platform", Destination: principal("brand-a", ""), IsMint: true},
			wantReason: ReasonCrossTenant,
		},
		{
			name:       "tenant admin outside own tenant",
			in:         Input{Actor: admin, TenantID: "brand-b", Source: player("brand-b", ""), Destination: player("brand-b", "")},
			wantReason: ReasonCrossTenant,
		},
		{
			name:      "tenant admin within tenant",
			in:        Input{Actor: admin, TenantID: "brand-a", Source: principal("brand-a", "x"), Destination: principal("brand-a", "y")},
			wantAllow: true,
		},
		{
			name:       "tenant admin cross tenant",
			in:         Input{Actor: admin, TenantID: "brand-a", Source: player("brand-a", ""), Destination: player("brand-b", "")},
			wantReason: ReasonCrossTenant,
		},
		{
			name:      "agent principal to assigned player",
			in:        Input{Actor: agent, TenantID: "brand-a", Source: principal("brand-a", "ag-1"), Destination: player("brand-a", "ag-1")},
			wantAllow: true,
		},
		{
			name:      "agent assigned player to principal",
			in:        Input{Actor: agent, TenantID: "brand-a", Source: player("brand-a", "ag-1"), Destination: principal("brand-a", "ag-1")},
			wantAllow: true,
		},
		{
			name:       "agent unassigned player",
			in:         Input{Actor: agent, TenantID: "brand-a", Source: principal("brand-a", "ag-1"), Destination: player("brand-a", "ag-2")},
			wantReason: ReasonUnassignedTarget,
		},
		{
			name:       "agent foreign principal",
			in:         Input{Actor: agent, TenantID: "brand-a", Source: principal("brand-a", "someone"), Destination: player("brand-a", "ag-1")},
			wantReason: ReasonUnassignedTarget,
		},
		{
			name:       "agent principal to principal",
			in:         Input{Actor: agent, TenantID: "brand-a", Source: principal("brand-a", "ag-1"), Destination: principal("brand-a", "ag-1")},
			wantReason: ReasonPrincipalToPrincipal,
		},
		{
			name:       "agent player to player",
			in:         Input{Actor: agent, TenantID: "brand-a", Source: player("brand-a", "ag-1"), Destination: player("brand-a", "ag-1")},
			wantReason: ReasonUnassignedTarget,
		},
		{
			name:       "agent cross tenant",
			in:         Input{Actor: agent, TenantID: "brand-a", Source: principal("brand-a", "ag-1"), Destination: player("brand-b", "ag-1")},
			wantReason: ReasonCrossTenant,
		},
		{
			name:       "unknown role",
			in:         Input{Actor: models.Actor{ID: "x", Role: "PLAYER"}, TenantID: "brand-a", Source: player("brand-a", ""), Destination: player("brand-a", "")},
			wantReason: ReasonInsufficientPrivilege,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.in)
			assert.Equal(t, tt.wantAllow, d.Allowed)
			assert.Equal(t, tt.wantReason, d.Reason)
			if !d.Allowed {
				assert.NotEmpty(t, d.Detail)
			}
		})
	}
}

func TestDecideRollback(t *testing.T) {
	tests := []struct {
		name       string
		in         RollbackInput
		wantReason string
	}{
		{"top any tenant", RollbackInput{Actor: models.Actor{Role: models.RoleTop, TenantID: "p"}, EntryTenantID: "brand-a", OriginalIsMint: true}, ""},
		{"admin own tenant", RollbackInput{Actor: models.Actor{Role: models.RoleTenantAdmin, TenantID: "brand-a"}, EntryTenantID: "brand-a"}, ""},
		{"admin other tenant", RollbackInput{Actor: models.Actor{Role: models.RoleTenantAdmin, TenantID: "brand-a"}, EntryTenantID: "brand-b"}, ReasonCrossTenant},
		{"admin mint reversal", RollbackInput{Actor: models.Actor{Role: models.RoleTenantAdmin, TenantID: "brand-a"}, EntryTenantID: "brand-a", OriginalIsMint: true}, ReasonMintForbidden},
		{"agent", RollbackInput{Actor: models.Actor{Role: models.RoleAgent, TenantID: "brand-a"}, EntryTenantID: "brand-a"}, ReasonInsufficientPrivilege},
		{"unknown role", RollbackInput{Actor: models.Actor{Role: "GUEST", TenantID: "brand-a"}, EntryTenantID: "brand-a"}, ReasonInsufficientPrivilege},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecideRollback(tt.in)
			assert.Equal(t, tt.wantReason == "", d.Allowed)
			assert.Equal(t, tt.wantReason, d.Reason)
		})
	}
}

func TestAccountFacts_AssignedTo(t *testing.T) {
	assert.True(t, player("brand-a", "ag-1").AssignedTo("ag-1"))
	assert.False(t, player("brand-a", "ag-1").AssignedTo("ag-2"))
	assert.False(t, player("brand-a", "").AssignedTo(""))
}
