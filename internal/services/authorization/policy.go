// Package authorization decides whether an actor may move funds between two
// accounts. Decisions are pure: every fact is passed in, nothing is looked up.
package authorization

import (
	"fmt"

	"gamewallet/internal/models"
)

// Reason codes carried by a denial.
const (
	ReasonInsufficientPrivilege = "INSUFFICIENT_PRIVILEGE"
	ReasonCrossTenant           = "CROSS_TENANT"
	ReasonUnassignedTarget      = "UNASSIGNED_TARGET"
	ReasonPrincipalToPrincipal  = "PRINCIPAL_TO_PRINCIPAL"
	ReasonMintForbidden         = "MINT_FORBIDDEN"
)

// AccountFacts are the immutable attributes of an account the policy needs.
type AccountFacts struct {
	Kind     models.AccountKind
	TenantID string
	// OwnerID is the actor owning a principal account.
	OwnerID string
	// AgentID is the restricted agent a player account is assigned to.
	AgentID string
}

// AssignedTo reports whether a player account is assigned to agentID.
func (f *AccountFacts) AssignedTo(agentID string) bool {
	return f.AgentID != "" && f.AgentID == agentID
}

// FactsOf extracts policy facts from a stored account.
func FactsOf(a *models.Account) AccountFacts {
	f := AccountFacts{Kind: a.AccountKind(), TenantID: a.TenantID, OwnerID: a.OwnerID}
	if a.AgentID != nil {
		f.AgentID = *a.AgentID
	}
	return f
}

// Input describes one money movement. Source is nil exactly when IsMint.
// TenantID is the request tenant the entry will be recorded under.
type Input struct {
	Actor       models.Actor
	TenantID    string
	Source      *AccountFacts
	Destination *AccountFacts
	IsMint      bool
}

// Decision is the outcome; Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
	Detail  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason, format string, args ...any) Decision {
	return Decision{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Decide applies the role hierarchy to a transfer or mint.
func Decide(in Input) Decision {
	if !in.Actor.Role.Valid() {
		return deny(ReasonInsufficientPrivilege, "unknown role %q", in.Actor.Role)
	}
	// no role, top included, moves funds of a tenant other than the request's
	for _, f := range []*AccountFacts{in.Source, in.Destination} {
		if f != nil && f.TenantID != in.TenantID {
			return deny(ReasonCrossTenant, "account belongs to tenant %s, request tenant is %s", f.TenantID, in.TenantID)
		}
	}

	if in.IsMint {
		if in.Actor.Role != models.RoleTop {
			return deny(ReasonMintForbidden, "role %s cannot mint", in.Actor.Role)
		}
		return allow()
	}

	switch in.Actor.Role {
	case models.RoleTop:
		return allow()
	case models.RoleTenantAdmin:
		return decideTenantAdmin(in)
	case models.RoleAgent:
		return decideAgent(in)
	}
	return deny(ReasonInsufficientPrivilege, "role %s cannot move funds", in.Actor.Role)
}

func decideTenantAdmin(in Input) Decision {
	if in.TenantID != in.Actor.TenantID {
		return deny(ReasonCrossTenant, "actor belongs to tenant %s", in.Actor.TenantID)
	}
	return allow()
}

func decideAgent(in Input) Decision {
	if d := decideTenantAdmin(in); !d.Allowed {
		return d
	}
	src, dst := in.Source, in.Destination
	if src == nil || dst == nil {
		return deny(ReasonInsufficientPrivilege, "agent movements need both accounts")
	}
	if src.Kind == models.KindPrincipal && dst.Kind == models.KindPrincipal {
		return deny(ReasonPrincipalToPrincipal, "agents cannot move funds between principal accounts")
	}
	for _, f := range []*AccountFacts{src, dst} {
		switch f.Kind {
		case models.KindPrincipal:
			if f.OwnerID != in.Actor.ID {
				return deny(ReasonUnassignedTarget, "principal account is not owned by the agent")
			}
		case models.KindPlayer:
			if !f.AssignedTo(in.Actor.ID) {
				return deny(ReasonUnassignedTarget, "player account is not assigned to the agent")
			}
		default:
			return deny(ReasonUnassignedTarget, "unknown account kind")
		}
	}
	// player to player would bypass the agent's own balance
	if src.Kind == models.KindPlayer && dst.Kind == models.KindPlayer {
		return deny(ReasonUnassignedTarget, "agents move funds only through their own principal account")
	}
	return allow()
}

// RollbackInput describes a compensating reversal of a committed entry.
type RollbackInput struct {
	Actor          models.Actor
	EntryTenantID  string
	OriginalIsMint bool
}

// DecideRollback: TOP may reverse anything; a tenant admin may reverse
// entries of its own tenant except mints; agents may not reverse.
func DecideRollback(in RollbackInput) Decision {
	if !in.Actor.Role.AtLeast(models.RoleTenantAdmin) {
		return deny(ReasonInsufficientPrivilege, "role %q cannot initiate rollbacks", in.Actor.Role)
	}
	if in.Actor.Role == models.RoleTop {
		return allow()
	}
	if in.EntryTenantID != in.Actor.TenantID {
		return deny(ReasonCrossTenant, "entry belongs to tenant %s", in.EntryTenantID)
	}
	if in.OriginalIsMint {
		return deny(ReasonMintForbidden, "only the top role can reverse a mint")
	}
	return allow()
}
