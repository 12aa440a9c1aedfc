package permissions

import (
	"context"
	"errors"

	"packvault/internal/models"
)

// Evaluator decides publisher-management permission checks. It never
// returns an error for "denied" — false means denied, a non-nil error
// means the decision could not be determined (store failure).
type Evaluator struct {
	members MemberStore
	scopes  ScopeStore
}

func NewEvaluator(members MemberStore, scopes ScopeStore) *Evaluator {
	return &Evaluator{members: members, scopes: scopes}
}

// HasPermission checks flag for (user, publisher), optionally narrowed
// to one modpack. First match wins:
//  1. no membership -> deny
//  2. Owner or Admin -> allow
//  3. organization-level scope grants the flag -> allow
//  4. modpack-level scope grants the flag -> allow
//  5. deny
func (e *Evaluator) HasPermission(ctx context.Context, userID, publisherID string, flag Flag, modpackID string) (bool, error) {
	member, err := e.members.Membership(ctx, publisherID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if member.Role == models.MemberRoleOwner || member.Role == models.MemberRoleAdmin {
		return true, nil
	}

	allowed, err := e.scopeAllows(ctx, member.ID, OrganizationTarget(publisherID), flag)
	if err != nil {
		return false, err
	}
	if allowed {
		return true, nil
	}

	if modpackID != "" {
		allowed, err = e.scopeAllows(ctx, member.ID, ModpackTarget(modpackID), flag)
		if err != nil {
			return false, err
		}
		if allowed {
			return true, nil
		}
	}

	return false, nil
}

// CanViewModpack applies the role short-circuit, then the creator
// bypass, then the granular view flag. A member always sees what they
// personally authored.
func (e *Evaluator) CanViewModpack(ctx context.Context, userID, publisherID, modpackID, creatorUserID string) (bool, error) {
	return e.modpackCheck(ctx, userID, publisherID, modpackID, creatorUserID, FlagModpackView)
}

// CanModifyModpack is CanViewModpack for the modify flag.
func (e *Evaluator) CanModifyModpack(ctx context.Context, userID, publisherID, modpackID, creatorUserID string) (bool, error) {
	return e.modpackCheck(ctx, userID, publisherID, modpackID, creatorUserID, FlagModpackModify)
}

func (e *Evaluator) modpackCheck(ctx context.Context, userID, publisherID, modpackID, creatorUserID string, flag Flag) (bool, error) {
	member, err := e.members.Membership(ctx, publisherID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if member.Role == models.MemberRoleOwner || member.Role == models.MemberRoleAdmin {
		return true, nil
	}

	if creatorUserID != "" && creatorUserID == userID {
		return true, nil
	}

	return e.HasPermission(ctx, userID, publisherID, flag, modpackID)
}

// CanManageRole reports whether the actor may assign or revoke
// targetRole inside the publisher. Owner manages everything except
// another Owner; Admin manages only Members; Member manages no one.
func (e *Evaluator) CanManageRole(ctx context.Context, actorUserID, publisherID string, targetRole models.MemberRole) (bool, error) {
	actor, err := e.members.Membership(ctx, publisherID, actorUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	switch actor.Role {
	case models.MemberRoleOwner:
		return targetRole != models.MemberRoleOwner, nil
	case models.MemberRoleAdmin:
		return targetRole == models.MemberRoleMember, nil
	default:
		return false, nil
	}
}

func (e *Evaluator) scopeAllows(ctx context.Context, memberID string, target ScopeTarget, flag Flag) (bool, error) {
	scope, err := e.scopes.ScopeFor(ctx, memberID, target)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return flagValue(scope, flag), nil
}

func flagValue(scope *models.Scope, flag Flag) bool {
	switch flag {
	case FlagModpackView:
		return scope.ModpackView
	case FlagModpackModify:
		return scope.ModpackModify
	case FlagModpackManageVersions:
		return scope.ModpackManageVersions
	case FlagModpackPublish:
		return scope.ModpackPublish
	case FlagModpackDelete:
		return scope.ModpackDelete
	case FlagModpackManageAccess:
		return scope.ModpackManageAccess
	case FlagPublisherManageCategoriesTags:
		return scope.PublisherManageCategoriesTags
	case FlagPublisherViewStats:
		return scope.PublisherViewStats
	default:
		return false
	}
}
