package permissions

import (
	"context"
	"testing"

	"packvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore backs the evaluator with in-memory maps so the decision
// logic is exercised without a database.
type fakeStore struct {
	members map[string]*models.PublisherMember // key publisherID|userID
	scopes  map[string]*models.Scope           // key memberID|target
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members: make(map[string]*models.PublisherMember),
		scopes:  make(map[string]*models.Scope),
	}
}

func (f *fakeStore) addMember(id, publisherID, userID string, role models.MemberRole) *models.PublisherMember {
	member := &models.PublisherMember{
		PublisherID: publisherID,
		UserID:      userID,
		Role:        role,
	}
	member.ID = id
	f.members[publisherID+"|"+userID] = member
	return member
}

func (f *fakeStore) addScope(memberID string, target ScopeTarget, scope *models.Scope) {
	scope.PublisherMemberID = memberID
	f.scopes[memberID+"|"+targetKey(target)] = scope
}

func targetKey(target ScopeTarget) string {
	if publisherID, ok := target.PublisherID(); ok {
		return "org:" + publisherID
	}
	if modpackID, ok := target.ModpackID(); ok {
		return "modpack:" + modpackID
	}
	return "invalid"
}

func (f *fakeStore) Membership(ctx context.Context, publisherID, userID string) (*models.PublisherMember, error) {
	if member, ok := f.members[publisherID+"|"+userID]; ok {
		return member, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) MemberByID(ctx context.Context, memberID string) (*models.PublisherMember, error) {
	for _, member := range f.members {
		if member.ID == memberID {
			return member, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) ScopeFor(ctx context.Context, memberID string, target ScopeTarget) (*models.Scope, error) {
	if scope, ok := f.scopes[memberID+"|"+targetKey(target)]; ok {
		return scope, nil
	}
	return nil, ErrNotFound
}

func (f *fakeStore) Save(ctx context.Context, scope *models.Scope) error {
	return nil
}

func TestHasPermissionNoMembership(t *testing.T) {
	store := newFakeStore()
	eval := NewEvaluator(store, store)

	allowed, err := eval.HasPermission(context.Background(), "stranger", "pub-1", FlagModpackView, "")
	require.NoError(t, err)
	assert.False(t, allowed, "non-members must be denied, not errored")
}

func TestHasPermissionRoleSupremacy(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-owner", "pub-1", "owner-user", models.MemberRoleOwner)
	store.addMember("m-admin", "pub-1", "admin-user", models.MemberRoleAdmin)
	eval := NewEvaluator(store, store)

	// Owners and Admins pass every flag without any scope rows.
	for _, flag := range AllFlags {
		allowed, err := eval.HasPermission(context.Background(), "owner-user", "pub-1", flag, "")
		require.NoError(t, err)
		assert.True(t, allowed, "owner should hold %s", flag)

		allowed, err = eval.HasPermission(context.Background(), "admin-user", "pub-1", flag, "")
		require.NoError(t, err)
		assert.True(t, allowed, "admin should hold %s", flag)
	}
}

func TestHasPermissionMemberDeniedByDefault(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-1", "pub-1", "user-1", models.MemberRoleMember)
	eval := NewEvaluator(store, store)

	for _, flag := range AllFlags {
		allowed, err := eval.HasPermission(context.Background(), "user-1", "pub-1", flag, "")
		require.NoError(t, err)
		assert.False(t, allowed, "member without scopes should be denied %s", flag)
	}
}

func TestHasPermissionOrganizationScope(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-1", "pub-1", "user-1", models.MemberRoleMember)
	store.addScope("m-1", OrganizationTarget("pub-1"), &models.Scope{ModpackView: true})
	eval := NewEvaluator(store, store)

	allowed, err := eval.HasPermission(context.Background(), "user-1", "pub-1", FlagModpackView, "")
	require.NoError(t, err)
	assert.True(t, allowed)

	// The org scope carries only view; other flags stay denied.
	allowed, err = eval.HasPermission(context.Background(), "user-1", "pub-1", FlagModpackModify, "")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermissionModpackScopeIsNarrow(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-1", "pub-1", "user-1", models.MemberRoleMember)
	store.addScope("m-1", ModpackTarget("pack-a"), &models.Scope{ModpackModify: true})
	eval := NewEvaluator(store, store)

	// Grant applies to pack-a only.
	allowed, err := eval.HasPermission(context.Background(), "user-1", "pub-1", FlagModpackModify, "pack-a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = eval.HasPermission(context.Background(), "user-1", "pub-1", FlagModpackModify, "pack-b")
	require.NoError(t, err)
	assert.False(t, allowed)

	// And not to organization-wide checks.
	allowed, err = eval.HasPermission(context.Background(), "user-1", "pub-1", FlagModpackModify, "")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermissionOrgScopeCoversEveryModpack(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-1", "pub-1", "user-1", models.MemberRoleMember)
	store.addScope("m-1", OrganizationTarget("pub-1"), &models.Scope{ModpackManageVersions: true})
	eval := NewEvaluator(store, store)

	allowed, err := eval.HasPermission(context.Background(), "user-1", "pub-1", FlagModpackManageVersions, "any-pack")
	require.NoError(t, err)
	assert.True(t, allowed, "organization grants apply to every modpack")
}

func TestCanViewModpackCreatorBypass(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-1", "pub-1", "user-1", models.MemberRoleMember)
	eval := NewEvaluator(store, store)

	// No scope rows at all, but user-1 authored the pack.
	allowed, err := eval.CanViewModpack(context.Background(), "user-1", "pub-1", "pack-a", "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = eval.CanModifyModpack(context.Background(), "user-1", "pub-1", "pack-a", "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)

	// A different creator means the normal flag path applies.
	allowed, err = eval.CanViewModpack(context.Background(), "user-1", "pub-1", "pack-a", "someone-else")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCreatorBypassRequiresMembership(t *testing.T) {
	store := newFakeStore()
	eval := NewEvaluator(store, store)

	// The creator left the publisher; authorship alone is not enough.
	allowed, err := eval.CanViewModpack(context.Background(), "user-1", "pub-1", "pack-a", "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanManageRoleHierarchy(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-owner", "pub-1", "owner-user", models.MemberRoleOwner)
	store.addMember("m-admin", "pub-1", "admin-user", models.MemberRoleAdmin)
	store.addMember("m-member", "pub-1", "member-user", models.MemberRoleMember)
	eval := NewEvaluator(store, store)

	cases := []struct {
		actor  string
		target models.MemberRole
		want   bool
	}{
		{"owner-user", models.MemberRoleAdmin, true},
		{"owner-user", models.MemberRoleMember, true},
		{"owner-user", models.MemberRoleOwner, false},
		{"admin-user", models.MemberRoleMember, true},
		{"admin-user", models.MemberRoleAdmin, false},
		{"admin-user", models.MemberRoleOwner, false},
		{"member-user", models.MemberRoleMember, false},
		{"stranger", models.MemberRoleMember, false},
	}

	for _, tc := range cases {
		allowed, err := eval.CanManageRole(context.Background(), tc.actor, "pub-1", tc.target)
		require.NoError(t, err)
		assert.Equal(t, tc.want, allowed, "%s managing %s", tc.actor, tc.target)
	}
}

func TestMembershipsAreIndependentAcrossPublishers(t *testing.T) {
	store := newFakeStore()
	store.addMember("m-1", "pub-1", "user-1", models.MemberRoleOwner)
	eval := NewEvaluator(store, store)

	// Owner of pub-1 holds nothing in pub-2.
	allowed, err := eval.HasPermission(context.Background(), "user-1", "pub-2", FlagModpackView, "")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestScopeTargetConstruction(t *testing.T) {
	assert.True(t, OrganizationTarget("pub-1").Valid())
	assert.True(t, ModpackTarget("pack-1").Valid())
	assert.False(t, ScopeTarget{}.Valid())
	assert.False(t, OrganizationTarget("").Valid())

	publisherID, ok := OrganizationTarget("pub-1").PublisherID()
	assert.True(t, ok)
	assert.Equal(t, "pub-1", publisherID)

	_, ok = OrganizationTarget("pub-1").ModpackID()
	assert.False(t, ok)
}

func TestDenialCode(t *testing.T) {
	assert.Equal(t, "MISSING_PERMISSION_MODPACK_VIEW", FlagModpackView.DenialCode())
	assert.Equal(t, "MISSING_PERMISSION_PUBLISHER_VIEW_STATS", FlagPublisherViewStats.DenialCode())
}
