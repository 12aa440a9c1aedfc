package permissions

import (
	"context"
	"testing"

	"packvault/internal/models"

	"github.com/stretchr/testify/assert"
)

func boolPtr(v bool) *bool { return &v }

func TestFlagOverridesApplyIsPartial(t *testing.T) {
	scope := &models.Scope{ModpackView: true, ModpackModify: true}

	FlagOverrides{ModpackModify: boolPtr(false), ModpackPublish: boolPtr(true)}.apply(scope)

	assert.True(t, scope.ModpackView, "untouched flags keep their value")
	assert.False(t, scope.ModpackModify)
	assert.True(t, scope.ModpackPublish)
	assert.False(t, scope.ModpackDelete)
}

func TestFlagOverridesApplyEmptyIsNoop(t *testing.T) {
	scope := &models.Scope{ModpackView: true, PublisherViewStats: true}

	FlagOverrides{}.apply(scope)

	assert.True(t, scope.ModpackView)
	assert.True(t, scope.PublisherViewStats)
}

func TestIsValidFlag(t *testing.T) {
	for _, flag := range AllFlags {
		assert.True(t, IsValidFlag(flag))
	}
	assert.False(t, IsValidFlag("modpack_rm_rf"))
}

func TestGrantRejectsInvalidTargetBeforeAnyWrite(t *testing.T) {
	svc := NewScopeService(nil)

	on := boolPtr(true)
	_, err := svc.Grant(context.Background(), "member-1", ScopeTarget{}, FlagOverrides{ModpackView: on})
	assert.ErrorIs(t, err, ErrInvalidScopeTarget)
}

func TestRevokeRejectsInvalidTargetBeforeAnyWrite(t *testing.T) {
	svc := NewScopeService(nil)

	_, err := svc.Revoke(context.Background(), "member-1", ScopeTarget{}, []Flag{FlagModpackView})
	assert.ErrorIs(t, err, ErrInvalidScopeTarget)
}
