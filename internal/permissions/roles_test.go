package permissions

import (
	"context"
	"testing"

	"packvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMemberNeverGrantsOwner(t *testing.T) {
	svc := NewRoleService(nil, nil)

	_, err := svc.AddMember(context.Background(), "actor-1", "pub-1", "user-1", models.MemberRoleOwner)
	require.Error(t, err)

	ce, ok := AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, CodeOwnerImmutable, ce.Code)
}

func TestUpdateRoleNeverPromotesToOwner(t *testing.T) {
	svc := NewRoleService(nil, nil)

	_, err := svc.UpdateRole(context.Background(), "actor-1", "pub-1", "member-1", models.MemberRoleOwner)
	require.Error(t, err)

	ce, ok := AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, CodeOwnerImmutable, ce.Code)
}
