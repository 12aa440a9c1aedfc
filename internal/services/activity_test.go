package services

import (
	"encoding/json"
	"testing"

	"packvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedEntriesMemberAdded(t *testing.T) {
	member := &models.PublisherMember{UserID: "user-1", PublisherID: "pub-1", Role: models.MemberRoleMember}

	entries := feedEntries("member.added", member)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].UserID)
	assert.Equal(t, "member.added", entries[0].Kind)

	var payload models.PublisherMember
	require.NoError(t, json.Unmarshal(entries[0].Payload, &payload))
	assert.Equal(t, "pub-1", payload.PublisherID)
}

func TestFeedEntriesAcquisitionCreated(t *testing.T) {
	acq := &models.ModpackAcquisition{UserID: "user-1", ModpackID: "pack-1", Status: models.AcquisitionStatusActive}

	entries := feedEntries("acquisition.created", acq)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].UserID)
	assert.Equal(t, "acquisition.created", entries[0].Kind)
}

func TestFeedEntriesFriendRequestedNotifiesAddressee(t *testing.T) {
	friendship := &models.Friendship{RequesterID: "user-1", AddresseeID: "user-2"}

	entries := feedEntries("friend.requested", friendship)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-2", entries[0].UserID)
}

func TestFeedEntriesFriendAcceptedNotifiesBothSides(t *testing.T) {
	friendship := &models.Friendship{RequesterID: "user-1", AddresseeID: "user-2", Status: models.FriendshipStatusAccepted}

	entries := feedEntries("friend.accepted", friendship)
	require.Len(t, entries, 2)
	assert.Equal(t, "user-1", entries[0].UserID)
	assert.Equal(t, "user-2", entries[1].UserID)
}

func TestFeedEntriesIgnoresMismatchedPayloads(t *testing.T) {
	assert.Empty(t, feedEntries("member.added", "not-a-member"))
	assert.Empty(t, feedEntries("friend.accepted", &models.PublisherMember{}))
	assert.Empty(t, feedEntries("users.created", &models.User{}))
}
