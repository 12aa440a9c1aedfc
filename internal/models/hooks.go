package models

import (
	"packvault/internal/events"

	"gorm.io/gorm"
)

func (m *PublisherMember) AfterCreate(tx *gorm.DB) error {
	events.Emit("member.added", m)
	return nil
}

func (i *PublisherInvite) AfterCreate(tx *gorm.DB) error {
	log.Info("Publisher invite created for %s", i.Email)
	events.Emit("invite.created", i)
	return nil
}

func (a *ModpackAcquisition) AfterCreate(tx *gorm.DB) error {
	events.Emit("acquisition.created", a)
	return nil
}

func (f *Friendship) AfterUpdate(tx *gorm.DB) error {
	if f.Status == FriendshipStatusAccepted {
		events.Emit("friend.accepted", f)
	}
	return nil
}
