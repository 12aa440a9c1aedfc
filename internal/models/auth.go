package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	Base
	Email          string               `gorm:"uniqueIndex;not null" json:"email"`
	Password       string               `gorm:"not null" json:"-"`
	DisplayName    string               `json:"displayName"`
	SiteRole       SiteRole             `gorm:"not null;default:'USER'" json:"siteRole"`
	AvatarFileID   string               `gorm:"type:uuid;default:NULL" json:"avatarFileId,omitempty"`
	LinkedAccounts []LinkedAccount      `gorm:"foreignKey:UserID" json:"linkedAccounts,omitempty"`
	Memberships    []PublisherMember    `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Acquisitions   []ModpackAcquisition `gorm:"foreignKey:UserID" json:"acquisitions,omitempty"`
}

// LinkedAccount stores an OAuth identity (Discord, Twitch or Patreon)
// attached to a user. The Twitch link is what the acquisition gate uses
// to resolve the viewer's Twitch user id.
type LinkedAccount struct {
	Base
	UserID         string         `gorm:"type:uuid;not null;uniqueIndex:idx_user_provider" json:"userId"`
	User           *User          `json:"user,omitempty"`
	Provider       string         `gorm:"not null;uniqueIndex:idx_user_provider" json:"provider"` // 'discord', 'twitch', 'patreon'
	ProviderUserID string         `gorm:"index;not null" json:"providerUserId"`
	ProviderData   datatypes.JSON `gorm:"type:jsonb" json:"providerData,omitempty"`
}

type PasswordReset struct {
	Base
	User      *User     `json:"user,omitempty"`
	UserID    string    `gorm:"type:uuid;not null" json:"userId"`
	Code      string    `gorm:"not null" json:"code"`
	Used      bool      `gorm:"default:false" json:"used"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AuthTransaction struct {
	Base
	UserID    string    `gorm:"type:uuid;not null" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Token     string    `gorm:"not null" json:"token"`
	Refresh   string    `gorm:"not null" json:"refresh"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
}
