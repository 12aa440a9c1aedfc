package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Publisher struct {
	Base
	Name         string            `gorm:"uniqueIndex;not null" json:"name" validate:"required,min=2"`
	Description  string            `json:"description"`
	BalanceCents int64             `gorm:"not null;default:0" json:"balanceCents"`
	Members      []PublisherMember `gorm:"foreignKey:PublisherID;references:ID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Modpacks     []Modpack         `gorm:"foreignKey:PublisherID;references:ID" json:"modpacks,omitempty"`
	Invites      []PublisherInvite `gorm:"foreignKey:PublisherID;references:ID;constraint:OnDelete:CASCADE" json:"invites,omitempty"`
}

func (p *Publisher) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// PublisherMember is one user's membership in one publisher organization.
// Exactly one row per (publisher, user) pair, enforced by the unique index.
type PublisherMember struct {
	Base
	PublisherID string     `gorm:"type:uuid;not null;uniqueIndex:idx_publisher_user" json:"publisherId" validate:"required,uuid"`
	Publisher   *Publisher `json:"publisher,omitempty"`
	UserID      string     `gorm:"type:uuid;not null;uniqueIndex:idx_publisher_user" json:"userId" validate:"required,uuid"`
	User        *User      `json:"user,omitempty"`
	Role        MemberRole `gorm:"not null;default:'MEMBER'" json:"role" validate:"required,member_role"`
	Scopes      []Scope    `gorm:"foreignKey:PublisherMemberID;constraint:OnDelete:CASCADE" json:"scopes,omitempty"`
}

// Scope is a bundle of granular boolean permissions attached to one
// member and one target. The target is either the whole organization
// (PublisherID set) or a single modpack (ModpackID set), never both.
// Flags default to false; a missing row means nothing is granted.
type Scope struct {
	Base
	PublisherMemberID string           `gorm:"type:uuid;not null;uniqueIndex:idx_member_org;uniqueIndex:idx_member_modpack" json:"publisherMemberId"`
	PublisherMember   *PublisherMember `json:"publisherMember,omitempty"`
	PublisherID       *string          `gorm:"type:uuid;uniqueIndex:idx_member_org" json:"publisherId,omitempty"`
	ModpackID         *string          `gorm:"type:uuid;uniqueIndex:idx_member_modpack" json:"modpackId,omitempty"`

	ModpackView                   bool `gorm:"not null;default:false" json:"modpackView"`
	ModpackModify                 bool `gorm:"not null;default:false" json:"modpackModify"`
	ModpackManageVersions         bool `gorm:"not null;default:false" json:"modpackManageVersions"`
	ModpackPublish                bool `gorm:"not null;default:false" json:"modpackPublish"`
	ModpackDelete                 bool `gorm:"not null;default:false" json:"modpackDelete"`
	ModpackManageAccess           bool `gorm:"not null;default:false" json:"modpackManageAccess"`
	PublisherManageCategoriesTags bool `gorm:"not null;default:false" json:"publisherManageCategoriesTags"`
	PublisherViewStats            bool `gorm:"not null;default:false" json:"publisherViewStats"`
}

type Modpack struct {
	Base
	PublisherID       string            `gorm:"type:uuid;not null;index" json:"publisherId" validate:"required,uuid"`
	Publisher         *Publisher        `json:"publisher,omitempty"`
	CreatorUserID     string            `gorm:"type:uuid;not null" json:"creatorUserId"`
	Creator           *User             `gorm:"foreignKey:CreatorUserID" json:"creator,omitempty"`
	Name              string            `gorm:"not null" json:"name" validate:"required,min=2"`
	Summary           string            `json:"summary"`
	IconPath          string            `json:"iconPath"`
	Published         bool              `gorm:"not null;default:false" json:"published"`
	AcquisitionMethod AcquisitionMethod `gorm:"not null;default:'FREE'" json:"acquisitionMethod" validate:"omitempty,acquisition_method"`
	// Password is only meaningful for AcquisitionMethodPassword. Stored
	// as set by the publisher so it can be read back in the dashboard.
	Password         string            `gorm:"default:NULL" json:"-"`
	PriceCents       int64             `gorm:"not null;default:0" json:"priceCents"`
	Currency         string            `gorm:"default:'USD'" json:"currency"`
	TwitchCreatorIDs datatypes.JSON    `gorm:"type:jsonb" json:"twitchCreatorIds,omitempty"`
	Versions         []ModpackVersion  `gorm:"foreignKey:ModpackID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
}

// TwitchChannelIDs decodes the creator-id list for TwitchSub gating.
func (m *Modpack) TwitchChannelIDs() []string {
	if len(m.TwitchCreatorIDs) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(m.TwitchCreatorIDs, &ids); err != nil {
		return nil
	}
	return ids
}

type ModpackVersion struct {
	Base
	ModpackID     string   `gorm:"type:uuid;not null;index" json:"modpackId" validate:"required,uuid"`
	Modpack       *Modpack `json:"modpack,omitempty"`
	Version       string   `gorm:"not null" json:"version" validate:"required"`
	Changelog     string   `json:"changelog"`
	ArchivePath   string   `gorm:"not null" json:"archivePath"`
	ArchiveSHA256 string   `gorm:"index" json:"archiveSha256"`
	SizeBytes     int64    `json:"sizeBytes"`
	Released      bool     `gorm:"not null;default:false" json:"released"`
	SignedURL     string   `gorm:"-" json:"signedUrl,omitempty"` // Virtual field
}

func (v *ModpackVersion) AfterFind(tx *gorm.DB) error {
	registryMu.RLock()
	generator := urlGenerator
	registryMu.RUnlock()

	if generator != nil && v.Released && v.ArchivePath != "" {
		url, err := generator.GetSignedURL(tx.Statement.Context, v.ArchivePath, time.Hour)
		if err != nil {
			// Missing storage must not break listing metadata.
			return nil
		}
		v.SignedURL = url
	}
	return nil
}

// ModpackAcquisition records that a user obtained access to a modpack.
// One row per (user, modpack); re-acquisition updates the row. Rows are
// never hard-deleted so the access audit trail survives revocation.
type ModpackAcquisition struct {
	Base
	UserID        string            `gorm:"type:uuid;not null;uniqueIndex:idx_user_modpack" json:"userId"`
	User          *User             `json:"user,omitempty"`
	ModpackID     string            `gorm:"type:uuid;not null;uniqueIndex:idx_user_modpack" json:"modpackId"`
	Modpack       *Modpack          `json:"modpack,omitempty"`
	Method        AcquisitionMethod `gorm:"not null" json:"method"`
	TransactionID *string           `gorm:"type:uuid" json:"transactionId,omitempty"`
	Status        AcquisitionStatus `gorm:"not null;default:'ACTIVE'" json:"status"`
}

// Payment is a pending or settled charge against the external provider.
// ProviderRef is the provider's payment id; the unique index is what
// makes webhook retries idempotent.
type Payment struct {
	Base
	UserID      string        `gorm:"type:uuid;not null;index" json:"userId"`
	User        *User         `json:"user,omitempty"`
	ModpackID   string        `gorm:"type:uuid;not null;index" json:"modpackId"`
	Modpack     *Modpack      `json:"modpack,omitempty"`
	PublisherID string        `gorm:"type:uuid;not null;index" json:"publisherId"`
	AmountCents int64         `gorm:"not null" json:"amountCents"`
	Currency    string        `gorm:"not null;default:'USD'" json:"currency"`
	Status      PaymentStatus `gorm:"not null;default:'PENDING'" json:"status"`
	ProviderRef string        `gorm:"uniqueIndex;not null" json:"providerRef"`
	ConfirmedAt *time.Time    `json:"confirmedAt,omitempty"`
}

type PublisherInvite struct {
	Base
	PublisherID string       `gorm:"type:uuid;not null" json:"publisherId" validate:"required,uuid"`
	Publisher   *Publisher   `json:"publisher,omitempty"`
	Email       string       `gorm:"not null" json:"email" validate:"required,email"`
	InviterID   string       `gorm:"type:uuid;not null" json:"inviterId" validate:"required,uuid"`
	Inviter     *User        `json:"inviter,omitempty"`
	Role        MemberRole   `gorm:"not null;default:'MEMBER'" json:"role" validate:"required,oneof=MEMBER ADMIN"`
	Code        string       `gorm:"uniqueIndex;not null" json:"code"`
	Status      InviteStatus `gorm:"not null;default:'PENDING'" json:"status" validate:"omitempty,invite_status"`
	ExpiresAt   time.Time    `gorm:"not null" json:"expiresAt"`
}

// Friendship is a directed request that becomes mutual on accept.
type Friendship struct {
	Base
	RequesterID string           `gorm:"type:uuid;not null;uniqueIndex:idx_requester_addressee" json:"requesterId"`
	Requester   *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AddresseeID string           `gorm:"type:uuid;not null;uniqueIndex:idx_requester_addressee" json:"addresseeId"`
	Addressee   *User            `gorm:"foreignKey:AddresseeID" json:"addressee,omitempty"`
	Status      FriendshipStatus `gorm:"not null;default:'PENDING'" json:"status"`
}

// ActivityEvent is one row in a user's activity feed, materialized from
// bus events by the social layer.
type ActivityEvent struct {
	Base
	UserID  string         `gorm:"type:uuid;not null;index" json:"userId"`
	User    *User          `json:"user,omitempty"`
	Kind    string         `gorm:"not null" json:"kind"` // e.g. "acquisition.created", "friend.accepted"
	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
}

type WithdrawalRequest struct {
	Base
	PublisherID string           `gorm:"type:uuid;not null;index" json:"publisherId"`
	Publisher   *Publisher       `json:"publisher,omitempty"`
	RequesterID string           `gorm:"type:uuid;not null" json:"requesterId"`
	Requester   *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	AmountCents int64            `gorm:"not null" json:"amountCents" validate:"required,min=1"`
	Currency    string           `gorm:"not null;default:'USD'" json:"currency"`
	Status      WithdrawalStatus `gorm:"not null;default:'PENDING'" json:"status" validate:"omitempty,withdrawal_status"`
	ReviewerID  *string          `gorm:"type:uuid" json:"reviewerId,omitempty"`
	ReviewNote  string           `json:"reviewNote"`
	PayoutRef   string           `json:"payoutRef"`
}
