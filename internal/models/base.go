package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	DeletedAt time.Time `gorm:"index;default:NULL" json:"-" validate:"omitempty"`
	IsDeleted bool      `json:"isDeleted" default:"false"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// SiteRole is the platform-wide role, distinct from publisher membership.
type SiteRole string

const (
	SiteRoleAdmin SiteRole = "ADMIN"
	SiteRoleUser  SiteRole = "USER"
)

// MemberRole is a user's role inside one publisher organization.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

// AcquisitionMethod controls how a modpack can be obtained.
type AcquisitionMethod string

const (
	AcquisitionMethodFree      AcquisitionMethod = "FREE"
	AcquisitionMethodPaid      AcquisitionMethod = "PAID"
	AcquisitionMethodPassword  AcquisitionMethod = "PASSWORD"
	AcquisitionMethodTwitchSub AcquisitionMethod = "TWITCH_SUB"
)

// AcquisitionStatus is the lifecycle state of an acquisition record.
// Records are never hard-deleted, admins flip this instead.
type AcquisitionStatus string

const (
	AcquisitionStatusActive    AcquisitionStatus = "ACTIVE"
	AcquisitionStatusSuspended AcquisitionStatus = "SUSPENDED"
	AcquisitionStatusRevoked   AcquisitionStatus = "REVOKED"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusRejected InviteStatus = "REJECTED"
)

type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "PENDING"
	FriendshipStatusAccepted FriendshipStatus = "ACCEPTED"
	FriendshipStatusDeclined FriendshipStatus = "DECLINED"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusApproved WithdrawalStatus = "APPROVED"
	WithdrawalStatusDenied   WithdrawalStatus = "DENIED"
	WithdrawalStatusPaid     WithdrawalStatus = "PAID"
)

// IsValidMemberRole checks if a given publisher role is valid
func IsValidMemberRole(role MemberRole) bool {
	switch role {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleMember:
		return true
	default:
		return false
	}
}

// IsValidAcquisitionMethod checks if a given acquisition method is valid
func IsValidAcquisitionMethod(method AcquisitionMethod) bool {
	switch method {
	case AcquisitionMethodFree, AcquisitionMethodPaid, AcquisitionMethodPassword, AcquisitionMethodTwitchSub:
		return true
	default:
		return false
	}
}
