package permissions

import (
	"context"
	"errors"

	"packvault/internal/models"

	"gorm.io/gorm"
)

// FlagOverrides carries partial flag updates for a grant. Nil fields are
// left untouched so a grant for one flag never clobbers another.
type FlagOverrides struct {
	ModpackView                   *bool `json:"modpackView,omitempty"`
	ModpackModify                 *bool `json:"modpackModify,omitempty"`
	ModpackManageVersions         *bool `json:"modpackManageVersions,omitempty"`
	ModpackPublish                *bool `json:"modpackPublish,omitempty"`
	ModpackDelete                 *bool `json:"modpackDelete,omitempty"`
	ModpackManageAccess           *bool `json:"modpackManageAccess,omitempty"`
	PublisherManageCategoriesTags *bool `json:"publisherManageCategoriesTags,omitempty"`
	PublisherViewStats            *bool `json:"publisherViewStats,omitempty"`
}

func (o FlagOverrides) apply(scope *models.Scope) {
	if o.ModpackView != nil {
		scope.ModpackView = *o.ModpackView
	}
	if o.ModpackModify != nil {
		scope.ModpackModify = *o.ModpackModify
	}
	if o.ModpackManageVersions != nil {
		scope.ModpackManageVersions = *o.ModpackManageVersions
	}
	if o.ModpackPublish != nil {
		scope.ModpackPublish = *o.ModpackPublish
	}
	if o.ModpackDelete != nil {
		scope.ModpackDelete = *o.ModpackDelete
	}
	if o.ModpackManageAccess != nil {
		scope.ModpackManageAccess = *o.ModpackManageAccess
	}
	if o.PublisherManageCategoriesTags != nil {
		scope.PublisherManageCategoriesTags = *o.PublisherManageCategoriesTags
	}
	if o.PublisherViewStats != nil {
		scope.PublisherViewStats = *o.PublisherViewStats
	}
}

// ScopeService performs grant/revoke upserts. Authorization is the
// caller's job (the HTTP layer runs CanManageRole first); this service
// trusts its caller and only enforces target validity.
type ScopeService struct {
	db *gorm.DB
}

func NewScopeService(db *gorm.DB) *ScopeService {
	return &ScopeService{db: db}
}

// Grant upserts the scope row for (member, target) and applies the
// supplied overrides. The whole operation runs in one transaction so
// multi-flag grants are never half-applied.
func (s *ScopeService) Grant(ctx context.Context, memberID string, target ScopeTarget, overrides FlagOverrides) (*models.Scope, error) {
	if !target.Valid() {
		return nil, ErrInvalidScopeTarget
	}

	var result *models.Scope
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewGormStore(tx)

		if _, err := store.MemberByID(ctx, memberID); err != nil {
			return err
		}

		scope, err := store.ScopeFor(ctx, memberID, target)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			// Lazily created on first grant, all flags false.
			scope = &models.Scope{PublisherMemberID: memberID}
			if publisherID, ok := target.PublisherID(); ok {
				scope.PublisherID = &publisherID
			} else if modpackID, ok := target.ModpackID(); ok {
				scope.ModpackID = &modpackID
			}
		}

		overrides.apply(scope)

		if err := store.Save(ctx, scope); err != nil {
			return err
		}
		result = scope
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Revoke clears the named flags on the scope row for (member, target).
// Revoking against a missing row is a no-op success: nothing was
// granted, nothing needs clearing.
func (s *ScopeService) Revoke(ctx context.Context, memberID string, target ScopeTarget, flags []Flag) (*models.Scope, error) {
	if !target.Valid() {
		return nil, ErrInvalidScopeTarget
	}

	var result *models.Scope
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewGormStore(tx)

		scope, err := store.ScopeFor(ctx, memberID, target)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}

		overrides := FlagOverrides{}
		off := false
		for _, flag := range flags {
			switch flag {
			case FlagModpackView:
				overrides.ModpackView = &off
			case FlagModpackModify:
				overrides.ModpackModify = &off
			case FlagModpackManageVersions:
				overrides.ModpackManageVersions = &off
			case FlagModpackPublish:
				overrides.ModpackPublish = &off
			case FlagModpackDelete:
				overrides.ModpackDelete = &off
			case FlagModpackManageAccess:
				overrides.ModpackManageAccess = &off
			case FlagPublisherManageCategoriesTags:
				overrides.PublisherManageCategoriesTags = &off
			case FlagPublisherViewStats:
				overrides.PublisherViewStats = &off
			}
		}
		overrides.apply(scope)

		if err := store.Save(ctx, scope); err != nil {
			return err
		}
		result = scope
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
