package permissions

import (
	"context"
	"errors"
	"time"

	"packvault/internal/models"

	"gorm.io/gorm"
)

// RoleService mutates publisher memberships under the role hierarchy
// rules: Owner manages everyone but another Owner, Admin manages only
// Members, Owner rows are immutable and unremovable.
type RoleService struct {
	db        *gorm.DB
	evaluator *Evaluator
}

func NewRoleService(db *gorm.DB, evaluator *Evaluator) *RoleService {
	return &RoleService{db: db, evaluator: evaluator}
}

// AddMember creates a membership row. Duplicate (publisher, user) pairs
// are a Conflict; the unique index backstops the check under races.
func (s *RoleService) AddMember(ctx context.Context, actorUserID, publisherID, userID string, role models.MemberRole) (*models.PublisherMember, error) {
	if role == models.MemberRoleOwner {
		return nil, conflict(CodeOwnerImmutable, "ownership is assigned at publisher creation and cannot be granted")
	}

	allowed, err := s.evaluator.CanManageRole(ctx, actorUserID, publisherID, role)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, conflict(CodeRoleNotManageable, "actor may not assign role %s", role)
	}

	member := &models.PublisherMember{
		PublisherID: publisherID,
		UserID:      userID,
		Role:        role,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PublisherMember{}).
			Where("publisher_id = ? AND user_id = ? AND is_deleted = false", publisherID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict(CodeMemberExists, "user is already a member of this publisher")
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateRole changes a member's role. Owner rows cannot be changed and
// no one can be promoted to Owner through this path.
func (s *RoleService) UpdateRole(ctx context.Context, actorUserID, publisherID, targetMemberID string, newRole models.MemberRole) (*models.PublisherMember, error) {
	if newRole == models.MemberRoleOwner {
		return nil, conflict(CodeOwnerImmutable, "ownership cannot be reassigned")
	}

	var member *models.PublisherMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewGormStore(tx)

		target, err := store.MemberByID(ctx, targetMemberID)
		if err != nil {
			return err
		}
		if target.PublisherID != publisherID {
			return ErrNotFound
		}
		if target.Role == models.MemberRoleOwner {
			return conflict(CodeOwnerImmutable, "the owner's role cannot be changed")
		}

		// The actor must outrank both the current and the new role.
		txEval := NewEvaluator(store, store)
		for _, role := range []models.MemberRole{target.Role, newRole} {
			allowed, err := txEval.CanManageRole(ctx, actorUserID, publisherID, role)
			if err != nil {
				return err
			}
			if !allowed {
				return conflict(CodeRoleNotManageable, "actor may not manage role %s", role)
			}
		}

		target.Role = newRole
		if err := tx.Save(target).Error; err != nil {
			return err
		}
		member = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember soft-deletes a membership and its scope rows. Owners
// cannot be removed through this path.
func (s *RoleService) RemoveMember(ctx context.Context, actorUserID, publisherID, targetMemberID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewGormStore(tx)

		target, err := store.MemberByID(ctx, targetMemberID)
		if err != nil {
			return err
		}
		if target.PublisherID != publisherID {
			return ErrNotFound
		}
		if target.Role == models.MemberRoleOwner {
			return conflict(CodeOwnerImmutable, "the owner cannot be removed")
		}

		txEval := NewEvaluator(store, store)
		allowed, err := txEval.CanManageRole(ctx, actorUserID, publisherID, target.Role)
		if err != nil {
			return err
		}
		if !allowed {
			return conflict(CodeRoleNotManageable, "actor may not remove role %s", target.Role)
		}

		now := time.Now()
		if err := tx.Model(&models.PublisherMember{}).
			Where("id = ?", target.ID).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Scope{}).
			Where("publisher_member_id = ? AND is_deleted = false", target.ID).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	})
}

// IsNotFound reports whether err is the missing-entity sentinel,
// unwrapping gorm's record-not-found as well.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
