package permissions

import (
	"context"
	"errors"

	"packvault/internal/models"

	"gorm.io/gorm"
)

// MemberStore reads membership rows. The evaluator only needs lookups;
// mutation goes through RoleService.
type MemberStore interface {
	Membership(ctx context.Context, publisherID, userID string) (*models.PublisherMember, error)
	MemberByID(ctx context.Context, memberID string) (*models.PublisherMember, error)
}

// ScopeStore reads and writes scope rows for one member and target.
// Lookups return ErrNotFound when no row exists; a missing row means
// nothing has been granted.
type ScopeStore interface {
	ScopeFor(ctx context.Context, memberID string, target ScopeTarget) (*models.Scope, error)
	Save(ctx context.Context, scope *models.Scope) error
}

// GormStore backs MemberStore and ScopeStore with the relational schema.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ MemberStore = (*GormStore)(nil)
var _ ScopeStore = (*GormStore)(nil)

func (s *GormStore) Membership(ctx context.Context, publisherID, userID string) (*models.PublisherMember, error) {
	member := &models.PublisherMember{}
	err := s.db.WithContext(ctx).
		Where("publisher_id = ? AND user_id = ? AND is_deleted = false", publisherID, userID).
		First(member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *GormStore) MemberByID(ctx context.Context, memberID string) (*models.PublisherMember, error) {
	member := &models.PublisherMember{}
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = false", memberID).
		First(member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

func (s *GormStore) ScopeFor(ctx context.Context, memberID string, target ScopeTarget) (*models.Scope, error) {
	if !target.Valid() {
		return nil, ErrInvalidScopeTarget
	}

	scope := &models.Scope{}
	query := s.db.WithContext(ctx).Where("publisher_member_id = ? AND is_deleted = false", memberID)
	if publisherID, ok := target.PublisherID(); ok {
		query = query.Where("publisher_id = ? AND modpack_id IS NULL", publisherID)
	} else if modpackID, ok := target.ModpackID(); ok {
		query = query.Where("modpack_id = ? AND publisher_id IS NULL", modpackID)
	}

	if err := query.First(scope).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return scope, nil
}

func (s *GormStore) Save(ctx context.Context, scope *models.Scope) error {
	return s.db.WithContext(ctx).Save(scope).Error
}

// WithTx returns a store bound to the given transaction.
func (s *GormStore) WithTx(tx *gorm.DB) *GormStore {
	return &GormStore{db: tx}
}
