package acquisition

import (
	"context"
	"errors"

	"packvault/internal/models"

	"gorm.io/gorm"
)

// GormStore backs the gate with the relational schema. It also resolves
// Twitch links from the linked-accounts table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)
var _ LinkResolver = (*GormStore)(nil)

func (s *GormStore) Find(ctx context.Context, userID, modpackID string) (*models.ModpackAcquisition, error) {
	acq := &models.ModpackAcquisition{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND modpack_id = ?", userID, modpackID).
		First(acq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return acq, nil
}

func (s *GormStore) Create(ctx context.Context, acquisition *models.ModpackAcquisition) error {
	return s.db.WithContext(ctx).Create(acquisition).Error
}

func (s *GormStore) TwitchUserID(ctx context.Context, userID string) (string, error) {
	link := &models.LinkedAccount{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ? AND is_deleted = false", userID, "twitch").
		First(link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return link.ProviderUserID, nil
}
