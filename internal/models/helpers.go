package models

import (
	"gorm.io/gorm"
)

// GetPublisherByID retrieves a publisher from the database by id
func GetPublisherByID(id string, db *gorm.DB) (*Publisher, error) {
	publisher := &Publisher{}
	if err := db.Where("id = ? AND is_deleted = false", id).First(publisher).Error; err != nil {
		return nil, err
	}
	return publisher, nil
}

func GetModpackByID(id string, db *gorm.DB) (*Modpack, error) {
	modpack := &Modpack{}
	if err := db.Where("id = ? AND is_deleted = false", id).First(modpack).Error; err != nil {
		return nil, err
	}
	return modpack, nil
}

// GetMembership retrieves the membership row for a (publisher, user) pair
func GetMembership(publisherID, userID string, db *gorm.DB) (*PublisherMember, error) {
	member := &PublisherMember{}
	if err := db.Where("publisher_id = ? AND user_id = ? AND is_deleted = false", publisherID, userID).First(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}
