package services

import (
	"encoding/json"

	"packvault/internal/events"
	"packvault/internal/models"
	"packvault/internal/utils/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityService materializes activity feed rows from bus events, so
// social writes never sit on the request path that emitted them.
type ActivityService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{
		db:  db,
		log: logger.New("activity_service"),
	}
}

var feedEvents = []string{
	"member.added",
	"acquisition.created",
	"friend.requested",
	"friend.accepted",
}

// RegisterHandlers subscribes the feed writers on the default bus. Call
// once at startup, after the database is connected.
func (s *ActivityService) RegisterHandlers() {
	for _, kind := range feedEvents {
		kind := kind
		events.On(kind, func(data interface{}) {
			for _, entry := range feedEntries(kind, data) {
				s.record(entry)
			}
		})
	}
}

// feedEntries maps one bus event to the feed rows it produces. Data that
// does not match the event's payload type produces nothing.
func feedEntries(kind string, data interface{}) []models.ActivityEvent {
	switch kind {
	case "member.added":
		member, ok := data.(*models.PublisherMember)
		if !ok {
			return nil
		}
		return []models.ActivityEvent{feedEntry(member.UserID, kind, member)}

	case "acquisition.created":
		acq, ok := data.(*models.ModpackAcquisition)
		if !ok {
			return nil
		}
		return []models.ActivityEvent{feedEntry(acq.UserID, kind, acq)}

	case "friend.requested":
		friendship, ok := data.(*models.Friendship)
		if !ok {
			return nil
		}
		return []models.ActivityEvent{feedEntry(friendship.AddresseeID, kind, friendship)}

	case "friend.accepted":
		friendship, ok := data.(*models.Friendship)
		if !ok {
			return nil
		}
		// Both sides see the acceptance in their feed.
		return []models.ActivityEvent{
			feedEntry(friendship.RequesterID, kind, friendship),
			feedEntry(friendship.AddresseeID, kind, friendship),
		}
	}
	return nil
}

func feedEntry(userID, kind string, payload interface{}) models.ActivityEvent {
	body, err := json.Marshal(payload)
	if err != nil {
		body = nil
	}
	return models.ActivityEvent{
		UserID:  userID,
		Kind:    kind,
		Payload: datatypes.JSON(body),
	}
}

func (s *ActivityService) record(entry models.ActivityEvent) {
	if entry.UserID == "" {
		return
	}
	if err := s.db.Create(&entry).Error; err != nil {
		_ = s.log.Error("Failed to record activity event", err)
	}
}
