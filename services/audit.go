package services

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/MarkoM123/cafe-gaming-platform/models"
	"github.com/MarkoM123/cafe-gaming-platform/utils"
)

// Actor identifies who performed a staff/admin operation. A nil actor
// records an unattributed (system) entry.
type Actor struct {
	ID    *uint
	Email string
	Role  string
}

// writeAudit appends one audit row. Audit failures are logged, never
// propagated: the business write has already committed.
func writeAudit(db *gorm.DB, actor *Actor, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if actor != nil {
		if actor.Email != "" {
			metadata["actor_email"] = actor.Email
		}
		if actor.Role != "" {
			metadata["actor_role"] = actor.Role
		}
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		raw = []byte("{}")
	}

	entry := models.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   string(raw),
	}
	if actor != nil {
		entry.UserID = actor.ID
	}

	if err := db.Create(&entry).Error; err != nil && utils.ErrorLogger != nil {
		utils.ErrorLogger.Errorf("failed to write audit log %s/%s/%d: %v", action, entityType, entityID, err)
	}
}

// AuditService exposes the read side of the audit trail.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditFilter narrows List; zero values mean "any".
type AuditFilter struct {
	EntityType string
	EntityID   uint
	Action     string
	From       *time.Time
	To         *time.Time
	Limit      int
}

// List returns audit entries, newest first.
func (s *AuditService) List(filter AuditFilter) ([]models.AuditLog, error) {
	q := s.db.Model(&models.AuditLog{}).Preload("User")
	if filter.EntityType != "" {
		q = q.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != 0 {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at <= ?", *filter.To)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var logs []models.AuditLog
	if err := q.Order("created_at desc, id desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
