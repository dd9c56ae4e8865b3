package models

import (
	"github.com/taskflow/backend/internal/domain/notification"
)

// NotificationModel is the persistence model for a user notification.
type NotificationModel struct {
	BaseModel
	UserID    string                 `gorm:"type:varchar(64);not null;index"`
	Message   string                 `gorm:"type:text;not null"`
	Kind      notification.Kind      `gorm:"type:varchar(30);not null;default:'INFO'"`
	ProjectID string                 `gorm:"type:varchar(64)"`
	Read      bool                   `gorm:"column:is_read;not null;default:false"`
	Metadata  *notification.Metadata `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to a domain Notification
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Message:    m.Message,
		Kind:       m.Kind,
		ProjectID:  m.ProjectID,
		Read:       m.Read,
		Metadata:   m.Metadata,
	}
}

// NotificationModelFromDomain creates a persistence model from a domain Notification
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	m := &NotificationModel{
		UserID:    n.UserID,
		Message:   n.Message,
		Kind:      n.Kind,
		ProjectID: n.ProjectID,
		Read:      n.Read,
		Metadata:  n.Metadata,
	}
	m.FromDomainBaseEntity(n.BaseEntity)
	return m
}
