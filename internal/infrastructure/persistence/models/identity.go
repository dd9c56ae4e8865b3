package models

import (
	"time"

	"github.com/taskflow/backend/internal/domain/identity"
)

// UserModel is the local mirror of an identity-provider account.
type UserModel struct {
	ID        string        `gorm:"type:varchar(64);primaryKey"`
	Email     string        `gorm:"type:varchar(255);not null;uniqueIndex"`
	Username  string        `gorm:"type:varchar(100)"`
	FirstName string        `gorm:"type:varchar(100)"`
	LastName  string        `gorm:"type:varchar(100)"`
	Photo     string        `gorm:"type:varchar(1000)"`
	Role      identity.Role `gorm:"type:varchar(20);not null;default:'member'"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		ID:        m.ID,
		Email:     m.Email,
		Username:  m.Username,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Photo:     m.Photo,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Photo:     u.Photo,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AdminRequestModel stores a pending dual-control action. The partial unique
// indexes allow one pending demotion per (target, org) and one pending
// deletion per org.
type AdminRequestModel struct {
	BaseModel
	TargetUserID    string                      `gorm:"type:varchar(64);index:idx_admin_requests_pending_demotion,unique,where:type = 'DEMOTE_ADMIN' AND status = 'PENDING'"`
	RequesterUserID string                      `gorm:"type:varchar(64);not null"`
	OrgID           string                      `gorm:"type:varchar(64);not null;index;index:idx_admin_requests_pending_demotion,unique;index:idx_admin_requests_pending_deletion,unique,where:type = 'DELETE_ORG' AND status = 'PENDING'"`
	Type            identity.AdminRequestType   `gorm:"type:varchar(20);not null"`
	Status          identity.AdminRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (AdminRequestModel) TableName() string {
	return "admin_requests"
}

// ToDomain converts the persistence model to a domain AdminRequest
func (m *AdminRequestModel) ToDomain() *identity.AdminRequest {
	return &identity.AdminRequest{
		BaseEntity:      m.BaseModel.ToDomain(),
		TargetUserID:    m.TargetUserID,
		RequesterUserID: m.RequesterUserID,
		OrgID:           m.OrgID,
		Type:            m.Type,
		Status:          m.Status,
	}
}

// AdminRequestModelFromDomain creates a persistence model from a domain AdminRequest
func AdminRequestModelFromDomain(r *identity.AdminRequest) *AdminRequestModel {
	m := &AdminRequestModel{
		TargetUserID:    r.TargetUserID,
		RequesterUserID: r.RequesterUserID,
		OrgID:           r.OrgID,
		Type:            r.Type,
		Status:          r.Status,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
