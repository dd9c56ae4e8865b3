package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/project"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMeetingRepository implements project.MeetingRepository using GORM
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GormMeetingRepository
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

func (r *GormMeetingRepository) Create(ctx context.Context, m *project.Meeting) error {
	return translate(r.db.WithContext(ctx).Create(models.MeetingModelFromDomain(m)).Error)
}

// FindUpcoming lists meetings starting at or after from, soonest first
func (r *GormMeetingRepository) FindUpcoming(ctx context.Context, projectID uuid.UUID, from time.Time) ([]*project.Meeting, error) {
	var rows []models.MeetingModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND start_date >= ?", projectID, from).
		Order("start_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	meetings := make([]*project.Meeting, 0, len(rows))
	for i := range rows {
		meetings = append(meetings, rows[i].ToDomain())
	}
	return meetings, nil
}

func (r *GormMeetingRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.MeetingModel{}, "project_id = ?", projectID).Error
}
