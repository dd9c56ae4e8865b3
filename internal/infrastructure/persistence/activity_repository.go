package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormActivityRepository implements task.ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) Create(ctx context.Context, a *task.Activity) error {
	return translate(r.db.WithContext(ctx).Create(models.ActivityModelFromDomain(a)).Error)
}

func (r *GormActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Activity, error) {
	var m models.ActivityModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByTask lists the entries of a task, newest first
func (r *GormActivityRepository) FindByTask(ctx context.Context, taskID uuid.UUID) ([]*task.Activity, error) {
	return r.find(ctx, r.db.Where("task_id = ?", taskID))
}

func (r *GormActivityRepository) FindByTasks(ctx context.Context, taskIDs []uuid.UUID) ([]*task.Activity, error) {
	if len(taskIDs) == 0 {
		return []*task.Activity{}, nil
	}
	return r.find(ctx, r.db.Where("task_id IN ?", taskIDs))
}

func (r *GormActivityRepository) find(ctx context.Context, query *gorm.DB) ([]*task.Activity, error) {
	var rows []models.ActivityModel
	if err := query.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*task.Activity, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// Delete removes one entry, returning shared.ErrNotFound when it was already gone
func (r *GormActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.ActivityModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormActivityRepository) DeleteByTasks(ctx context.Context, taskIDs []uuid.UUID) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Delete(&models.ActivityModel{}, "task_id IN ?", taskIDs)
	return res.RowsAffected, res.Error
}
