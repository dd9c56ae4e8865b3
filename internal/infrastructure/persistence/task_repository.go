package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/shared"
	"github.com/taskflow/backend/internal/domain/task"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository implements task.TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

func preloadAssignees(db *gorm.DB) *gorm.DB {
	return db.Preload("Assignees", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

// Create inserts a task and its assignee rows
func (r *GormTaskRepository) Create(ctx context.Context, t *task.Task) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(models.TaskModelFromDomain(t)).Error; err != nil {
			return err
		}
		return insertAssignees(tx, t)
	}))
}

// Save overwrites the task row and replaces its assignee set
func (r *GormTaskRepository) Save(ctx context.Context, t *task.Task) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(models.TaskModelFromDomain(t)).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.TaskAssigneeModel{}, "task_id = ?", t.ID).Error; err != nil {
			return err
		}
		return insertAssignees(tx, t)
	}))
}

func insertAssignees(tx *gorm.DB, t *task.Task) error {
	rows := models.AssigneeRows(t)
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	var m models.TaskModel
	if err := preloadAssignees(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByProject lists the tasks of a project, newest first
func (r *GormTaskRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*task.Task, error) {
	return r.find(ctx, r.db.Where("project_id = ?", projectID).Order("created_at DESC"))
}

// FindByAssignee lists the tasks assigned to userID, newest first
func (r *GormTaskRepository) FindByAssignee(ctx context.Context, userID string) ([]*task.Task, error) {
	sub := r.db.Model(&models.TaskAssigneeModel{}).Select("task_id").Where("user_id = ?", userID)
	return r.find(ctx, r.db.Where("id IN (?)", sub).Order("created_at DESC"))
}

// FindApprovedBefore lists approved tasks whose approval is at or before cutoff
func (r *GormTaskRepository) FindApprovedBefore(ctx context.Context, cutoff time.Time) ([]*task.Task, error) {
	return r.find(ctx, r.db.Where("is_approved = ? AND approved_at IS NOT NULL AND approved_at <= ?", true, cutoff).
		Order("approved_at ASC"))
}

func (r *GormTaskRepository) find(ctx context.Context, query *gorm.DB) ([]*task.Task, error) {
	var rows []models.TaskModel
	if err := preloadAssignees(query.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, err
	}
	tasks := make([]*task.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].ToDomain())
	}
	return tasks, nil
}

// AddAssignee appends userID to the assignee set; an existing assignee is left
// untouched. A task that no longer exists is reported as not found.
func (r *GormTaskRepository) AddAssignee(ctx context.Context, taskID uuid.UUID, userID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		touched := tx.Model(&models.TaskModel{}).Where("id = ?", taskID).Update("updated_at", time.Now())
		if touched.Error != nil {
			return touched.Error
		}
		if touched.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		var next int
		if err := tx.Model(&models.TaskAssigneeModel{}).
			Where("task_id = ?", taskID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		row := models.TaskAssigneeModel{TaskID: taskID, UserID: userID, Position: next}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	})
	return translate(err)
}

// Delete removes a task and its assignee rows
func (r *GormTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.TaskAssigneeModel{}, "task_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.TaskModel{}, "id = ?", id).Error
	})
}

// DeleteByProject removes every task of a project and returns how many were deleted
func (r *GormTaskRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&models.TaskModel{}).Select("id").Where("project_id = ?", projectID)
		if err := tx.Where("task_id IN (?)", sub).Delete(&models.TaskAssigneeModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.TaskModel{}, "project_id = ?", projectID)
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}
