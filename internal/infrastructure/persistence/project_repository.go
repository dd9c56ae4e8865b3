package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/domain/project"
	"github.com/taskflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository implements project.ProjectRepository using GORM.
// Member sets live in project_members and keep insertion order via Position.
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

func preloadMembers(db *gorm.DB) *gorm.DB {
	return db.Preload("Members", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

// Create inserts the project together with its initial member set
func (r *GormProjectRepository) Create(ctx context.Context, p *project.Project) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(models.ProjectModelFromDomain(p)).Error; err != nil {
			return err
		}
		if len(p.Members) == 0 {
			return nil
		}
		now := time.Now()
		rows := make([]models.ProjectMemberModel, 0, len(p.Members))
		for i, userID := range p.Members {
			rows = append(rows, models.ProjectMemberModel{ProjectID: p.ID, UserID: userID, Position: i, CreatedAt: now})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	}))
}

// Update saves scalar fields only
func (r *GormProjectRepository) Update(ctx context.Context, p *project.Project) error {
	m := models.ProjectModelFromDomain(p)
	res := r.db.WithContext(ctx).
		Model(&models.ProjectModel{}).
		Where("id = ?", p.ID).
		Select("title", "description", "status", "priority", "start_date", "due_date", "owner_id", "org_id", "updated_at").
		Updates(m)
	return translate(res.Error)
}

func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var m models.ProjectModel
	if err := preloadMembers(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return m.ToDomain(), nil
}

// FindByOrgAndMember lists org projects whose member set contains userID, newest first
func (r *GormProjectRepository) FindByOrgAndMember(ctx context.Context, orgID, userID string) ([]*project.Project, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("org_id = ?", orgID).
			Where("id IN (?)", r.db.Model(&models.ProjectMemberModel{}).Select("project_id").Where("user_id = ?", userID))
	})
}

// FindPersonalByOwner lists the owner's projects that have no organization, newest first
func (r *GormProjectRepository) FindPersonalByOwner(ctx context.Context, ownerID string) ([]*project.Project, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID).Where("(org_id = '' OR org_id IS NULL)")
	})
}

func (r *GormProjectRepository) FindByOrg(ctx context.Context, orgID string) ([]*project.Project, error) {
	return r.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("org_id = ?", orgID)
	})
}

func (r *GormProjectRepository) find(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*project.Project, error) {
	var rows []models.ProjectModel
	if err := preloadMembers(r.db.WithContext(ctx)).
		Scopes(scope).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	projects := make([]*project.Project, 0, len(rows))
	for i := range rows {
		projects = append(projects, rows[i].ToDomain())
	}
	return projects, nil
}

// Delete removes the project and its member rows
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ProjectMemberModel{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ProjectModel{}, "id = ?", id).Error
	})
}

// AddMember appends userID to the member set; an existing member is left untouched
func (r *GormProjectRepository) AddMember(ctx context.Context, projectID uuid.UUID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.ProjectMemberModel{}).
			Where("project_id = ?", projectID).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}
		row := models.ProjectMemberModel{ProjectID: projectID, UserID: userID, Position: next, CreatedAt: time.Now()}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	})
}

func (r *GormProjectRepository) RemoveMember(ctx context.Context, projectID uuid.UUID, userID string) error {
	return r.db.WithContext(ctx).
		Delete(&models.ProjectMemberModel{}, "project_id = ? AND user_id = ?", projectID, userID).Error
}

// RemoveMemberEverywhere pulls userID from every project
func (r *GormProjectRepository) RemoveMemberEverywhere(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ProjectMemberModel{}, "user_id = ?", userID)
	return res.RowsAffected, res.Error
}

// RemoveMemberFromOrg pulls userID from every project of orgID
func (r *GormProjectRepository) RemoveMemberFromOrg(ctx context.Context, orgID, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("project_id IN (?)", r.db.Model(&models.ProjectModel{}).Select("id").Where("org_id = ?", orgID)).
		Delete(&models.ProjectMemberModel{})
	return res.RowsAffected, res.Error
}
