package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/model"
)

// SectionRepository 教学班数据访问接口
type SectionRepository interface {
	Create(ctx context.Context, section *model.TeachingSection) error
	GetByID(ctx context.Context, id string) (*model.TeachingSection, error)
	// ListAll 全量教学班（含课表原文），冲突检测在提交前读取最新集合
	ListAll(ctx context.Context) ([]model.TeachingSection, error)
	List(ctx context.Context, courseID string, offset, limit int) ([]model.TeachingSection, int64, error)
	// UpdateWithCapacityGuard 条件更新：仅当 enrolled_count <= 新容量 时生效，
	// 防止与并发选课竞争导致容量低于已选人数。updated 为 false 表示守卫未通过。
	UpdateWithCapacityGuard(ctx context.Context, section *model.TeachingSection, updatedBy string) (updated bool, err error)
	// DeleteEmpty 条件软删除：仅当 enrolled_count == 0 时生效
	DeleteEmpty(ctx context.Context, id string, deletedBy string) (deleted bool, err error)
}

type sectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo 创建 SectionRepository 实例
func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) Create(ctx context.Context, section *model.TeachingSection) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *sectionRepo) GetByID(ctx context.Context, id string) (*model.TeachingSection, error) {
	var section model.TeachingSection
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("section_id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) ListAll(ctx context.Context) ([]model.TeachingSection, error) {
	var sections []model.TeachingSection
	err := r.db.WithContext(ctx).
		Order("created_at ASC, section_id ASC").
		Find(&sections).Error
	return sections, err
}

func (r *sectionRepo) List(ctx context.Context, courseID string, offset, limit int) ([]model.TeachingSection, int64, error) {
	var (
		sections []model.TeachingSection
		total    int64
	)

	q := r.db.WithContext(ctx).Model(&model.TeachingSection{})
	if courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("Course").
		Order("created_at ASC, section_id ASC").
		Offset(offset).Limit(limit).
		Find(&sections).Error
	return sections, total, err
}

func (r *sectionRepo) UpdateWithCapacityGuard(ctx context.Context, section *model.TeachingSection, updatedBy string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TeachingSection{}).
		Where("section_id = ? AND enrolled_count <= ?", section.SectionID, section.Capacity).
		Updates(map[string]interface{}{
			"teacher_name": section.TeacherName,
			"room":         section.Room,
			"schedule_raw": section.ScheduleRaw,
			"capacity":     section.Capacity,
			"updated_at":   time.Now(),
			"updated_by":   updatedBy,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sectionRepo) DeleteEmpty(ctx context.Context, id string, deletedBy string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TeachingSection{}).
		Where("section_id = ? AND enrolled_count = 0", id).
		Updates(map[string]interface{}{
			"deleted_at": time.Now(),
			"deleted_by": deletedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
