package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/model"
	pkgerrors "github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/errors"
)

// EnrollmentRepository 选课关系数据访问接口
//
// CreateWithIncrement / DeleteWithDecrement 是 enrolled_count 的唯一变更入口：
// 名额检查与计数变更由单条条件 UPDATE 在存储层原子完成，按行串行，
// 不同教学班之间互不争用；选课记录与计数在同一事务内变更，
// 回滚时两者一并撤销，不会出现记录与计数不一致。
type EnrollmentRepository interface {
	Exists(ctx context.Context, sectionID, studentID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	ListBySection(ctx context.Context, sectionID string) ([]model.Enrollment, error)
	CountBySection(ctx context.Context, sectionID string) (int64, error)
	// CreateWithIncrement 原子选课：条件自增名额计数 + 写入选课记录。
	// 满员返回 pkgerrors.ErrSectionFull；并发重复选课由复合唯一索引兜底，
	// 返回 pkgerrors.ErrAlreadyEnrolled。
	CreateWithIncrement(ctx context.Context, sectionID, studentID string) error
	// DeleteWithDecrement 原子退课：删除选课记录 + 条件自减名额计数。
	// 无选课记录返回 pkgerrors.ErrNotEnrolled；计数永不减至负数。
	DeleteWithDecrement(ctx context.Context, sectionID, studentID string) error
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Exists(ctx context.Context, sectionID, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("section_id = ? AND student_id = ?", sectionID, studentID).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Section").
		Preload("Section.Course").
		Where("student_id = ?", studentID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) ListBySection(ctx context.Context, sectionID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) CountBySection(ctx context.Context, sectionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("section_id = ?", sectionID).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) CreateWithIncrement(ctx context.Context, sectionID, studentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 名额检查与自增合并为单条条件 UPDATE（check-and-increment 原子化）
		res := tx.Model(&model.TeachingSection{}).
			Where("section_id = ? AND enrolled_count < capacity", sectionID).
			UpdateColumn("enrolled_count", gorm.Expr("enrolled_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrSectionFull
		}

		enrollment := &model.Enrollment{SectionID: sectionID, StudentID: studentID}
		if err := tx.Create(enrollment).Error; err != nil {
			// 复合唯一索引兜底并发重复选课，事务回滚撤销上面的自增
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pkgerrors.ErrAlreadyEnrolled
			}
			return err
		}
		return nil
	})
}

func (r *enrollmentRepo) DeleteWithDecrement(ctx context.Context, sectionID, studentID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("section_id = ? AND student_id = ?", sectionID, studentID).
			Delete(&model.Enrollment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.ErrNotEnrolled
		}

		// 守卫 enrolled_count > 0：计数若已为 0 说明计数与记录脱节，
		// 中止事务以免进一步扩大不一致
		dec := tx.Model(&model.TeachingSection{}).
			Where("section_id = ? AND enrolled_count > 0", sectionID).
			UpdateColumn("enrolled_count", gorm.Expr("enrolled_count - 1"))
		if dec.Error != nil {
			return dec.Error
		}
		if dec.RowsAffected == 0 {
			return fmt.Errorf("教学班 %s 选课计数与记录不一致", sectionID)
		}
		return nil
	})
}
