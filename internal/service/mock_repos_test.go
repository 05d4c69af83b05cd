package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/model"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/repository"
	pkgerrors "github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// 内存版 Repository
//
// 模拟存储层的条件更新语义（容量守卫、空班守卫、原子计数），
// Service 层测试不依赖真实数据库。
// ═══════════════════════════════════════════════════════════

type memStore struct {
	courses      map[string]*model.Course
	sections     map[string]*model.TeachingSection
	sectionOrder []string
	enrollments  []*model.Enrollment
	seq          int
}

func newMemStore() *memStore {
	return &memStore{
		courses:  make(map[string]*model.Course),
		sections: make(map[string]*model.TeachingSection),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// newTestRepo 构造内存版 Repository 聚合
func newTestRepo() (*repository.Repository, *memStore) {
	store := newMemStore()
	return &repository.Repository{
		Course:     &memCourseRepo{store: store},
		Section:    &memSectionRepo{store: store},
		Enrollment: &memEnrollmentRepo{store: store},
	}, store
}

// addCourse 直接播种一门课程
func (s *memStore) addCourse(code, name string) *model.Course {
	course := &model.Course{CourseID: s.nextID("course"), Code: code, Name: name}
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	s.courses[course.CourseID] = course
	return course
}

// addSection 直接播种一个教学班
func (s *memStore) addSection(courseID, teacher, room, scheduleRaw string, capacity int) *model.TeachingSection {
	section := &model.TeachingSection{
		SectionID:   s.nextID("section"),
		CourseID:    courseID,
		TeacherName: teacher,
		Room:        room,
		ScheduleRaw: []byte(scheduleRaw),
		Capacity:    capacity,
	}
	section.CreatedAt = time.Now()
	section.UpdatedAt = section.CreatedAt
	if course, ok := s.courses[courseID]; ok {
		section.Course = course
	}
	s.sections[section.SectionID] = section
	s.sectionOrder = append(s.sectionOrder, section.SectionID)
	return section
}

// ── CourseRepository ──

type memCourseRepo struct {
	store *memStore
}

func (r *memCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = r.store.nextID("course")
	}
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt
	r.store.courses[course.CourseID] = course
	return nil
}

func (r *memCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	course, ok := r.store.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (r *memCourseRepo) GetByCode(_ context.Context, code string) (*model.Course, error) {
	for _, course := range r.store.courses {
		if course.Code == code {
			return course, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCourseRepo) List(_ context.Context, keyword string, offset, limit int) ([]model.Course, int64, error) {
	var all []model.Course
	for _, course := range r.store.courses {
		if keyword == "" || strings.Contains(course.Name, keyword) || strings.Contains(course.Code, keyword) {
			all = append(all, *course)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *memCourseRepo) Update(_ context.Context, course *model.Course) error {
	course.UpdatedAt = time.Now()
	r.store.courses[course.CourseID] = course
	return nil
}

func (r *memCourseRepo) Delete(_ context.Context, id string) error {
	delete(r.store.courses, id)
	return nil
}

// ── SectionRepository ──

type memSectionRepo struct {
	store *memStore
}

func (r *memSectionRepo) Create(_ context.Context, section *model.TeachingSection) error {
	if section.SectionID == "" {
		section.SectionID = r.store.nextID("section")
	}
	section.CreatedAt = time.Now()
	section.UpdatedAt = section.CreatedAt
	r.store.sections[section.SectionID] = section
	r.store.sectionOrder = append(r.store.sectionOrder, section.SectionID)
	return nil
}

func (r *memSectionRepo) GetByID(_ context.Context, id string) (*model.TeachingSection, error) {
	section, ok := r.store.sections[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if section.Course == nil {
		section.Course = r.store.courses[section.CourseID]
	}
	return section, nil
}

func (r *memSectionRepo) ListAll(_ context.Context) ([]model.TeachingSection, error) {
	result := make([]model.TeachingSection, 0, len(r.store.sectionOrder))
	for _, id := range r.store.sectionOrder {
		if section, ok := r.store.sections[id]; ok {
			result = append(result, *section)
		}
	}
	return result, nil
}

func (r *memSectionRepo) List(_ context.Context, courseID string, offset, limit int) ([]model.TeachingSection, int64, error) {
	var all []model.TeachingSection
	for _, id := range r.store.sectionOrder {
		section, ok := r.store.sections[id]
		if !ok {
			continue
		}
		if courseID == "" || section.CourseID == courseID {
			all = append(all, *section)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// UpdateWithCapacityGuard 模拟条件更新：enrolled_count <= 新容量 时才生效
func (r *memSectionRepo) UpdateWithCapacityGuard(_ context.Context, section *model.TeachingSection, updatedBy string) (bool, error) {
	current, ok := r.store.sections[section.SectionID]
	if !ok || current.EnrolledCount > section.Capacity {
		return false, nil
	}
	current.TeacherName = section.TeacherName
	current.Room = section.Room
	current.ScheduleRaw = section.ScheduleRaw
	current.Capacity = section.Capacity
	current.UpdatedAt = time.Now()
	current.UpdatedBy = &updatedBy
	current.Version++
	return true, nil
}

// DeleteEmpty 模拟条件软删除：enrolled_count == 0 时才生效
func (r *memSectionRepo) DeleteEmpty(_ context.Context, id string, _ string) (bool, error) {
	section, ok := r.store.sections[id]
	if !ok || section.EnrolledCount != 0 {
		return false, nil
	}
	delete(r.store.sections, id)
	return true, nil
}

// ── EnrollmentRepository ──

type memEnrollmentRepo struct {
	store *memStore
}

func (r *memEnrollmentRepo) Exists(_ context.Context, sectionID, studentID string) (bool, error) {
	for _, e := range r.store.enrollments {
		if e.SectionID == sectionID && e.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memEnrollmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range r.store.enrollments {
		if e.StudentID != studentID {
			continue
		}
		copied := *e
		if section, ok := r.store.sections[e.SectionID]; ok {
			if section.Course == nil {
				section.Course = r.store.courses[section.CourseID]
			}
			copied.Section = section
		}
		result = append(result, copied)
	}
	return result, nil
}

func (r *memEnrollmentRepo) ListBySection(_ context.Context, sectionID string) ([]model.Enrollment, error) {
	var result []model.Enrollment
	for _, e := range r.store.enrollments {
		if e.SectionID == sectionID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (r *memEnrollmentRepo) CountBySection(_ context.Context, sectionID string) (int64, error) {
	var count int64
	for _, e := range r.store.enrollments {
		if e.SectionID == sectionID {
			count++
		}
	}
	return count, nil
}

// CreateWithIncrement 模拟原子选课：名额守卫 + 唯一索引兜底
func (r *memEnrollmentRepo) CreateWithIncrement(ctx context.Context, sectionID, studentID string) error {
	section, ok := r.store.sections[sectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if section.EnrolledCount >= section.Capacity {
		return pkgerrors.ErrSectionFull
	}
	if exists, _ := r.Exists(ctx, sectionID, studentID); exists {
		return pkgerrors.ErrAlreadyEnrolled
	}
	section.EnrolledCount++
	r.store.enrollments = append(r.store.enrollments, &model.Enrollment{
		EnrollmentID: r.store.nextID("enroll"),
		SectionID:    sectionID,
		StudentID:    studentID,
		EnrolledAt:   time.Now(),
	})
	return nil
}

// DeleteWithDecrement 模拟原子退课：记录删除 + 计数自减
func (r *memEnrollmentRepo) DeleteWithDecrement(_ context.Context, sectionID, studentID string) error {
	for i, e := range r.store.enrollments {
		if e.SectionID == sectionID && e.StudentID == studentID {
			r.store.enrollments = append(r.store.enrollments[:i], r.store.enrollments[i+1:]...)
			if section, ok := r.store.sections[sectionID]; ok && section.EnrolledCount > 0 {
				section.EnrolledCount--
			}
			return nil
		}
	}
	return pkgerrors.ErrNotEnrolled
}
