package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/dto"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/model"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/repository"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/timetable"
	pkgerrors "github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/errors"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/redis"
)

// ── 选课模块业务错误 ──
//
// 台账类错误（已满/重复选课/未选课）直接复用 pkg/errors 中的哨兵，
// Repository 与 Service 对外表达同一语义。

var (
	// ErrEnrollSectionFull 教学班已满（快速失败，不排队）
	ErrEnrollSectionFull = pkgerrors.ErrSectionFull
	// ErrAlreadyEnrolled 重复选课按用户错误上报，而非静默成功
	ErrAlreadyEnrolled = pkgerrors.ErrAlreadyEnrolled
	// ErrNotEnrolled 退课时不存在选课记录
	ErrNotEnrolled = pkgerrors.ErrNotEnrolled
)

// EnrollmentService 选课业务接口
type EnrollmentService interface {
	// Enroll 学生选课：单次尝试，结果立即返回，核心不做重试
	Enroll(ctx context.Context, sectionID, studentID string) (*dto.EnrollmentResponse, error)
	// Withdraw 学生退课
	Withdraw(ctx context.Context, sectionID, studentID string) error
	// ListMine 我的选课记录
	ListMine(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error)
	// MyTimetable 个人周课表（由选课记录与各教学班课表派生的只读视图）
	MyTimetable(ctx context.Context, studentID string) (*dto.TimetableResponse, error)
}

type enrollmentService struct {
	repo       *repository.Repository
	cache      *redis.Client
	normalizer *timetable.Normalizer
	logger     *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, cache *redis.Client, normalizer *timetable.Normalizer, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, cache: cache, normalizer: normalizer, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Enroll — 选课
// ════════════════════════════════════════════════════════════

func (s *enrollmentService) Enroll(ctx context.Context, sectionID, studentID string) (*dto.EnrollmentResponse, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return nil, err
	}

	// 重复选课快路径；并发窗口由复合唯一索引兜底
	exists, err := s.repo.Enrollment.Exists(ctx, sectionID, studentID)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyEnrolled
	}

	// 名额检查与计数自增由存储层单条条件更新原子完成
	if err := s.repo.Enrollment.CreateWithIncrement(ctx, sectionID, studentID); err != nil {
		if errors.Is(err, pkgerrors.ErrSectionFull) || errors.Is(err, pkgerrors.ErrAlreadyEnrolled) {
			return nil, err
		}
		s.logger.Error("选课失败", zap.Error(err),
			zap.String("section_id", sectionID), zap.String("student_id", studentID))
		return nil, err
	}

	s.invalidateSectionCache(ctx)
	s.logger.Info("选课成功",
		zap.String("section_id", sectionID), zap.String("student_id", studentID))

	fresh, err := s.repo.Section.GetByID(ctx, sectionID)
	if err == nil {
		section = fresh
	}
	return s.buildEnrollmentResponse(section, studentID), nil
}

// ════════════════════════════════════════════════════════════
// Withdraw — 退课
// ════════════════════════════════════════════════════════════

func (s *enrollmentService) Withdraw(ctx context.Context, sectionID, studentID string) error {
	if _, err := s.repo.Section.GetByID(ctx, sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return err
	}

	if err := s.repo.Enrollment.DeleteWithDecrement(ctx, sectionID, studentID); err != nil {
		if errors.Is(err, pkgerrors.ErrNotEnrolled) {
			return ErrNotEnrolled
		}
		s.logger.Error("退课失败", zap.Error(err),
			zap.String("section_id", sectionID), zap.String("student_id", studentID))
		return err
	}

	s.invalidateSectionCache(ctx)
	s.logger.Info("退课成功",
		zap.String("section_id", sectionID), zap.String("student_id", studentID))
	return nil
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *enrollmentService) ListMine(ctx context.Context, studentID string) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		e := &enrollments[i]
		resp := dto.EnrollmentResponse{
			ID:         e.EnrollmentID,
			StudentID:  e.StudentID,
			EnrolledAt: e.EnrolledAt.Format("2006-01-02T15:04:05Z"),
		}
		if e.Section != nil {
			sec := s.toSectionBrief(e.Section)
			resp.Section = &sec
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *enrollmentService) MyTimetable(ctx context.Context, studentID string) (*dto.TimetableResponse, error) {
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, err
	}

	dayOrder := make(map[string]int, len(timetable.CanonicalDays))
	for i, d := range timetable.CanonicalDays {
		dayOrder[d] = i
	}

	entries := make([]dto.TimetableEntryResponse, 0)
	for i := range enrollments {
		sec := enrollments[i].Section
		if sec == nil {
			continue
		}
		courseName := ""
		if sec.Course != nil {
			courseName = sec.Course.Name
		}
		schedule := s.normalizeSection(sec)
		for day, ivs := range schedule {
			for _, iv := range ivs {
				entries = append(entries, dto.TimetableEntryResponse{
					Day:         day,
					StartMinute: iv.StartMinute,
					EndMinute:   iv.EndMinute,
					TimeText:    iv.String(),
					SectionID:   sec.SectionID,
					CourseName:  courseName,
					TeacherName: sec.TeacherName,
					Room:        sec.Room,
				})
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if dayOrder[entries[i].Day] != dayOrder[entries[j].Day] {
			return dayOrder[entries[i].Day] < dayOrder[entries[j].Day]
		}
		if entries[i].StartMinute != entries[j].StartMinute {
			return entries[i].StartMinute < entries[j].StartMinute
		}
		return entries[i].SectionID < entries[j].SectionID
	})

	return &dto.TimetableResponse{StudentID: studentID, Entries: entries}, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

func (s *enrollmentService) normalizeSection(section *model.TeachingSection) timetable.DaySchedule {
	var decoded any
	if len(section.ScheduleRaw) > 0 {
		if err := json.Unmarshal(section.ScheduleRaw, &decoded); err != nil {
			decoded = nil
		}
	}
	return s.normalizer.Normalize(decoded)
}

func (s *enrollmentService) buildEnrollmentResponse(section *model.TeachingSection, studentID string) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{StudentID: studentID}
	if section != nil {
		sec := s.toSectionBrief(section)
		resp.Section = &sec
	}
	return resp
}

func (s *enrollmentService) toSectionBrief(section *model.TeachingSection) dto.SectionResponse {
	resp := dto.SectionResponse{
		ID:            section.SectionID,
		TeacherName:   section.TeacherName,
		Room:          section.Room,
		ScheduleRaw:   json.RawMessage(section.ScheduleRaw),
		Capacity:      section.Capacity,
		EnrolledCount: section.EnrolledCount,
		CreatedAt:     section.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     section.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if section.Course != nil {
		resp.Course = &dto.CourseBrief{
			ID:     section.Course.CourseID,
			Code:   section.Course.Code,
			Name:   section.Course.Name,
			Credit: section.Course.Credit,
		}
	}
	schedule := s.normalizeSection(section)
	resp.Meetings = make([]dto.MeetingResponse, 0)
	for _, day := range timetable.CanonicalDays {
		for _, iv := range schedule[day] {
			resp.Meetings = append(resp.Meetings, dto.MeetingResponse{
				Day:         day,
				StartMinute: iv.StartMinute,
				EndMinute:   iv.EndMinute,
				TimeText:    iv.String(),
			})
		}
	}
	return resp
}

// invalidateSectionCache 选课/退课改变余量后使教学班列表缓存失效
func (s *enrollmentService) invalidateSectionCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.BumpNamespace(ctx, redis.SectionListNamespace); err != nil {
		s.logger.Warn("教学班列表缓存失效失败", zap.Error(err))
	}
}
