package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/dto"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/model"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/repository"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/timetable"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/redis"
)

// ── 教学班模块业务错误 ──

var (
	ErrSectionNotFound       = errors.New("教学班不存在")
	ErrCapacityBelowEnrolled = errors.New("容量不能低于当前已选人数")
	ErrSectionNotEmpty       = errors.New("教学班仍有学生选课，不能删除")
)

// ConflictError 排课冲突错误，附带冲突详情供前端展示
type ConflictError struct {
	Report  *timetable.ConflictReport
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// newConflictError 把冲突报告拼装为可读提示
func newConflictError(report *timetable.ConflictReport) *ConflictError {
	subject := "教室"
	if report.Rule == timetable.RuleTeacher {
		subject = "教师"
	}
	return &ConflictError{
		Report: report,
		Message: fmt.Sprintf("排课冲突：%s在%s %s 与教学班 %s 的 %s 时段重叠",
			subject, report.Day, report.Candidate, report.OtherSectionID, report.Existing),
	}
}

// SectionService 教学班业务接口（排课编排层）
type SectionService interface {
	// 创建教学班：归一化课表 → 冲突检测 → 入库
	Create(ctx context.Context, req *dto.CreateSectionRequest, callerID string) (*dto.SectionResponse, error)
	// 编辑教学班：重新归一化与冲突检测，容量不得低于已选人数
	Update(ctx context.Context, sectionID string, req *dto.UpdateSectionRequest, callerID string) (*dto.SectionResponse, error)
	// 删除教学班：仅允许删除无人选课的教学班
	Delete(ctx context.Context, sectionID string, callerID string) error
	GetByID(ctx context.Context, sectionID string) (*dto.SectionResponse, error)
	List(ctx context.Context, req *dto.SectionListRequest) ([]dto.SectionResponse, int64, error)
}

type sectionService struct {
	repo       *repository.Repository
	cache      *redis.Client
	normalizer *timetable.Normalizer
	logger     *zap.Logger
}

// NewSectionService 创建 SectionService 实例
func NewSectionService(repo *repository.Repository, cache *redis.Client, normalizer *timetable.Normalizer, logger *zap.Logger) SectionService {
	return &sectionService{repo: repo, cache: cache, normalizer: normalizer, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create — 创建教学班
// ════════════════════════════════════════════════════════════

func (s *sectionService) Create(ctx context.Context, req *dto.CreateSectionRequest, callerID string) (*dto.SectionResponse, error) {
	// 课程外键校验
	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, err
	}

	candidate := timetable.SectionMeeting{
		Teacher:  req.TeacherName,
		Room:     req.Room,
		Schedule: s.normalizeRaw(req.Schedule),
	}

	// 写入前读取最新教学班集合做冲突检测（尽力而为的提交前复检，
	// 与另一教学班并发创建的窗口由此收窄，但不保证跨教学班可串行化）
	if err := s.checkConflict(ctx, candidate); err != nil {
		return nil, err
	}

	section := &model.TeachingSection{
		CourseID:    req.CourseID,
		TeacherName: req.TeacherName,
		Room:        req.Room,
		ScheduleRaw: datatypes.JSON(req.Schedule),
		Capacity:    req.Capacity,
	}
	section.CreatedBy = &callerID
	section.UpdatedBy = &callerID

	if err := s.repo.Section.Create(ctx, section); err != nil {
		s.logger.Error("创建教学班失败", zap.Error(err))
		return nil, err
	}
	section.Course = course

	s.invalidateListCache(ctx)
	resp := s.toSectionResponse(section)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Update — 编辑教学班
// ════════════════════════════════════════════════════════════

func (s *sectionService) Update(ctx context.Context, sectionID string, req *dto.UpdateSectionRequest, callerID string) (*dto.SectionResponse, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return nil, err
	}

	// 容量预检（最终由条件更新语句守卫）
	if req.Capacity < section.EnrolledCount {
		return nil, ErrCapacityBelowEnrolled
	}

	candidate := timetable.SectionMeeting{
		SectionID: sectionID, // 编辑不与自身旧版本冲突
		Teacher:   req.TeacherName,
		Room:      req.Room,
		Schedule:  s.normalizeRaw(req.Schedule),
	}
	if err := s.checkConflict(ctx, candidate); err != nil {
		return nil, err
	}

	section.TeacherName = req.TeacherName
	section.Room = req.Room
	section.ScheduleRaw = datatypes.JSON(req.Schedule)
	section.Capacity = req.Capacity

	// 条件更新复核容量守卫：并发选课可能在预检之后抬高已选人数
	updated, err := s.repo.Section.UpdateWithCapacityGuard(ctx, section, callerID)
	if err != nil {
		s.logger.Error("更新教学班失败", zap.Error(err))
		return nil, err
	}
	if !updated {
		return nil, ErrCapacityBelowEnrolled
	}

	s.invalidateListCache(ctx)

	fresh, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	resp := s.toSectionResponse(fresh)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Delete — 删除教学班（仅限无人选课）
// ════════════════════════════════════════════════════════════

func (s *sectionService) Delete(ctx context.Context, sectionID string, callerID string) error {
	if _, err := s.repo.Section.GetByID(ctx, sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return err
	}

	deleted, err := s.repo.Section.DeleteEmpty(ctx, sectionID, callerID)
	if err != nil {
		s.logger.Error("删除教学班失败", zap.Error(err))
		return err
	}
	if !deleted {
		// 条件删除未命中：仍有学生选课
		return ErrSectionNotEmpty
	}

	s.invalidateListCache(ctx)
	return nil
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *sectionService) GetByID(ctx context.Context, sectionID string) (*dto.SectionResponse, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return nil, err
	}
	resp := s.toSectionResponse(section)
	return &resp, nil
}

func (s *sectionService) List(ctx context.Context, req *dto.SectionListRequest) ([]dto.SectionResponse, int64, error) {
	type cached struct {
		List  []dto.SectionResponse `json:"list"`
		Total int64                 `json:"total"`
	}

	key := s.listCacheKey(ctx, req)
	if key != "" {
		var hit cached
		if ok, err := s.cache.GetJSON(ctx, key, &hit); err == nil && ok {
			return hit.List, hit.Total, nil
		}
	}

	sections, total, err := s.repo.Section.List(ctx, req.CourseID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询教学班列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SectionResponse, 0, len(sections))
	for i := range sections {
		result = append(result, s.toSectionResponse(&sections[i]))
	}

	if key != "" {
		if err := s.cache.SetJSON(ctx, key, cached{List: result, Total: total}, redis.SectionListTTL); err != nil {
			s.logger.Warn("写入教学班列表缓存失败", zap.Error(err))
		}
	}
	return result, total, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

// normalizeRaw 解码原始课表 JSON 并归一化；解码失败按空课表处理
func (s *sectionService) normalizeRaw(raw json.RawMessage) timetable.DaySchedule {
	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			s.logger.Debug("课表原文解码失败，按空课表处理", zap.Error(err))
			decoded = nil
		}
	}
	return s.normalizer.Normalize(decoded)
}

// checkConflict 读取全量教学班并检测教师/教室冲突
func (s *sectionService) checkConflict(ctx context.Context, candidate timetable.SectionMeeting) error {
	all, err := s.repo.Section.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询教学班集合失败", zap.Error(err))
		return err
	}

	existing := make([]timetable.SectionMeeting, 0, len(all))
	for i := range all {
		sec := &all[i]
		existing = append(existing, timetable.SectionMeeting{
			SectionID: sec.SectionID,
			Teacher:   sec.TeacherName,
			Room:      sec.Room,
			Schedule:  s.normalizeRaw(json.RawMessage(sec.ScheduleRaw)),
		})
	}

	if report := timetable.Detect(candidate, existing); report != nil {
		return newConflictError(report)
	}
	return nil
}

// listCacheKey 列表缓存键（带命名空间版本，写操作时整体失效）
func (s *sectionService) listCacheKey(ctx context.Context, req *dto.SectionListRequest) string {
	if s.cache == nil {
		return ""
	}
	ver, err := s.cache.Namespace(ctx, redis.SectionListNamespace)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s:v%d:%s:%d:%d", redis.SectionListNamespace, ver, req.CourseID, req.GetPage(), req.GetPageSize())
}

// invalidateListCache 教学班写操作后使列表缓存整体失效
func (s *sectionService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.BumpNamespace(ctx, redis.SectionListNamespace); err != nil {
		s.logger.Warn("教学班列表缓存失效失败", zap.Error(err))
	}
}

// toSectionResponse 转换教学班为响应（附归一化后的上课时段）
func (s *sectionService) toSectionResponse(section *model.TeachingSection) dto.SectionResponse {
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

	schedule := s.normalizeRaw(json.RawMessage(section.ScheduleRaw))
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
