package service

import (
	"go.uber.org/zap"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/repository"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/timetable"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Course     CourseService
	Section    SectionService
	Enrollment EnrollmentService
	Export     ExportService
}

// NewService 创建 Service 聚合。
// rdb 允许为 nil（缓存降级直连数据库）。
func NewService(
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	normalizer := timetable.NewNormalizer(timetable.DefaultPeriodTable)
	return &Service{
		Course:     NewCourseService(repo, logger),
		Section:    NewSectionService(repo, rdb, normalizer, logger),
		Enrollment: NewEnrollmentService(repo, rdb, normalizer, logger),
		Export:     NewExportService(repo, normalizer, logger),
	}
}
