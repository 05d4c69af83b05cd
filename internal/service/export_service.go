package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/repository"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/timetable"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
	ErrExportNoEnrollments = errors.New("当前没有可导出的选课记录")
)

const (
	shanghaiTimezone = "Asia/Shanghai"
	// icsRecurWeeks 周课表 ICS 按周重复的次数（一个教学周期）
	icsRecurWeeks = 18
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 教学班名单导出为 Excel (.xlsx)，供教务打印点名册
//   - 个人周课表导出为 iCalendar (.ics)，可订阅到日历客户端
//   - 均以内存缓冲返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportRoster 导出教学班选课名单为 Excel
	ExportRoster(ctx context.Context, sectionID string) (*bytes.Buffer, string, error)
	// ExportTimetableICS 导出学生个人周课表为 iCalendar
	ExportTimetableICS(ctx context.Context, studentID string) ([]byte, string, error)
}

type exportService struct {
	repo       *repository.Repository
	normalizer *timetable.Normalizer
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, normalizer *timetable.Normalizer, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, normalizer: normalizer, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ExportRoster — 教学班名单 Excel
// ════════════════════════════════════════════════════════════

func (s *exportService) ExportRoster(ctx context.Context, sectionID string) (*bytes.Buffer, string, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return nil, "", err
	}

	enrollments, err := s.repo.Enrollment.ListBySection(ctx, sectionID)
	if err != nil {
		s.logger.Error("查询选课名单失败", zap.Error(err))
		return nil, "", err
	}

	courseName := section.CourseID
	courseCode := "section"
	if section.Course != nil {
		courseName = section.Course.Name
		courseCode = section.Course.Code
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "名单"
	f.SetSheetName("Sheet1", sheet)

	// 表头：课程、教师、教室信息 + 列头
	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s（%s / %s）选课名单", courseName, section.TeacherName, section.Room))
	f.SetCellValue(sheet, "A2", fmt.Sprintf("容量 %d，已选 %d", section.Capacity, section.EnrolledCount))
	f.SetCellValue(sheet, "A3", "序号")
	f.SetCellValue(sheet, "B3", "学号")
	f.SetCellValue(sheet, "C3", "选课时间")

	for i, e := range enrollments {
		row := i + 4
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), e.StudentID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.EnrolledAt.Format("2006-01-02 15:04"))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s-名单.xlsx", courseCode)
	return buf, filename, nil
}

// ════════════════════════════════════════════════════════════
// ExportTimetableICS — 个人周课表 iCalendar
// ════════════════════════════════════════════════════════════
//
// 每个上课时段生成一个 VEVENT，以本周对应星期为首次发生日，
// 附 FREQ=WEEKLY 的 RRULE 覆盖一个教学周期。

func (s *exportService) ExportTimetableICS(ctx context.Context, studentID string) ([]byte, string, error) {
	enrollments, err := s.repo.Enrollment.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(enrollments) == 0 {
		return nil, "", ErrExportNoEnrollments
	}

	loc, _ := time.LoadLocation(shanghaiTimezone)
	weekMonday := mondayOfWeek(time.Now().In(loc))

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)

	now := time.Now().In(loc)
	for i := range enrollments {
		sec := enrollments[i].Section
		if sec == nil {
			continue
		}
		courseName := "未命名课程"
		if sec.Course != nil {
			courseName = sec.Course.Name
		}

		var decoded any
		if len(sec.ScheduleRaw) > 0 {
			if err := json.Unmarshal(sec.ScheduleRaw, &decoded); err != nil {
				decoded = nil
			}
		}
		schedule := s.normalizer.Normalize(decoded)

		for dayIdx, day := range timetable.CanonicalDays {
			for _, iv := range schedule[day] {
				date := weekMonday.AddDate(0, 0, dayIdx)
				start := time.Date(date.Year(), date.Month(), date.Day(),
					iv.StartMinute/60, iv.StartMinute%60, 0, 0, loc)
				end := time.Date(date.Year(), date.Month(), date.Day(),
					iv.EndMinute/60, iv.EndMinute%60, 0, 0, loc)

				event := cal.AddEvent(uuid.New().String())
				event.SetCreatedTime(now)
				event.SetDtStampTime(now)
				event.SetStartAt(start)
				event.SetEndAt(end)
				event.SetSummary(courseName)
				event.SetLocation(sec.Room)
				event.SetDescription(fmt.Sprintf("教师：%s", sec.TeacherName))
				event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", icsRecurWeeks))
			}
		}
	}

	return []byte(cal.Serialize()), fmt.Sprintf("timetable-%s.ics", studentID), nil
}

// mondayOfWeek 所在周的周一（零点，保留时区）
func mondayOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // 周日归入本周末尾
	}
	day := t.AddDate(0, 0, 1-weekday)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
}
