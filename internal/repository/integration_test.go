//go:build integration

package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/model"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/repository"
	pkgerrors "github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=postgres password=postgres dbname=virtual_campus_test sslmode=disable TimeZone=Asia/Shanghai"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.Course{},
		&model.TeachingSection{},
		&model.Enrollment{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

// setupTestData 创建课程与教学班并返回清理函数
func setupTestData(t *testing.T, capacity int) (course *model.Course, section *model.TeachingSection, cleanup func()) {
	t.Helper()
	ctx := context.Background()

	course = &model.Course{
		Code: fmt.Sprintf("CS%d", time.Now().UnixNano()),
		Name: "测试课程",
	}
	if err := testDB.WithContext(ctx).Create(course).Error; err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}

	schedule, _ := json.Marshal(map[string][]string{"周二": {"3-5节"}})
	section = &model.TeachingSection{
		CourseID:    course.CourseID,
		TeacherName: "张伟",
		Room:        "A-201",
		ScheduleRaw: schedule,
		Capacity:    capacity,
	}
	if err := testDB.WithContext(ctx).Create(section).Error; err != nil {
		t.Fatalf("创建教学班失败: %v", err)
	}

	cleanup = func() {
		testDB.Where("section_id = ?", section.SectionID).Delete(&model.Enrollment{})
		testDB.Unscoped().Where("section_id = ?", section.SectionID).Delete(&model.TeachingSection{})
		testDB.Where("course_id = ?", course.CourseID).Delete(&model.Course{})
	}
	return course, section, cleanup
}

func reloadSection(t *testing.T, id string) *model.TeachingSection {
	t.Helper()
	var section model.TeachingSection
	if err := testDB.Where("section_id = ?", id).First(&section).Error; err != nil {
		t.Fatalf("重新读取教学班失败: %v", err)
	}
	return &section
}

// ═══════════════════════════════════════════════════════════
// EnrollmentRepository — 原子选课台账
// ═══════════════════════════════════════════════════════════

func TestEnrollmentRepo_CreateWithIncrement(t *testing.T) {
	_, section, cleanup := setupTestData(t, 2)
	defer cleanup()

	repo := repository.NewEnrollmentRepo(testDB)
	ctx := context.Background()

	if err := repo.CreateWithIncrement(ctx, section.SectionID, "stu-001"); err != nil {
		t.Fatalf("选课失败: %v", err)
	}
	if err := repo.CreateWithIncrement(ctx, section.SectionID, "stu-002"); err != nil {
		t.Fatalf("选课失败: %v", err)
	}

	if err := repo.CreateWithIncrement(ctx, section.SectionID, "stu-003"); !errors.Is(err, pkgerrors.ErrSectionFull) {
		t.Errorf("期望 ErrSectionFull, got %v", err)
	}

	fresh := reloadSection(t, section.SectionID)
	if fresh.EnrolledCount != 2 {
		t.Errorf("enrolled_count 应为 2, got %d", fresh.EnrolledCount)
	}
}

func TestEnrollmentRepo_DuplicateRejected(t *testing.T) {
	_, section, cleanup := setupTestData(t, 10)
	defer cleanup()

	repo := repository.NewEnrollmentRepo(testDB)
	ctx := context.Background()

	if err := repo.CreateWithIncrement(ctx, section.SectionID, "stu-001"); err != nil {
		t.Fatalf("选课失败: %v", err)
	}
	if err := repo.CreateWithIncrement(ctx, section.SectionID, "stu-001"); !errors.Is(err, pkgerrors.ErrAlreadyEnrolled) {
		t.Errorf("期望 ErrAlreadyEnrolled, got %v", err)
	}

	// 事务回滚后计数保持 1
	fresh := reloadSection(t, section.SectionID)
	if fresh.EnrolledCount != 1 {
		t.Errorf("enrolled_count 应为 1, got %d", fresh.EnrolledCount)
	}
}

func TestEnrollmentRepo_DeleteWithDecrement(t *testing.T) {
	_, section, cleanup := setupTestData(t, 10)
	defer cleanup()

	repo := repository.NewEnrollmentRepo(testDB)
	ctx := context.Background()

	if err := repo.CreateWithIncrement(ctx, section.SectionID, "stu-001"); err != nil {
		t.Fatalf("选课失败: %v", err)
	}
	if err := repo.DeleteWithDecrement(ctx, section.SectionID, "stu-001"); err != nil {
		t.Fatalf("退课失败: %v", err)
	}

	fresh := reloadSection(t, section.SectionID)
	if fresh.EnrolledCount != 0 {
		t.Errorf("enrolled_count 应为 0, got %d", fresh.EnrolledCount)
	}

	if err := repo.DeleteWithDecrement(ctx, section.SectionID, "stu-001"); !errors.Is(err, pkgerrors.ErrNotEnrolled) {
		t.Errorf("期望 ErrNotEnrolled, got %v", err)
	}
}

// 并发选课：成功次数恰等于容量，计数不越界
func TestEnrollmentRepo_ConcurrentEnroll(t *testing.T) {
	const capacity = 5
	const attempts = 30

	_, section, cleanup := setupTestData(t, capacity)
	defer cleanup()

	repo := repository.NewEnrollmentRepo(testDB)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results <- repo.CreateWithIncrement(ctx, section.SectionID, fmt.Sprintf("stu-%03d", n))
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, full int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, pkgerrors.ErrSectionFull):
			full++
		default:
			t.Errorf("意外错误: %v", err)
		}
	}

	if succeeded != capacity {
		t.Errorf("成功选课数应为 %d, got %d", capacity, succeeded)
	}
	if full != attempts-capacity {
		t.Errorf("满员拒绝数应为 %d, got %d", attempts-capacity, full)
	}

	fresh := reloadSection(t, section.SectionID)
	if fresh.EnrolledCount != capacity {
		t.Errorf("enrolled_count 应为 %d, got %d", capacity, fresh.EnrolledCount)
	}

	count, err := repo.CountBySection(ctx, section.SectionID)
	if err != nil {
		t.Fatalf("统计选课记录失败: %v", err)
	}
	if count != capacity {
		t.Errorf("选课记录数应为 %d, got %d", capacity, count)
	}
}

// ═══════════════════════════════════════════════════════════
// SectionRepository — 条件更新守卫
// ═══════════════════════════════════════════════════════════

func TestSectionRepo_UpdateWithCapacityGuard(t *testing.T) {
	_, section, cleanup := setupTestData(t, 10)
	defer cleanup()

	enrollRepo := repository.NewEnrollmentRepo(testDB)
	sectionRepo := repository.NewSectionRepo(testDB)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := enrollRepo.CreateWithIncrement(ctx, section.SectionID, fmt.Sprintf("stu-%03d", i)); err != nil {
			t.Fatalf("选课失败: %v", err)
		}
	}

	// 容量低于已选人数 → 守卫拒绝
	section.Capacity = 2
	updated, err := sectionRepo.UpdateWithCapacityGuard(ctx, section, "admin-1")
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated {
		t.Error("期望守卫拒绝容量 2 < 已选 3")
	}

	// 容量等于已选人数 → 允许
	section.Capacity = 3
	updated, err = sectionRepo.UpdateWithCapacityGuard(ctx, section, "admin-1")
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if !updated {
		t.Error("期望守卫允许容量 3 == 已选 3")
	}

	fresh := reloadSection(t, section.SectionID)
	if fresh.Capacity != 3 {
		t.Errorf("容量应为 3, got %d", fresh.Capacity)
	}
}

func TestSectionRepo_DeleteEmpty(t *testing.T) {
	_, section, cleanup := setupTestData(t, 10)
	defer cleanup()

	enrollRepo := repository.NewEnrollmentRepo(testDB)
	sectionRepo := repository.NewSectionRepo(testDB)
	ctx := context.Background()

	if err := enrollRepo.CreateWithIncrement(ctx, section.SectionID, "stu-001"); err != nil {
		t.Fatalf("选课失败: %v", err)
	}

	deleted, err := sectionRepo.DeleteEmpty(ctx, section.SectionID, "admin-1")
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if deleted {
		t.Error("期望拒绝删除仍有选课的教学班")
	}

	if err := enrollRepo.DeleteWithDecrement(ctx, section.SectionID, "stu-001"); err != nil {
		t.Fatalf("退课失败: %v", err)
	}

	deleted, err = sectionRepo.DeleteEmpty(ctx, section.SectionID, "admin-1")
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if !deleted {
		t.Error("期望允许删除空教学班")
	}
}
