package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/dto"
)

func newTestCourseService() (CourseService, *memStore) {
	repo, store := newTestRepo()
	return NewCourseService(repo, zap.NewNop()), store
}

func TestCourseService_Create_Success(t *testing.T) {
	svc, _ := newTestCourseService()

	resp, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Code:   "CS101",
		Name:   "数据结构",
		Credit: 3.0,
	}, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Code != "CS101" || resp.Credit != 3.0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCourseService_Create_DuplicateCode(t *testing.T) {
	svc, store := newTestCourseService()
	store.addCourse("CS101", "数据结构")

	_, err := svc.Create(context.Background(), &dto.CreateCourseRequest{
		Code: "CS101",
		Name: "数据结构（双语）",
	}, "admin-1")
	if !errors.Is(err, ErrCourseCodeExists) {
		t.Errorf("expected ErrCourseCodeExists, got %v", err)
	}
}

func TestCourseService_Update_Partial(t *testing.T) {
	svc, store := newTestCourseService()
	course := store.addCourse("CS101", "数据结构")

	newName := "数据结构与算法"
	resp, err := svc.Update(context.Background(), course.CourseID, &dto.UpdateCourseRequest{
		Name: &newName,
	}, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Name != newName {
		t.Errorf("expected updated name, got %q", resp.Name)
	}
	// 未提供的字段保持不变
	if resp.Code != "CS101" {
		t.Errorf("code should stay CS101, got %q", resp.Code)
	}
}

func TestCourseService_Delete_HasSections(t *testing.T) {
	svc, store := newTestCourseService()
	course := store.addCourse("CS101", "数据结构")
	store.addSection(course.CourseID, "张伟", "A-201", `{"周二":["3-5节"]}`, 60)

	err := svc.Delete(context.Background(), course.CourseID)
	if !errors.Is(err, ErrCourseHasSections) {
		t.Errorf("expected ErrCourseHasSections, got %v", err)
	}
}

func TestCourseService_Delete_Success(t *testing.T) {
	svc, store := newTestCourseService()
	course := store.addCourse("CS101", "数据结构")

	if err := svc.Delete(context.Background(), course.CourseID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), course.CourseID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound after delete, got %v", err)
	}
}

func TestCourseService_List_Keyword(t *testing.T) {
	svc, store := newTestCourseService()
	store.addCourse("CS101", "数据结构")
	store.addCourse("MA201", "高等数学")

	result, total, err := svc.List(context.Background(), &dto.CourseListRequest{Keyword: "数据"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(result) != 1 {
		t.Fatalf("expected 1 course, got total=%d len=%d", total, len(result))
	}
	if result[0].Code != "CS101" {
		t.Errorf("unexpected course: %+v", result[0])
	}
}
