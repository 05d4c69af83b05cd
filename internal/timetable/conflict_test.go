package timetable

import (
	"encoding/json"
	"testing"
)

func meeting(t *testing.T, id, teacher, room, scheduleJSON string) SectionMeeting {
	t.Helper()
	var raw any
	if err := json.Unmarshal([]byte(scheduleJSON), &raw); err != nil {
		t.Fatalf("测试数据解码失败: %v", err)
	}
	return SectionMeeting{
		SectionID: id,
		Teacher:   teacher,
		Room:      room,
		Schedule:  NewNormalizer(nil).Normalize(raw),
	}
}

// ── 基本规则 ──

func TestDetect_TeacherConflict(t *testing.T) {
	// 同教师不同教室，时间重叠 → 教师冲突（场景 A）
	existing := meeting(t, "sec-x", "Zhang", "A-201", `{"周二": "3-5"}`)
	candidate := meeting(t, "sec-y", "Zhang", "B-100", `{"周二": "4-6"}`)

	report := Detect(candidate, []SectionMeeting{existing})
	if report == nil {
		t.Fatal("应检出冲突")
	}
	if report.Rule != RuleTeacher {
		t.Errorf("期望教师冲突，实际 %s", report.Rule)
	}
	if report.OtherSectionID != "sec-x" {
		t.Errorf("冲突对象应为 sec-x，实际 %s", report.OtherSectionID)
	}
	if report.Day != "周二" {
		t.Errorf("冲突日应为周二，实际 %s", report.Day)
	}
}

func TestDetect_RoomConflict(t *testing.T) {
	// 同教室不同教师，时间重叠 → 教室冲突
	existing := meeting(t, "sec-x", "Zhang", "A-201", `{"周三": "1-2"}`)
	candidate := meeting(t, "sec-y", "Li", "A-201", `{"周三": "2-3"}`)

	report := Detect(candidate, []SectionMeeting{existing})
	if report == nil || report.Rule != RuleRoom {
		t.Fatalf("期望教室冲突，实际 %+v", report)
	}
}

func TestDetect_UnrelatedSectionsNeverConflict(t *testing.T) {
	// 教师、教室均不同 → 无论时间如何都不冲突
	existing := meeting(t, "sec-x", "Zhang", "A-201", `{"周二": "3-5"}`)
	candidate := meeting(t, "sec-y", "Li", "B-100", `{"周二": "3-5"}`)

	if report := Detect(candidate, []SectionMeeting{existing}); report != nil {
		t.Errorf("不相关教学班不应冲突: %+v", report)
	}
}

func TestDetect_SelfExclusion(t *testing.T) {
	// 编辑场景：候选与自身旧版本永不冲突
	old := meeting(t, "sec-x", "Zhang", "A-201", `{"周二": "3-5"}`)
	edited := meeting(t, "sec-x", "Zhang", "A-201", `{"周二": "3-5"}`)

	if report := Detect(edited, []SectionMeeting{old}); report != nil {
		t.Errorf("编辑不应与自身冲突: %+v", report)
	}
}

// ── 边界 ──

func TestDetect_AdjacentIntervalsNoConflict(t *testing.T) {
	// 前一节课结束分钟 == 后一节课开始分钟，半开区间不重叠
	existing := meeting(t, "sec-x", "Zhang", "A-201", `{"周一": "8:00-9:00"}`)
	candidate := meeting(t, "sec-y", "Zhang", "B-100", `{"周一": "9:00-10:00"}`)

	if report := Detect(candidate, []SectionMeeting{existing}); report != nil {
		t.Errorf("首尾相接不应冲突: %+v", report)
	}
}

func TestDetect_DifferentDaysNoConflict(t *testing.T) {
	existing := meeting(t, "sec-x", "Zhang", "A-201", `{"周一": "3-5"}`)
	candidate := meeting(t, "sec-y", "Zhang", "A-201", `{"周二": "3-5"}`)

	if report := Detect(candidate, []SectionMeeting{existing}); report != nil {
		t.Errorf("不同星期不应冲突: %+v", report)
	}
}

func TestDetect_EmptyScheduleNeverConflicts(t *testing.T) {
	existing := meeting(t, "sec-x", "Zhang", "A-201", `{"周二": "3-5"}`)
	candidate := meeting(t, "sec-y", "Zhang", "A-201", `"时间待定"`)

	if report := Detect(candidate, []SectionMeeting{existing}); report != nil {
		t.Errorf("空课表不应冲突: %+v", report)
	}
}

func TestDetect_CaseInsensitiveMatch(t *testing.T) {
	existing := meeting(t, "sec-x", "ZHANG", "a-201", `{"周二": "3-5"}`)
	candidate := meeting(t, "sec-y", "zhang", "B-100", `{"周二": "4-6"}`)

	report := Detect(candidate, []SectionMeeting{existing})
	if report == nil || report.Rule != RuleTeacher {
		t.Fatalf("教师匹配应大小写不敏感: %+v", report)
	}
}

func TestDetect_EmptyTeacherAndRoomNotShared(t *testing.T) {
	// 双方教室均为空串时不应误判为同教室
	existing := meeting(t, "sec-x", "Zhang", "", `{"周二": "3-5"}`)
	candidate := meeting(t, "sec-y", "Li", "", `{"周二": "3-5"}`)

	if report := Detect(candidate, []SectionMeeting{existing}); report != nil {
		t.Errorf("空教室标签不应视为相同: %+v", report)
	}
}

func TestDetect_FirstFoundDeterministic(t *testing.T) {
	// 固定遍历顺序下，第一处命中即为结果
	first := meeting(t, "sec-1", "Zhang", "A-201", `{"周一": "1-2"}`)
	second := meeting(t, "sec-2", "Zhang", "A-201", `{"周一": "1-2"}`)
	candidate := meeting(t, "sec-y", "Zhang", "B-100", `{"周一": "1-2"}`)

	report := Detect(candidate, []SectionMeeting{first, second})
	if report == nil || report.OtherSectionID != "sec-1" {
		t.Fatalf("应命中传入顺序中的第一个冲突对象: %+v", report)
	}
}
