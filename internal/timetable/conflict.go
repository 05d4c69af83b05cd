package timetable

import "strings"

// ── 排课冲突检测 ──

// 冲突规则
const (
	RuleTeacher = "teacher" // 同一教师时间重叠
	RuleRoom    = "room"    // 同一教室时间重叠
)

// SectionMeeting 参与冲突检测的教学班视图（已归一化课表）
type SectionMeeting struct {
	SectionID string
	Teacher   string
	Room      string
	Schedule  DaySchedule
}

// ConflictReport 冲突详情，供上层拼装提示信息
type ConflictReport struct {
	Rule           string       // RuleTeacher | RuleRoom
	OtherSectionID string       // 与之冲突的教学班
	Day            string       // 规范星期标签
	Candidate      TimeInterval // 候选教学班的区间
	Existing       TimeInterval // 已有教学班的区间
}

// Detect 检测候选教学班与已有教学班集合的教师/教室冲突。
// 纯查询，无副作用；existing 按传入顺序、星期按规范顺序遍历，
// 命中的第一对重叠区间即为结果；无冲突返回 nil。
//
// 与候选同 id 的条目被排除（编辑场景不与自身冲突）；
// 教师、教室均不相同的教学班无论时间如何都不冲突。
func Detect(candidate SectionMeeting, existing []SectionMeeting) *ConflictReport {
	if candidate.Schedule.IsEmpty() {
		return nil
	}

	for _, other := range existing {
		if other.SectionID == candidate.SectionID {
			continue
		}

		sameTeacher := equalFold(candidate.Teacher, other.Teacher)
		sameRoom := equalFold(candidate.Room, other.Room)
		if !sameTeacher && !sameRoom {
			continue
		}

		for _, day := range CanonicalDays {
			candIvs := candidate.Schedule[day]
			otherIvs := other.Schedule[day]
			if len(candIvs) == 0 || len(otherIvs) == 0 {
				continue
			}
			for _, a := range candIvs {
				for _, b := range otherIvs {
					if !a.Overlaps(b) {
						continue
					}
					rule := RuleRoom
					if sameTeacher {
						rule = RuleTeacher
					}
					return &ConflictReport{
						Rule:           rule,
						OtherSectionID: other.SectionID,
						Day:            day,
						Candidate:      a,
						Existing:       b,
					}
				}
			}
		}
	}

	return nil
}

// equalFold 大小写不敏感的精确匹配；空值不视为相同
func equalFold(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
