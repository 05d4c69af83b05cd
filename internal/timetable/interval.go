package timetable

import "fmt"

// ── 时间区间 ──

// TimeInterval 单日内的半开时间区间 [StartMinute, EndMinute)，单位为分钟。
// 0 <= StartMinute < EndMinute <= 1440。值类型，构造后不再修改。
type TimeInterval struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// NewTimeInterval 构造并校验时间区间
func NewTimeInterval(startMinute, endMinute int) (TimeInterval, error) {
	if startMinute < 0 || endMinute > 24*60 || startMinute >= endMinute {
		return TimeInterval{}, fmt.Errorf("非法时间区间: [%d, %d)", startMinute, endMinute)
	}
	return TimeInterval{StartMinute: startMinute, EndMinute: endMinute}, nil
}

// Overlaps 半开区间重叠判定: [s1,e1) 与 [s2,e2) 重叠 当且仅当 s1 < e2 且 s2 < e1。
// 首尾相接（e1 == s2）不算重叠。
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return i.StartMinute < other.EndMinute && other.StartMinute < i.EndMinute
}

// String 格式化为 "HH:MM-HH:MM"，用于冲突提示信息
func (i TimeInterval) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		i.StartMinute/60, i.StartMinute%60, i.EndMinute/60, i.EndMinute%60)
}

// ── 周课表 ──

// DaySchedule 星期标签 → 当日时间区间列表。
// 区间顺序不作保证，冲突检测只做两两比较。
type DaySchedule map[string][]TimeInterval

// IsEmpty 课表中是否不含任何时间区间
func (d DaySchedule) IsEmpty() bool {
	for _, ivs := range d {
		if len(ivs) > 0 {
			return false
		}
	}
	return true
}

// ── 星期标签规范化 ──

// CanonicalDays 七个规范星期标签，亦是冲突检测的遍历顺序
var CanonicalDays = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// dayAliases 各类写法 → 规范标签
var dayAliases = map[string]string{
	"周一": "周一", "星期一": "周一", "monday": "周一", "mon": "周一",
	"周二": "周二", "星期二": "周二", "tuesday": "周二", "tue": "周二",
	"周三": "周三", "星期三": "周三", "wednesday": "周三", "wed": "周三",
	"周四": "周四", "星期四": "周四", "thursday": "周四", "thu": "周四",
	"周五": "周五", "星期五": "周五", "friday": "周五", "fri": "周五",
	"周六": "周六", "星期六": "周六", "saturday": "周六", "sat": "周六",
	"周日": "周日", "星期日": "周日", "星期天": "周日", "sunday": "周日", "sun": "周日",
}
