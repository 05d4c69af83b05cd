package timetable

// ── 节次表 ──
//
// 教学楼作息按"节"编号，课表中的 "3-5" 表示第3节到第5节。
// 节次与钟点的对应关系由校方作息表决定，作为常量注入 Normalizer，
// 便于在测试中替换为其他作息表。

// Period 单个节次的起止钟点（自 0 点起的分钟数）
type Period struct {
	StartMinute int
	EndMinute   int
}

// PeriodTable 节次序号（从 1 开始）→ 起止钟点
type PeriodTable []Period

// Lookup 返回第 n 节的起止钟点；n 越界时 ok 为 false
func (t PeriodTable) Lookup(n int) (Period, bool) {
	if n < 1 || n > len(t) {
		return Period{}, false
	}
	return t[n-1], true
}

// Span 第 a 节到第 b 节构成的连续区间（自动取 min/max）；任一节次越界则失败
func (t PeriodTable) Span(a, b int) (TimeInterval, bool) {
	if a > b {
		a, b = b, a
	}
	first, ok := t.Lookup(a)
	if !ok {
		return TimeInterval{}, false
	}
	last, ok := t.Lookup(b)
	if !ok {
		return TimeInterval{}, false
	}
	return TimeInterval{StartMinute: first.StartMinute, EndMinute: last.EndMinute}, true
}

func hm(h, m int) int { return h*60 + m }

// DefaultPeriodTable 校区标准作息表：每天 13 节
var DefaultPeriodTable = PeriodTable{
	{hm(8, 0), hm(8, 45)},    // 第1节
	{hm(8, 50), hm(9, 35)},   // 第2节
	{hm(9, 50), hm(10, 35)},  // 第3节
	{hm(10, 40), hm(11, 25)}, // 第4节
	{hm(11, 30), hm(12, 15)}, // 第5节
	{hm(14, 0), hm(14, 45)},  // 第6节
	{hm(14, 50), hm(15, 35)}, // 第7节
	{hm(15, 50), hm(16, 35)}, // 第8节
	{hm(16, 40), hm(17, 25)}, // 第9节
	{hm(17, 30), hm(18, 15)}, // 第10节
	{hm(19, 0), hm(19, 45)},  // 第11节
	{hm(19, 50), hm(20, 35)}, // 第12节
	{hm(20, 40), hm(21, 25)}, // 第13节
}
