package timetable

import (
	"regexp"
	"strconv"
	"strings"
)

// ── 课表归一化 ──
//
// 职责：把历史遗留的多种课表存储形态统一归一为 DaySchedule。
//
// 支持的来源形态（JSON 解码后）：
//   - 星期 → 逗号分隔 token 字符串 的映射
//   - 星期 → token 字符串列表 的映射（同一映射内允许与上一种混用）
//   - {day, time} 记录列表
//   - 裸字符串（无星期信息，仅用于展示，不参与冲突检测）
//
// token 文法（去除空白与 第/节/课 修饰后）：
//   - "h:mm-h:mm"  显式钟点区间；省略结束时间时默认时长 45 分钟
//   - "a-b"        节次区间，经节次表换算为钟点
//   - "n"          单个节次
//
// 无法识别的 token 一律静默丢弃，归一化永不报错。

const defaultTokenDuration = 45 // 省略结束时间时的默认时长（分钟）

var (
	clockPattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:-(\d{1,2}):(\d{2}))?$`)
	periodPattern = regexp.MustCompile(`^(\d{1,2})(?:-(\d{1,2}))?$`)
	decorations   = strings.NewReplacer("第", "", "节", "", "课", "", " ", "", "\t", "")
)

// Normalizer 课表归一化器，节次表注入式传入
type Normalizer struct {
	table PeriodTable
}

// NewNormalizer 创建 Normalizer；table 为 nil 时使用标准作息表
func NewNormalizer(table PeriodTable) *Normalizer {
	if table == nil {
		table = DefaultPeriodTable
	}
	return &Normalizer{table: table}
}

// Normalize 将任意来源形态归一为 DaySchedule。
// 空、nil、纯展示字符串均返回空 DaySchedule。
func (n *Normalizer) Normalize(raw any) DaySchedule {
	result := make(DaySchedule)

	switch src := raw.(type) {
	case nil:
		// 空课表

	case string:
		// 裸字符串：无星期标签，仅展示，不贡献任何区间

	case map[string]any:
		for k, v := range src {
			n.addEntry(result, k, v)
		}

	case map[string]string:
		for k, v := range src {
			n.addEntry(result, k, v)
		}

	case map[string][]string:
		for k, v := range src {
			for _, item := range v {
				n.addEntry(result, k, item)
			}
		}

	case []any:
		// {day, time} 记录列表
		for _, item := range src {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			day, _ := rec["day"].(string)
			t, _ := rec["time"].(string)
			if day == "" {
				continue
			}
			n.addEntry(result, day, t)
		}
	}

	return result
}

// addEntry 解析一个 星期 → 值 条目，值可以是字符串或字符串列表
func (n *Normalizer) addEntry(result DaySchedule, dayLabel string, value any) {
	day, ok := canonicalDay(dayLabel)
	if !ok {
		return
	}

	switch v := value.(type) {
	case string:
		for _, tok := range splitTokens(v) {
			if iv, ok := n.parseToken(tok); ok {
				result[day] = append(result[day], iv)
			}
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			for _, tok := range splitTokens(s) {
				if iv, ok := n.parseToken(tok); ok {
					result[day] = append(result[day], iv)
				}
			}
		}
	}
}

// parseToken 解析单个 token；无法识别时 ok 为 false
func (n *Normalizer) parseToken(token string) (TimeInterval, bool) {
	tok := decorations.Replace(strings.TrimSpace(token))
	if tok == "" {
		return TimeInterval{}, false
	}

	// 显式钟点区间 "h:mm-h:mm" / "h:mm"
	if m := clockPattern.FindStringSubmatch(tok); m != nil {
		start, ok := clockMinute(m[1], m[2])
		if !ok {
			return TimeInterval{}, false
		}
		var end int
		if m[3] != "" {
			end, ok = clockMinute(m[3], m[4])
			if !ok {
				return TimeInterval{}, false
			}
		} else {
			end = start + defaultTokenDuration
			if end > 24*60 {
				end = 24 * 60
			}
		}
		iv, err := NewTimeInterval(start, end)
		if err != nil {
			return TimeInterval{}, false
		}
		return iv, true
	}

	// 节次区间 "a-b" / 单节次 "n"
	if m := periodPattern.FindStringSubmatch(tok); m != nil {
		a, _ := strconv.Atoi(m[1])
		b := a
		if m[2] != "" {
			b, _ = strconv.Atoi(m[2])
		}
		iv, ok := n.table.Span(a, b)
		if !ok {
			return TimeInterval{}, false
		}
		return iv, true
	}

	return TimeInterval{}, false
}

// splitTokens 按中英文逗号切分 token 串
func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，'
	})
}

// clockMinute "h","mm" → 自 0 点起的分钟数
func clockMinute(hs, ms string) (int, bool) {
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// canonicalDay 将各类星期写法归一为规范标签
func canonicalDay(label string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	day, ok := dayAliases[key]
	return day, ok
}
