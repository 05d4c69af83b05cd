package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 选课台账跨层哨兵错误 ──
// 由 Repository 的条件更新语句产生，Service 层据此映射业务结果

var (
	// ErrSectionFull 教学班已满：enrolled_count == capacity 时拒绝选课，不排队
	ErrSectionFull = errors.New("教学班已满")
	// ErrAlreadyEnrolled 重复选课：该学生已持有此教学班的选课记录
	ErrAlreadyEnrolled = errors.New("已选过该教学班")
	// ErrNotEnrolled 未选课：退课时不存在对应选课记录
	ErrNotEnrolled = errors.New("未选该教学班")
)
