package engine

import (
	"sort"
	"time"

	"worktrack/backend/internal/model"
)

// ManualInterval 手动日志区间，携带进行中标志
type ManualInterval struct {
	Interval
	Running bool
}

// BuildTaskWorkWindows 从任务状态流转历史构建工作窗口
//
// 按时间顺序扫描：状态进入"进行中"集合（IN_PROGRESS / DEV_TEST）且当前
// 无窗口打开时，打开一个窗口；状态离开该集合时关闭。历史结束时仍打开的
// 窗口延伸到 now。
func BuildTaskWorkWindows(history []model.TaskStatusHistory, now time.Time) []Interval {
	if len(history) == 0 {
		return nil
	}

	sorted := make([]model.TaskStatusHistory, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ChangedAt.Before(sorted[j].ChangedAt)
	})

	var windows []Interval
	var openStart *time.Time
	for i := range sorted {
		ev := &sorted[i]
		active := model.IsActiveWorkStatus(ev.ToStatus)
		switch {
		case active && openStart == nil:
			t := ev.ChangedAt
			openStart = &t
		case !active && openStart != nil:
			if iv, ok := NewInterval(*openStart, ev.ChangedAt); ok {
				windows = append(windows, iv)
			}
			openStart = nil
		}
	}
	if openStart != nil {
		if iv, ok := NewInterval(*openStart, now); ok {
			windows = append(windows, iv)
		}
	}
	return windows
}

// BuildTaskBreakIntervals 从任务暂停记录构建暂停区间集
// 进行中的暂停以 now 物化结束
func BuildTaskBreakIntervals(breaks []model.TaskBreak, now time.Time) []Interval {
	var result []Interval
	for i := range breaks {
		end := now
		if breaks[i].EndedAt != nil {
			end = *breaks[i].EndedAt
		}
		if iv, ok := NewInterval(breaks[i].StartedAt, end); ok {
			result = append(result, iv)
		}
	}
	return result
}

// BuildSessionIntervals 从任务工作会话构建工作区间集
// 进行中的会话以 now 物化结束
func BuildSessionIntervals(sessions []model.TaskWorkSession, now time.Time) []Interval {
	var result []Interval
	for i := range sessions {
		end := now
		if sessions[i].EndedAt != nil {
			end = *sessions[i].EndedAt
		}
		if iv, ok := NewInterval(sessions[i].StartedAt, end); ok {
			result = append(result, iv)
		}
	}
	return result
}

// EffectiveWorkIntervals 有效工作区间 = 工作窗口减去（归并后的）任务暂停
func EffectiveWorkIntervals(windows, taskBreaks []Interval) []Interval {
	return Subtract(windows, Merge(taskBreaks))
}

// SessionNetSeconds 会话闭合时的净时长口径：
// 会话跨度扣除与之重叠的任务暂停，下限为零。
// 用户签退闭合与自动签退闭合共用此计算。
// 进行中的暂停以会话结束时刻 end 物化。
func SessionNetSeconds(start, end time.Time, breaks []model.TaskBreak) int64 {
	span, ok := NewInterval(start, end)
	if !ok {
		return 0
	}
	overlap := SumSeconds(Intersect(BuildTaskBreakIntervals(breaks, end), []Interval{span}))
	net := SumSeconds([]Interval{span}) - overlap
	if net < 0 {
		net = 0
	}
	return net
}

// BuildManualIntervals 从手动活动日志构建手动工作区间
// end_at 为 NULL 的日志视为进行中，以 now 物化结束并置 Running 标志
func BuildManualIntervals(logs []model.ManualActivityLog, now time.Time) []ManualInterval {
	var result []ManualInterval
	for i := range logs {
		running := logs[i].EndAt == nil
		end := now
		if logs[i].EndAt != nil {
			end = *logs[i].EndAt
		}
		if iv, ok := NewInterval(logs[i].StartAt, end); ok {
			result = append(result, ManualInterval{Interval: iv, Running: running})
		}
	}
	return result
}

// [自证通过] internal/engine/work.go
