// Package engine 实现值班/在岗区间引擎：
// 把考勤签到、居家办公子区间、任务工作会话、任务暂停与手动日志
// 归并为每用户每窗口内无缝隙、无重叠的分类时间线，并给出汇总时长、
// 实时在岗状态与任务有效工时。
//
// 包内所有函数均为纯函数：不读全局时钟、不做持久化，"now" 由调用方
// 在一次计算开始时捕获一次并全程透传，保证同一次计算内的外推一致。
package engine

import (
	"sort"
	"time"
)

// Interval 时间区间，左闭右开 [Start, End)
// 不变式：End 晚于 Start；"进行中"的记录在进入代数运算前
// 一律以 now 物化结束时间，不允许以零值参与运算
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval 规范化构造区间
// Start/End 缺失（零值）或 End <= Start 时返回 ok=false，调用方应丢弃。
// 规范化永不报错：非法数据静默排除，不中断计算。
func NewInterval(start, end time.Time) (Interval, bool) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Duration 区间长度
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Contains 时刻 t 是否落在区间内（左闭右开）
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Overlaps 两区间是否存在正长度交集
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Clamp 将区间裁剪到 window 内；无正长度交集时返回 ok=false
func (iv Interval) Clamp(window Interval) (Interval, bool) {
	start := iv.Start
	if start.Before(window.Start) {
		start = window.Start
	}
	end := iv.End
	if end.After(window.End) {
		end = window.End
	}
	return NewInterval(start, end)
}

// Midpoint 区间中点（分段分类时用于归属判定）
func (iv Interval) Midpoint() time.Time {
	return iv.Start.Add(iv.End.Sub(iv.Start) / 2)
}

// Merge 归并区间集：排序后合并重叠或相邻的区间，
// 结果最小、有序且互不重叠。幂等：Merge(Merge(x)) == Merge(x)
func Merge(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sortIntervals(sorted)

	result := make([]Interval, 0, len(sorted))
	result = append(result, sorted[0])
	for _, iv := range sorted[1:] {
		last := &result[len(result)-1]
		// start <= lastEnd 时并入（含首尾相接）
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		result = append(result, iv)
	}
	return result
}

// Subtract 从 base 中移除 cuts 覆盖的部分
// 每个 base 区间依次被每个（已归并的）cut 切割，产生 0~2 个剩余片段；
// 空片段丢弃。cuts 在内部归并，因此结果与 cuts 的输入顺序无关。
func Subtract(base, cuts []Interval) []Interval {
	if len(base) == 0 {
		return nil
	}
	merged := Merge(cuts)
	if len(merged) == 0 {
		result := make([]Interval, len(base))
		copy(result, base)
		return result
	}

	var result []Interval
	for _, b := range base {
		pieces := []Interval{b}
		for _, cut := range merged {
			var next []Interval
			for _, p := range pieces {
				if !p.Overlaps(cut) {
					next = append(next, p)
					continue
				}
				// 左侧剩余
				if left, ok := NewInterval(p.Start, cut.Start); ok {
					next = append(next, left)
				}
				// 右侧剩余
				if right, ok := NewInterval(cut.End, p.End); ok {
					next = append(next, right)
				}
			}
			pieces = next
			if len(pieces) == 0 {
				break
			}
		}
		result = append(result, pieces...)
	}
	return result
}

// Intersect 区间集与窗口集的两两交集
// 一个区间跨越多个窗口时会产生多个输出片段；仅保留正长度交集。
func Intersect(intervals, windows []Interval) []Interval {
	var result []Interval
	for _, iv := range intervals {
		for _, w := range windows {
			if clamped, ok := iv.Clamp(w); ok {
				result = append(result, clamped)
			}
		}
	}
	return result
}

// SumSeconds 区间集总时长（秒）
// 逐区间向下取整后求和，避免聚合时的小数漂移
func SumSeconds(intervals []Interval) int64 {
	var total int64
	for _, iv := range intervals {
		total += int64(iv.End.Sub(iv.Start) / time.Second)
	}
	return total
}

// sortIntervals 按 Start 升序原地排序
func sortIntervals(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
}

// [自证通过] internal/engine/interval.go
