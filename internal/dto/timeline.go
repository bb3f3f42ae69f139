package dto

import "time"

// ── 时间线模块 DTO ──

// TimelineRequest 时间线查询参数
type TimelineRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"` // 缺省为当前班次日
	Mode string `form:"mode" binding:"omitempty,oneof=shift_day calendar_day"`
}

// SegmentResponse 时间线分段响应
type SegmentResponse struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Type        string    `json:"type"` // WORK_TASK | WORK_MANUAL | BREAK | IDLE | NO_DUTY
	BreakType   string    `json:"break_type,omitempty"`
	BreakReason string    `json:"break_reason,omitempty"`
	Running     bool      `json:"running,omitempty"` // 分段来源仍在进行中
	IsWFH       bool      `json:"is_wfh,omitempty"`
}

// TotalsResponse 当日时长统计响应
type TotalsResponse struct {
	DutySeconds  int64   `json:"duty_seconds"`
	WorkSeconds  int64   `json:"work_seconds"`
	BreakSeconds int64   `json:"break_seconds"`
	IdleSeconds  int64   `json:"idle_seconds"`
	WFHSeconds   int64   `json:"wfh_seconds"`
	Utilization  float64 `json:"utilization"` // work / duty，duty 为 0 时恒为 0
}

// UserTimelineResponse 单用户时间线响应
type UserTimelineResponse struct {
	UserID      string            `json:"user_id"`
	UserName    string            `json:"user_name"`
	DutyDate    string            `json:"duty_date"`
	WindowStart time.Time         `json:"window_start"`
	WindowEnd   time.Time         `json:"window_end"`
	Ticks       []time.Time       `json:"ticks"` // 坐标轴刻度，窗口内等间隔
	Segments    []SegmentResponse `json:"segments"`
	Totals      TotalsResponse    `json:"totals"`
	Message     string            `json:"message,omitempty"` // 无考勤记录等提示
}

// TeamTimelineResponse 团队时间线响应（按用户一行）
type TeamTimelineResponse struct {
	DutyDate    string                 `json:"duty_date"`
	WindowStart time.Time              `json:"window_start"`
	WindowEnd   time.Time              `json:"window_end"`
	Ticks       []time.Time            `json:"ticks"`
	Rows        []UserTimelineResponse `json:"rows"`
}

// [自证通过] internal/dto/timeline.go
