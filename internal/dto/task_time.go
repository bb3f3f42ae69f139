package dto

import "time"

// ── 任务工时模块 DTO ──

// TaskStatusTransitionRequest 任务状态流转请求
type TaskStatusTransitionRequest struct {
	ToStatus string `json:"to_status" binding:"required,oneof=TODO IN_PROGRESS DEV_TEST REVIEW DONE"`
}

// StartTaskBreakRequest 任务内暂停请求
type StartTaskBreakRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

// ManualActivityRequest 手动活动登记请求
// end_at 缺省表示开启一段进行中的手动活动
type ManualActivityRequest struct {
	StartAt time.Time  `json:"start_at" binding:"required"`
	EndAt   *time.Time `json:"end_at"`
	Note    string     `json:"note" binding:"omitempty,max=500"`
}

// TaskSpentTimeResponse 任务累计有效工时响应
type TaskSpentTimeResponse struct {
	TaskID            string `json:"task_id"`
	Title             string `json:"title"`
	Status            string `json:"status"`
	TotalSeconds      int64  `json:"total_seconds"`       // 状态窗口与值班重叠总量
	RawWorkSeconds    int64  `json:"raw_work_seconds"`    // 未经值班裁剪的状态窗口总量（诊断用）
	BreakSeconds      int64  `json:"break_seconds"`       // 重叠中被任务暂停扣除的量
	EffectiveSeconds  int64  `json:"effective_seconds"`   // 扣除暂停后的净有效工时
	TotalSpentSeconds int64  `json:"total_spent_seconds"` // 任务表上持久化的累计值

	// 经办人当前在岗状态，用于提示"离岗期间工时不累计"
	PresenceStatusNow string `json:"presence_status_now"`
	IsOnDutyNow       bool   `json:"is_on_duty_now"`
	IsWFHNow          bool   `json:"is_wfh_now"`
	IsOffDutyNow      bool   `json:"is_off_duty_now"`
}

// SessionResponse 任务工作会话响应
type SessionResponse struct {
	ID              string     `json:"id"`
	TaskID          string     `json:"task_id"`
	Source          string     `json:"source"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds"`
	EndedBy         *string    `json:"ended_by,omitempty"`
}

// [自证通过] internal/dto/task_time.go
