package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"worktrack/backend/config"
	"worktrack/backend/internal/dto"
	"worktrack/backend/internal/engine"
	"worktrack/backend/internal/model"
	"worktrack/backend/internal/repository"
	"worktrack/backend/pkg/redis"
)

// ── 任务工时模块业务错误 ──

var (
	ErrTaskNotFound        = errors.New("任务不存在")
	ErrSameStatus          = errors.New("任务已处于目标状态")
	ErrTaskBreakInProgress = errors.New("该任务已有进行中的暂停")
	ErrNoTaskBreak         = errors.New("该任务当前无进行中的暂停")
	ErrManualLogInProgress = errors.New("已有进行中的手动活动")
	ErrNoOpenManualLog     = errors.New("当前无进行中的手动活动")
	ErrManualRangeInvalid  = errors.New("手动活动结束时间必须晚于开始时间")
)

// TaskTimeService 任务工时业务接口
//
// 状态流转与会话联动规则：
//   - 进入 IN_PROGRESS / DEV_TEST（从非活跃状态）自动开启 AUTO 会话
//   - 离开活跃状态自动关闭打开的会话
//   - 同为活跃状态间的流转不产生新会话
//
// 累计有效工时 = 状态活跃窗口 ∩ 值班区间，再扣除任务内暂停。
type TaskTimeService interface {
	ApplyStatusTransition(ctx context.Context, taskID string, req *dto.TaskStatusTransitionRequest, callerID string) (*dto.TaskSpentTimeResponse, error)
	StartTaskBreak(ctx context.Context, taskID, userID string, req *dto.StartTaskBreakRequest) error
	EndTaskBreak(ctx context.Context, taskID, userID string) error
	LogManualActivity(ctx context.Context, userID string, req *dto.ManualActivityRequest) error
	EndManualActivity(ctx context.Context, userID string) error
	GetTaskSpentTime(ctx context.Context, taskID string) (*dto.TaskSpentTimeResponse, error)
	ListTaskSessions(ctx context.Context, taskID string) ([]dto.SessionResponse, error)
}

type taskTimeService struct {
	cfg    *config.Config
	repo   *repository.Repository
	cal    *engine.Calendar
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewTaskTimeService 创建 TaskTimeService 实例
func NewTaskTimeService(
	cfg *config.Config,
	repo *repository.Repository,
	cal *engine.Calendar,
	rdb *redis.Client,
	logger *zap.Logger,
	now func() time.Time,
) TaskTimeService {
	return &taskTimeService{
		cfg:    cfg,
		repo:   repo,
		cal:    cal,
		rdb:    rdb,
		logger: logger,
		now:    now,
	}
}

// ────────────────────── ApplyStatusTransition ──────────────────────

func (s *taskTimeService) ApplyStatusTransition(ctx context.Context, taskID string, req *dto.TaskStatusTransitionRequest, callerID string) (*dto.TaskSpentTimeResponse, error) {
	now := s.now()

	task, err := s.repo.Task.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status == req.ToStatus {
		return nil, ErrSameStatus
	}

	fromStatus := task.Status
	wasActive := model.IsActiveWorkStatus(fromStatus)
	becomesActive := model.IsActiveWorkStatus(req.ToStatus)

	// 1. 落历史
	history := &model.TaskStatusHistory{
		TaskID:     taskID,
		FromStatus: &fromStatus,
		ToStatus:   req.ToStatus,
		ChangedAt:  now,
		ChangedBy:  &callerID,
	}
	if err := s.repo.Task.CreateStatusHistory(ctx, history); err != nil {
		s.logger.Error("记录状态流转历史失败", zap.Error(err))
		return nil, err
	}

	// 2. 会话联动（以经办人为会话主体，无经办人则不追踪会话）
	if task.AssigneeID != nil {
		userID := *task.AssigneeID
		switch {
		case becomesActive && !wasActive:
			if _, err := s.repo.Task.GetOpenSession(ctx, taskID, userID); errors.Is(err, gorm.ErrRecordNotFound) {
				session := &model.TaskWorkSession{
					TaskID:    taskID,
					UserID:    userID,
					Source:    model.SessionSourceAuto,
					Status:    req.ToStatus,
					StartedAt: now,
				}
				if err := s.repo.Task.CreateSession(ctx, session); err != nil {
					s.logger.Error("开启工作会话失败", zap.Error(err))
					return nil, err
				}
			} else if err != nil {
				return nil, err
			}
		case wasActive && !becomesActive:
			if session, err := s.repo.Task.GetOpenSession(ctx, taskID, userID); err == nil {
				if err := s.closeSession(ctx, session, now, model.EndedByUser); err != nil {
					return nil, err
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	// 3. 更新任务状态（乐观锁）
	task.Status = req.ToStatus
	if err := s.repo.Task.Update(ctx, task); err != nil {
		return nil, err
	}

	// 4. 重算并回写累计有效工时
	return s.recalculate(ctx, task, now)
}

// closeSession 关闭一段工作会话并回填净时长。
// 先闭合会话内仍在进行的任务暂停，再按会话跨度扣除重叠暂停计算时长。
func (s *taskTimeService) closeSession(ctx context.Context, session *model.TaskWorkSession, end time.Time, endedBy string) error {
	if end.Before(session.StartedAt) {
		end = session.StartedAt
	}

	if b, err := s.repo.Task.GetOpenTaskBreak(ctx, session.TaskID, session.UserID); err == nil {
		b.EndedAt = &end
		if err := s.repo.Task.UpdateTaskBreak(ctx, b); err != nil {
			s.logger.Error("闭合任务暂停失败", zap.Error(err))
			return err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	breaks, err := s.repo.Task.ListTaskBreaks(ctx, session.TaskID)
	if err != nil {
		return err
	}
	userBreaks := breaks[:0:0]
	for i := range breaks {
		if breaks[i].UserID == session.UserID {
			userBreaks = append(userBreaks, breaks[i])
		}
	}

	session.EndedAt = &end
	session.EndedBy = &endedBy
	session.DurationSeconds = engine.SessionNetSeconds(session.StartedAt, end, userBreaks)
	if err := s.repo.Task.UpdateSession(ctx, session); err != nil {
		s.logger.Error("关闭工作会话失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 任务内暂停 ──────────────────────

func (s *taskTimeService) StartTaskBreak(ctx context.Context, taskID, userID string, req *dto.StartTaskBreakRequest) error {
	now := s.now()

	if _, err := s.repo.Task.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	if _, err := s.repo.Task.GetOpenTaskBreak(ctx, taskID, userID); err == nil {
		return ErrTaskBreakInProgress
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	b := &model.TaskBreak{
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: now,
		Reason:    req.Reason,
	}
	return s.repo.Task.CreateTaskBreak(ctx, b)
}

func (s *taskTimeService) EndTaskBreak(ctx context.Context, taskID, userID string) error {
	now := s.now()

	b, err := s.repo.Task.GetOpenTaskBreak(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoTaskBreak
		}
		return err
	}

	end := now
	if end.Before(b.StartedAt) {
		end = b.StartedAt
	}
	b.EndedAt = &end
	return s.repo.Task.UpdateTaskBreak(ctx, b)
}

// ────────────────────── 手动活动日志 ──────────────────────

func (s *taskTimeService) LogManualActivity(ctx context.Context, userID string, req *dto.ManualActivityRequest) error {
	if req.EndAt != nil && !req.EndAt.After(req.StartAt) {
		return ErrManualRangeInvalid
	}

	// 开启进行中的活动前确认没有未闭合的
	if req.EndAt == nil {
		if _, err := s.repo.ManualLog.GetOpenByUser(ctx, userID); err == nil {
			return ErrManualLogInProgress
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	log := &model.ManualActivityLog{
		UserID:  userID,
		Type:    model.SessionSourceManual,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Note:    req.Note,
	}
	if req.EndAt != nil {
		log.DurationSeconds = int64(req.EndAt.Sub(req.StartAt).Seconds())
	}
	return s.repo.ManualLog.Create(ctx, log)
}

func (s *taskTimeService) EndManualActivity(ctx context.Context, userID string) error {
	now := s.now()

	log, err := s.repo.ManualLog.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoOpenManualLog
		}
		return err
	}

	end := now
	if end.Before(log.StartAt) {
		end = log.StartAt
	}
	log.EndAt = &end
	log.DurationSeconds = int64(end.Sub(log.StartAt).Seconds())
	return s.repo.ManualLog.Update(ctx, log)
}

// ────────────────────── GetTaskSpentTime ──────────────────────

func (s *taskTimeService) GetTaskSpentTime(ctx context.Context, taskID string) (*dto.TaskSpentTimeResponse, error) {
	now := s.now()

	task, err := s.repo.Task.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return s.recalculate(ctx, task, now)
}

// ListTaskSessions 列出任务的全部工作会话（含进行中的）
func (s *taskTimeService) ListTaskSessions(ctx context.Context, taskID string) ([]dto.SessionResponse, error) {
	if _, err := s.repo.Task.GetByID(ctx, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	sessions, err := s.repo.Task.ListSessionsByTask(ctx, taskID)
	if err != nil {
		s.logger.Error("查询工作会话失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		resp = append(resp, dto.SessionResponse{
			ID:              sess.SessionID,
			TaskID:          sess.TaskID,
			Source:          sess.Source,
			StartedAt:       sess.StartedAt,
			EndedAt:         sess.EndedAt,
			DurationSeconds: sess.DurationSeconds,
			EndedBy:         sess.EndedBy,
		})
	}
	return resp, nil
}

// recalculate 从状态历史重建活跃窗口，与经办人值班区间求交、扣除任务暂停，
// 得到累计有效工时并回写任务表
func (s *taskTimeService) recalculate(ctx context.Context, task *model.Task, now time.Time) (*dto.TaskSpentTimeResponse, error) {
	history, err := s.repo.Task.ListStatusHistory(ctx, task.TaskID)
	if err != nil {
		s.logger.Error("查询状态历史失败", zap.Error(err))
		return nil, err
	}

	workWindows := engine.BuildTaskWorkWindows(history, now)

	resp := &dto.TaskSpentTimeResponse{
		TaskID:            task.TaskID,
		Title:             task.Title,
		Status:            task.Status,
		TotalSpentSeconds: task.TotalSpentSeconds,
	}
	s.attachPresence(resp, engine.PresenceOffDuty)

	if task.AssigneeID == nil {
		return resp, nil
	}

	// 值班区间取自任务生命周期覆盖的考勤记录；
	// 即便无活跃窗口也至少覆盖当前班次日，保证实时在岗状态可判定
	to := s.cal.DutyDate(now)
	from := to.AddDate(0, 0, -1)
	if len(workWindows) > 0 {
		if wf := s.cal.DutyDate(workWindows[0].Start); wf.Before(from) {
			from = wf
		}
	}
	records, err := s.repo.Attendance.ListByUserAndRange(ctx, *task.AssigneeID, from, to)
	if err != nil {
		s.logger.Error("查询经办人考勤失败", zap.Error(err))
		return nil, err
	}
	duty := engine.ResolveDutyWindows(s.cal, records, now)
	s.attachPresence(resp, engine.ResolvePresence(duty.Tagged, now))

	if len(workWindows) == 0 {
		return resp, nil
	}

	taskBreaks, err := s.repo.Task.ListTaskBreaks(ctx, task.TaskID)
	if err != nil {
		return nil, err
	}

	spent := engine.CalculateSpentTime(
		workWindows,
		duty.Merged,
		engine.BuildTaskBreakIntervals(taskBreaks, now),
	)

	resp.TotalSeconds = spent.DutyOverlapSeconds
	resp.RawWorkSeconds = spent.RawWorkSeconds
	resp.BreakSeconds = spent.BreakSeconds
	resp.EffectiveSeconds = spent.EffectiveSpentSeconds
	resp.TotalSpentSeconds = spent.EffectiveSpentSeconds

	if err := s.repo.Task.UpdateTotalSpent(ctx, task.TaskID, spent.EffectiveSpentSeconds); err != nil {
		s.logger.Warn("回写累计工时失败", zap.String("task_id", task.TaskID), zap.Error(err))
	}

	return resp, nil
}

// attachPresence 将经办人实时在岗状态写入响应
func (s *taskTimeService) attachPresence(resp *dto.TaskSpentTimeResponse, status engine.PresenceStatus) {
	resp.PresenceStatusNow = string(status)
	resp.IsOnDutyNow = status != engine.PresenceOffDuty
	resp.IsWFHNow = status == engine.PresenceWFH
	resp.IsOffDutyNow = status == engine.PresenceOffDuty
}

// [自证通过] internal/service/task_time_service.go
