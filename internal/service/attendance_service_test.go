package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"worktrack/backend/internal/dto"
	"worktrack/backend/internal/model"
	pkgerrors "worktrack/backend/pkg/errors"
)

func setupAttendanceService(t *testing.T) (AttendanceService, *testEnv) {
	env := newTestEnv(t)
	svc := NewAttendanceService(env.cfg, env.repo, env.cal, env.rdb, env.logger, env.nowFn())
	return svc, env
}

// ── CheckIn / CheckOut ──

func TestAttendanceService_CheckIn_Success(t *testing.T) {
	svc, env := setupAttendanceService(t)

	resp, err := svc.CheckIn(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}
	if resp.InTime == nil || !resp.InTime.Equal(env.now) {
		t.Errorf("签到时间应为 now")
	}
	if resp.DutyDate != "2026-03-02" {
		t.Errorf("期望班次日=2026-03-02，实际=%s", resp.DutyDate)
	}
	if resp.OutTime != nil {
		t.Error("新签到记录不应有签退时间")
	}
}

func TestAttendanceService_CheckIn_Duplicate(t *testing.T) {
	svc, _ := setupAttendanceService(t)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, "user-1"); err != nil {
		t.Fatalf("首次签到应成功: %v", err)
	}
	if _, err := svc.CheckIn(ctx, "user-1"); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("重复签到应返回 ErrAlreadyCheckedIn，实际=%v", err)
	}
}

func TestAttendanceService_CheckOut_Success(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, "user-1"); err != nil {
		t.Fatalf("签到失败: %v", err)
	}

	env.now = env.now.Add(4 * time.Hour)
	resp, err := svc.CheckOut(ctx, "user-1")
	if err != nil {
		t.Fatalf("CheckOut 应成功: %v", err)
	}
	if resp.OutTime == nil || !resp.OutTime.Equal(env.now) {
		t.Error("签退时间应为 now")
	}
	if resp.AutoOff {
		t.Error("用户主动签退不应标记 auto_off")
	}
}

func TestAttendanceService_CheckOut_NotCheckedIn(t *testing.T) {
	svc, _ := setupAttendanceService(t)

	if _, err := svc.CheckOut(context.Background(), "user-1"); !errors.Is(err, ErrNotCheckedIn) {
		t.Errorf("未签到时签退应返回 ErrNotCheckedIn，实际=%v", err)
	}
}

func TestAttendanceService_CheckOut_ClosesOpenBreak(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	svc.CheckIn(ctx, "user-1")
	env.now = env.now.Add(time.Hour)
	if _, err := svc.StartBreak(ctx, "user-1", &dto.StartBreakRequest{Type: model.BreakTypeLunch}); err != nil {
		t.Fatalf("开始休息失败: %v", err)
	}

	env.now = env.now.Add(30 * time.Minute)
	if _, err := svc.CheckOut(ctx, "user-1"); err != nil {
		t.Fatalf("签退失败: %v", err)
	}

	for _, b := range env.attRepo.breaks {
		if b.EndAt == nil {
			t.Error("签退后不应残留进行中的休息")
		}
		if b.EndedBy == nil || *b.EndedBy != model.EndedByUser {
			t.Error("签退联动关闭的休息应标记 ended_by=USER")
		}
	}
}

// ── Break ──

func TestAttendanceService_Break_Lifecycle(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	svc.CheckIn(ctx, "user-1")

	if _, err := svc.StartBreak(ctx, "user-1", &dto.StartBreakRequest{Type: model.BreakTypeRest}); err != nil {
		t.Fatalf("开始休息失败: %v", err)
	}
	if _, err := svc.StartBreak(ctx, "user-1", &dto.StartBreakRequest{Type: model.BreakTypeRest}); !errors.Is(err, ErrBreakInProgress) {
		t.Errorf("重复开始休息应返回 ErrBreakInProgress，实际=%v", err)
	}

	env.now = env.now.Add(45 * time.Minute)
	resp, err := svc.EndBreak(ctx, "user-1")
	if err != nil {
		t.Fatalf("结束休息失败: %v", err)
	}
	if resp.DurationMinutes != 45 {
		t.Errorf("期望休息时长=45 分钟，实际=%d", resp.DurationMinutes)
	}

	if _, err := svc.EndBreak(ctx, "user-1"); !errors.Is(err, ErrNoBreakInProgress) {
		t.Errorf("无进行中休息时结束应返回 ErrNoBreakInProgress，实际=%v", err)
	}
}

// ── WFH ──

func TestAttendanceService_AddWFHInterval(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	// 无考勤记录时自动补建壳记录
	resp, err := svc.AddWFHInterval(ctx, "user-1", &dto.WFHIntervalRequest{
		StartAt: env.at(2, 13, 0),
		EndAt:   env.at(2, 15, 0),
	})
	if err != nil {
		t.Fatalf("登记居家办公应成功: %v", err)
	}
	if resp.ID == "" {
		t.Error("应返回居家办公区间 ID")
	}

	if _, err := svc.AddWFHInterval(ctx, "user-1", &dto.WFHIntervalRequest{
		StartAt: env.at(2, 15, 0),
		EndAt:   env.at(2, 15, 0),
	}); !errors.Is(err, ErrWFHRangeInvalid) {
		t.Errorf("零长度区间应返回 ErrWFHRangeInvalid，实际=%v", err)
	}
}

// ── NormalizeStaleSessions ──

func TestAttendanceService_Normalize_ClosesStaleSession(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	// 签到 11 小时未签退（阈值 10 小时）
	inTime := env.now.Add(-11 * time.Hour)
	rec := &model.Attendance{
		UserID:   "user-1",
		DutyDate: env.cal.DutyDate(inTime),
		InTime:   &inTime,
	}
	env.attRepo.Create(ctx, rec)

	resp, err := svc.NormalizeStaleSessions(ctx)
	if err != nil {
		t.Fatalf("巡检应成功: %v", err)
	}
	if resp.Scanned != 1 || resp.Normalized != 1 {
		t.Fatalf("期望 scanned=1 normalized=1，实际=%d/%d", resp.Scanned, resp.Normalized)
	}

	closed := resp.Records[0]
	wantOut := inTime.Add(10 * time.Hour)
	if closed.OutTime == nil || !closed.OutTime.Equal(wantOut) {
		t.Errorf("签退时间应回填为 in_time+10h")
	}
	if !closed.AutoOff {
		t.Error("应标记 auto_off")
	}
	if closed.AutoOffReason == nil || *closed.AutoOffReason != model.AutoOffReason {
		t.Error("应写入 auto_off_reason=AUTO_OFF_10H")
	}
}

func TestAttendanceService_Normalize_Idempotent(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	inTime := env.now.Add(-12 * time.Hour)
	env.attRepo.Create(ctx, &model.Attendance{
		UserID:   "user-1",
		DutyDate: env.cal.DutyDate(inTime),
		InTime:   &inTime,
	})

	if _, err := svc.NormalizeStaleSessions(ctx); err != nil {
		t.Fatalf("首轮巡检失败: %v", err)
	}

	resp, err := svc.NormalizeStaleSessions(ctx)
	if err != nil {
		t.Fatalf("重复巡检失败: %v", err)
	}
	if resp.Scanned != 0 || resp.Normalized != 0 {
		t.Errorf("重复巡检不应再关闭任何记录，实际 scanned=%d normalized=%d", resp.Scanned, resp.Normalized)
	}
}

func TestAttendanceService_Normalize_ExactThresholdNotStale(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	// 恰好 10 小时，未越过阈值
	inTime := env.now.Add(-10 * time.Hour)
	env.attRepo.Create(ctx, &model.Attendance{
		UserID:   "user-1",
		DutyDate: env.cal.DutyDate(inTime),
		InTime:   &inTime,
	})

	resp, err := svc.NormalizeStaleSessions(ctx)
	if err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if resp.Normalized != 0 {
		t.Errorf("恰好达到阈值不应自动签退，实际 normalized=%d", resp.Normalized)
	}
}

func TestAttendanceService_Normalize_ClosesOpenBreak(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	inTime := env.now.Add(-11 * time.Hour)
	rec := &model.Attendance{
		UserID:   "user-1",
		DutyDate: env.cal.DutyDate(inTime),
		InTime:   &inTime,
	}
	env.attRepo.Create(ctx, rec)
	env.attRepo.CreateBreak(ctx, &model.AttendanceBreak{
		AttendanceID: rec.AttendanceID,
		Type:         model.BreakTypeDinner,
		StartAt:      inTime.Add(6 * time.Hour),
	})

	if _, err := svc.NormalizeStaleSessions(ctx); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}

	for _, b := range env.attRepo.breaks {
		if b.EndAt == nil {
			t.Fatal("自动签退应联动关闭进行中的休息")
		}
		if b.EndedBy == nil || *b.EndedBy != model.EndedByAutoOff {
			t.Error("联动关闭的休息应标记 ended_by=AUTO_OFF")
		}
	}
}

// 自动签退联动关闭任务会话：时长为跨度扣除重叠暂停，并累加任务累计工时
func TestAttendanceService_Normalize_SessionNetDuration(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	inTime := env.now.Add(-11 * time.Hour)
	boundary := inTime.Add(10 * time.Hour)
	env.attRepo.Create(ctx, &model.Attendance{
		UserID:   "user-1",
		DutyDate: env.cal.DutyDate(inTime),
		InTime:   &inTime,
	})

	env.taskRepo.Create(ctx, &model.Task{Title: "联调", TotalSpentSeconds: 600})
	sess := &model.TaskWorkSession{
		TaskID:    "task-1",
		UserID:    "user-1",
		Source:    model.SessionSourceAuto,
		Status:    model.TaskStatusInProgress,
		StartedAt: inTime.Add(time.Hour),
	}
	env.taskRepo.CreateSession(ctx, sess)
	// 会话内一段已闭合的暂停，net = 9h - 1h
	bEnd := inTime.Add(3 * time.Hour)
	env.taskRepo.CreateTaskBreak(ctx, &model.TaskBreak{
		TaskID:    "task-1",
		UserID:    "user-1",
		StartedAt: inTime.Add(2 * time.Hour),
		EndedAt:   &bEnd,
	})

	if _, err := svc.NormalizeStaleSessions(ctx); err != nil {
		t.Fatalf("巡检失败: %v", err)
	}

	if sess.EndedAt == nil || !sess.EndedAt.Equal(boundary) {
		t.Fatal("会话应在自动签退边界处闭合")
	}
	if sess.EndedBy == nil || *sess.EndedBy != model.EndedByAutoOff {
		t.Error("联动闭合的会话应标记 ended_by=AUTO_OFF")
	}
	if sess.DurationSeconds != 8*3600 {
		t.Errorf("期望净时长=28800（9h 跨度扣 1h 暂停），实际=%d", sess.DurationSeconds)
	}
	task, _ := env.taskRepo.GetByID(ctx, "task-1")
	if task.TotalSpentSeconds != 600+8*3600 {
		t.Errorf("任务累计工时应累加会话净时长，实际=%d", task.TotalSpentSeconds)
	}
}

// 自动签退只闭合边界之前开始的子记录，边界之后的属于下一段在岗
func TestAttendanceService_Normalize_KeepsRecordsStartedAfterBoundary(t *testing.T) {
	svc, env := setupAttendanceService(t)
	ctx := context.Background()

	inTime := env.now.Add(-11 * time.Hour)
	boundary := inTime.Add(10 * time.Hour)
	env.attRepo.Create(ctx, &model.Attendance{
		UserID:   "user-1",
		DutyDate: env.cal.DutyDate(inTime),
		InTime:   &inTime,
	})

	env.taskRepo.Create(ctx, &model.Task{Title: "联调"})
	lateSess := &model.TaskWorkSession{
		TaskID:    "task-1",
		UserID:    "user-1",
		Source:    model.SessionSourceAuto,
		Status:    model.TaskStatusInProgress,
		StartedAt: boundary.Add(10 * time.Minute),
	}
	env.taskRepo.CreateSession(ctx, lateSess)
	lateBreak := &model.TaskBreak{
		TaskID:    "task-1",
		UserID:    "user-1",
		StartedAt: boundary.Add(20 * time.Minute),
	}
	env.taskRepo.CreateTaskBreak(ctx, lateBreak)
	lateLog := &model.ManualActivityLog{
		UserID:  "user-1",
		StartAt: boundary.Add(30 * time.Minute),
	}
	env.logRepo.Create(ctx, lateLog)

	resp, err := svc.NormalizeStaleSessions(ctx)
	if err != nil {
		t.Fatalf("巡检失败: %v", err)
	}
	if resp.Normalized != 1 {
		t.Fatalf("考勤记录本身仍应被闭合，实际 normalized=%d", resp.Normalized)
	}

	if lateSess.EndedAt != nil {
		t.Error("边界之后开始的会话应保持打开")
	}
	if lateBreak.EndedAt != nil {
		t.Error("边界之后开始的任务暂停应保持打开")
	}
	if lateLog.EndAt != nil {
		t.Error("边界之后开始的手工日志应保持打开")
	}
}

// Redis 未连接（降级模式）时考勤操作照常可用
func TestAttendanceService_DegradedRedis(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAttendanceService(env.cfg, env.repo, env.cal, nil, env.logger, env.nowFn())

	resp, err := svc.CheckIn(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("降级模式下签到应成功: %v", err)
	}
	if resp.InTime == nil {
		t.Error("签到时间应回填")
	}
	if _, err := svc.CheckOut(context.Background(), "user-1"); err != nil {
		t.Fatalf("降级模式下签退应成功: %v", err)
	}
}

func TestAttendanceRepo_CloseStale_PreconditionChanged(t *testing.T) {
	_, env := setupAttendanceService(t)
	ctx := context.Background()

	inTime := env.now.Add(-11 * time.Hour)
	out := env.now.Add(-time.Hour)
	rec := &model.Attendance{
		UserID:   "user-1",
		DutyDate: env.cal.DutyDate(inTime),
		InTime:   &inTime,
		OutTime:  &out, // 巡检前用户已自行签退
	}
	env.attRepo.Create(ctx, rec)

	err := env.attRepo.CloseStale(ctx, rec, inTime.Add(10*time.Hour))
	if !errors.Is(err, pkgerrors.ErrPreconditionChanged) {
		t.Errorf("前置条件失效应返回 ErrPreconditionChanged，实际=%v", err)
	}
}

// [自证通过] internal/service/attendance_service_test.go
