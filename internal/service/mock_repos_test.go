package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"worktrack/backend/internal/engine"
	"worktrack/backend/internal/model"
	pkgerrors "worktrack/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) ListByDepartment(_ context.Context, departmentID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.DepartmentID == departmentID {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts map[string]*model.Department
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{depts: make(map[string]*model.Department)}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	if dept.DepartmentID == "" {
		dept.DepartmentID = "dept-" + dept.Name
	}
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	var result []model.Department
	for _, d := range m.depts {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.depts[dept.DepartmentID] = dept
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.Attendance
	breaks  map[string]*model.AttendanceBreak
	wfh     map[string]*model.WFHInterval
	seq     int

	// CloseStale 的事务会联动任务与手工日志仓储，mock 侧共享同批实例
	taskRepo *mockTaskRepo
	logRepo  *mockManualLogRepo
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: make(map[string]*model.Attendance),
		breaks:  make(map[string]*model.AttendanceBreak),
		wfh:     make(map[string]*model.WFHInterval),
	}
}

func (m *mockAttendanceRepo) Create(_ context.Context, rec *model.Attendance) error {
	if rec.AttendanceID == "" {
		m.seq++
		rec.AttendanceID = fmt.Sprintf("att-%d", m.seq)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	m.records[rec.AttendanceID] = rec
	return nil
}

func (m *mockAttendanceRepo) GetByID(_ context.Context, id string) (*model.Attendance, error) {
	if r, ok := m.records[id]; ok {
		return m.withChildren(r), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetOpenByUser(_ context.Context, userID string) (*model.Attendance, error) {
	for _, r := range m.records {
		if r.UserID == userID && r.OutTime == nil && r.InTime != nil {
			return m.withChildren(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) GetByUserAndDate(_ context.Context, userID string, dutyDate time.Time) (*model.Attendance, error) {
	key := dutyDate.Format("2006-01-02")
	for _, r := range m.records {
		if r.UserID == userID && r.DutyDate.Format("2006-01-02") == key {
			return m.withChildren(r), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByUserAndRange(_ context.Context, userID string, from, to time.Time) ([]model.Attendance, error) {
	fromKey, toKey := from.Format("2006-01-02"), to.Format("2006-01-02")
	var result []model.Attendance
	for _, r := range m.records {
		key := r.DutyDate.Format("2006-01-02")
		if r.UserID == userID && key >= fromKey && key <= toKey {
			result = append(result, *m.withChildren(r))
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByUsersAndRange(_ context.Context, userIDs []string, from, to time.Time) ([]model.Attendance, error) {
	fromKey, toKey := from.Format("2006-01-02"), to.Format("2006-01-02")
	idSet := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		idSet[id] = true
	}
	var result []model.Attendance
	for _, r := range m.records {
		key := r.DutyDate.Format("2006-01-02")
		if idSet[r.UserID] && key >= fromKey && key <= toKey {
			result = append(result, *m.withChildren(r))
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListStaleOpen(_ context.Context, openedBefore time.Time) ([]model.Attendance, error) {
	var result []model.Attendance
	for _, r := range m.records {
		if r.OutTime == nil && r.InTime != nil && r.InTime.Before(openedBefore) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, rec *model.Attendance) error {
	stored, ok := m.records[rec.AttendanceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != rec.Version {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version++
	m.records[rec.AttendanceID] = rec
	return nil
}

func (m *mockAttendanceRepo) CloseStale(_ context.Context, rec *model.Attendance, boundary time.Time) error {
	stored, ok := m.records[rec.AttendanceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.OutTime != nil {
		return pkgerrors.ErrPreconditionChanged
	}
	reason := model.AutoOffReason
	stored.OutTime = &boundary
	stored.AutoOff = true
	stored.AutoOffReason = &reason
	stored.Version++

	// 与 GORM 实现同口径：只联动边界之前开始的子记录
	endedBy := model.EndedByAutoOff
	for _, b := range m.breaks {
		if b.AttendanceID == rec.AttendanceID && b.EndAt == nil && b.StartAt.Before(boundary) {
			end := boundary
			b.EndAt = &end
			b.EndedBy = &endedBy
			b.DurationMinutes = int(end.Sub(b.StartAt).Minutes())
		}
	}

	if m.taskRepo != nil {
		for _, b := range m.taskRepo.breaks {
			if b.UserID == rec.UserID && b.EndedAt == nil && b.StartedAt.Before(boundary) {
				end := boundary
				b.EndedAt = &end
			}
		}
		for _, s := range m.taskRepo.sessions {
			if s.UserID != rec.UserID || s.EndedAt != nil || !s.StartedAt.Before(boundary) {
				continue
			}
			var sessionBreaks []model.TaskBreak
			for _, b := range m.taskRepo.breaks {
				if b.TaskID == s.TaskID && b.UserID == s.UserID && b.StartedAt.Before(boundary) {
					sessionBreaks = append(sessionBreaks, *b)
				}
			}
			net := engine.SessionNetSeconds(s.StartedAt, boundary, sessionBreaks)
			end := boundary
			s.EndedAt = &end
			s.EndedBy = &endedBy
			s.DurationSeconds = net
			if t, ok := m.taskRepo.tasks[s.TaskID]; ok {
				t.TotalSpentSeconds += net
			}
		}
	}
	if m.logRepo != nil {
		for _, l := range m.logRepo.logs {
			if l.UserID == rec.UserID && l.EndAt == nil && l.StartAt.Before(boundary) {
				end := boundary
				l.EndAt = &end
				l.DurationSeconds = int64(end.Sub(l.StartAt).Seconds())
			}
		}
	}

	rec.OutTime = &boundary
	rec.AutoOff = true
	rec.AutoOffReason = &reason
	return nil
}

func (m *mockAttendanceRepo) CreateBreak(_ context.Context, brk *model.AttendanceBreak) error {
	if brk.BreakID == "" {
		m.seq++
		brk.BreakID = fmt.Sprintf("brk-%d", m.seq)
	}
	m.breaks[brk.BreakID] = brk
	return nil
}

func (m *mockAttendanceRepo) GetOpenBreak(_ context.Context, attendanceID string) (*model.AttendanceBreak, error) {
	for _, b := range m.breaks {
		if b.AttendanceID == attendanceID && b.EndAt == nil {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) UpdateBreak(_ context.Context, brk *model.AttendanceBreak) error {
	m.breaks[brk.BreakID] = brk
	return nil
}

func (m *mockAttendanceRepo) CreateWFHInterval(_ context.Context, wfh *model.WFHInterval) error {
	if wfh.WFHIntervalID == "" {
		m.seq++
		wfh.WFHIntervalID = fmt.Sprintf("wfh-%d", m.seq)
	}
	m.wfh[wfh.WFHIntervalID] = wfh
	return nil
}

// withChildren 返回带休息与居家办公子记录的副本
func (m *mockAttendanceRepo) withChildren(rec *model.Attendance) *model.Attendance {
	out := *rec
	out.Breaks = nil
	out.WFHIntervals = nil
	for _, b := range m.breaks {
		if b.AttendanceID == rec.AttendanceID {
			out.Breaks = append(out.Breaks, *b)
		}
	}
	for _, w := range m.wfh {
		if w.AttendanceID == rec.AttendanceID {
			out.WFHIntervals = append(out.WFHIntervals, *w)
		}
	}
	return &out
}

// ── Mock TaskRepository ──

type mockTaskRepo struct {
	tasks    map[string]*model.Task
	history  []model.TaskStatusHistory
	sessions map[string]*model.TaskWorkSession
	breaks   map[string]*model.TaskBreak
	seq      int
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{
		tasks:    make(map[string]*model.Task),
		sessions: make(map[string]*model.TaskWorkSession),
		breaks:   make(map[string]*model.TaskBreak),
	}
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	if task.TaskID == "" {
		m.seq++
		task.TaskID = fmt.Sprintf("task-%d", m.seq)
	}
	if task.Version == 0 {
		task.Version = 1
	}
	m.tasks[task.TaskID] = task
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	if t, ok := m.tasks[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) ListByAssignee(_ context.Context, userID string, _, _ int) ([]model.Task, int64, error) {
	var result []model.Task
	for _, t := range m.tasks {
		if t.AssigneeID != nil && *t.AssigneeID == userID {
			result = append(result, *t)
		}
	}
	return result, int64(len(result)), nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	stored, ok := m.tasks[task.TaskID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != task.Version {
		return pkgerrors.ErrOptimisticLock
	}
	task.Version++
	m.tasks[task.TaskID] = task
	return nil
}

func (m *mockTaskRepo) UpdateTotalSpent(_ context.Context, taskID string, totalSeconds int64) error {
	if t, ok := m.tasks[taskID]; ok {
		t.TotalSpentSeconds = totalSeconds
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) CreateStatusHistory(_ context.Context, h *model.TaskStatusHistory) error {
	if h.HistoryID == "" {
		m.seq++
		h.HistoryID = fmt.Sprintf("hist-%d", m.seq)
	}
	m.history = append(m.history, *h)
	return nil
}

func (m *mockTaskRepo) ListStatusHistory(_ context.Context, taskID string) ([]model.TaskStatusHistory, error) {
	var result []model.TaskStatusHistory
	for _, h := range m.history {
		if h.TaskID == taskID {
			result = append(result, h)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) CreateSession(_ context.Context, s *model.TaskWorkSession) error {
	if s.SessionID == "" {
		m.seq++
		s.SessionID = fmt.Sprintf("sess-%d", m.seq)
	}
	m.sessions[s.SessionID] = s
	return nil
}

func (m *mockTaskRepo) GetOpenSession(_ context.Context, taskID, userID string) (*model.TaskWorkSession, error) {
	for _, s := range m.sessions {
		if s.TaskID == taskID && s.UserID == userID && s.EndedAt == nil {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) ListOpenSessionsByUser(_ context.Context, userID string) ([]model.TaskWorkSession, error) {
	var result []model.TaskWorkSession
	for _, s := range m.sessions {
		if s.UserID == userID && s.EndedAt == nil {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) ListSessionsByTask(_ context.Context, taskID string) ([]model.TaskWorkSession, error) {
	var result []model.TaskWorkSession
	for _, s := range m.sessions {
		if s.TaskID == taskID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) ListSessionsByUserAndRange(_ context.Context, userID string, from, to time.Time) ([]model.TaskWorkSession, error) {
	var result []model.TaskWorkSession
	for _, s := range m.sessions {
		if s.UserID != userID || !s.StartedAt.Before(to) {
			continue
		}
		if s.EndedAt != nil && !s.EndedAt.After(from) {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockTaskRepo) UpdateSession(_ context.Context, s *model.TaskWorkSession) error {
	m.sessions[s.SessionID] = s
	return nil
}

func (m *mockTaskRepo) CreateTaskBreak(_ context.Context, b *model.TaskBreak) error {
	if b.TaskBreakID == "" {
		m.seq++
		b.TaskBreakID = fmt.Sprintf("tbrk-%d", m.seq)
	}
	m.breaks[b.TaskBreakID] = b
	return nil
}

func (m *mockTaskRepo) GetOpenTaskBreak(_ context.Context, taskID, userID string) (*model.TaskBreak, error) {
	for _, b := range m.breaks {
		if b.TaskID == taskID && b.UserID == userID && b.EndedAt == nil {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTaskRepo) ListTaskBreaks(_ context.Context, taskID string) ([]model.TaskBreak, error) {
	var result []model.TaskBreak
	for _, b := range m.breaks {
		if b.TaskID == taskID {
			result = append(result, *b)
		}
	}
	return result, nil
}

func (m *mockTaskRepo) ListTaskBreaksByUserAndRange(_ context.Context, userID string, from, to time.Time) ([]model.TaskBreak, error) {
	var result []model.TaskBreak
	for _, b := range m.breaks {
		if b.UserID != userID || !b.StartedAt.Before(to) {
			continue
		}
		if b.EndedAt != nil && !b.EndedAt.After(from) {
			continue
		}
		result = append(result, *b)
	}
	return result, nil
}

func (m *mockTaskRepo) UpdateTaskBreak(_ context.Context, b *model.TaskBreak) error {
	m.breaks[b.TaskBreakID] = b
	return nil
}

// ── Mock ManualLogRepository ──

type mockManualLogRepo struct {
	logs map[string]*model.ManualActivityLog
	seq  int
}

func newMockManualLogRepo() *mockManualLogRepo {
	return &mockManualLogRepo{logs: make(map[string]*model.ManualActivityLog)}
}

func (m *mockManualLogRepo) Create(_ context.Context, log *model.ManualActivityLog) error {
	if log.LogID == "" {
		m.seq++
		log.LogID = fmt.Sprintf("log-%d", m.seq)
	}
	m.logs[log.LogID] = log
	return nil
}

func (m *mockManualLogRepo) GetByID(_ context.Context, id string) (*model.ManualActivityLog, error) {
	if l, ok := m.logs[id]; ok {
		return l, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockManualLogRepo) GetOpenByUser(_ context.Context, userID string) (*model.ManualActivityLog, error) {
	for _, l := range m.logs {
		if l.UserID == userID && l.EndAt == nil {
			return l, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockManualLogRepo) ListByUserAndRange(_ context.Context, userID string, from, to time.Time) ([]model.ManualActivityLog, error) {
	var result []model.ManualActivityLog
	for _, l := range m.logs {
		if l.UserID != userID || !l.StartAt.Before(to) {
			continue
		}
		if l.EndAt != nil && !l.EndAt.After(from) {
			continue
		}
		result = append(result, *l)
	}
	return result, nil
}

func (m *mockManualLogRepo) Update(_ context.Context, log *model.ManualActivityLog) error {
	m.logs[log.LogID] = log
	return nil
}

// [自证通过] internal/service/mock_repos_test.go
