package engine

import (
	"fmt"
	"time"
)

// Calendar 班次日历：负责时间戳与"班次日"之间的换算
//
// 班次日不按自然日对齐：从 startHour（如 11:00）开始，到次日
// endHour（如 03:00）结束。endHour <= startHour 即视为跨天。
// 引擎内所有墙上时钟/时区换算只发生在这里，下游一律使用绝对时刻。
type Calendar struct {
	startHour int
	endHour   int
	loc       *time.Location
}

// NewCalendar 创建班次日历；tz 为 IANA 时区名（如 Asia/Shanghai）
func NewCalendar(startHour, endHour int, tz string) (*Calendar, error) {
	if startHour < 0 || startHour > 23 {
		return nil, fmt.Errorf("班次起始小时非法: %d", startHour)
	}
	if endHour < 0 || endHour > 23 {
		return nil, fmt.Errorf("班次结束小时非法: %d", endHour)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("加载时区 %q 失败: %w", tz, err)
	}
	return &Calendar{startHour: startHour, endHour: endHour, loc: loc}, nil
}

// Location 返回配置时区
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// DutyDate 计算时刻 t 所属的班次日（返回该日零点，配置时区）
// 本地小时早于 startHour 时归入前一自然日：本地 10:59 属于昨天的班次日，
// 本地 11:00 属于今天的班次日。
func (c *Calendar) DutyDate(t time.Time) time.Time {
	local := t.In(c.loc)
	y, m, d := local.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, c.loc)
	if local.Hour() < c.startHour {
		date = date.AddDate(0, 0, -1)
	}
	return date
}

// ShiftWindow 构建班次日 date 对应的班次窗口
// 窗口为 [date@startHour, endDay@endHour)；endHour <= startHour 时结束于次日。
func (c *Calendar) ShiftWindow(date time.Time) Interval {
	local := date.In(c.loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, c.startHour, 0, 0, 0, c.loc)
	endDay := 0
	if c.endHour <= c.startHour {
		endDay = 1
	}
	end := time.Date(y, m, d+endDay, c.endHour, 0, 0, 0, c.loc)
	return Interval{Start: start, End: end}
}

// CutoffTime 计算包含时刻 t 的班次窗口的结束时刻
// 跨天构造的边缘情况下窗口结束不晚于 t 时，顺延一天取下一窗口的结束。
func (c *Calendar) CutoffTime(t time.Time) time.Time {
	window := c.ShiftWindow(c.DutyDate(t))
	if !window.End.After(t) {
		window = c.ShiftWindow(c.DutyDate(t).AddDate(0, 0, 1))
	}
	return window.End
}

// DayWindow 构建班次日 date 对应的自然日窗口 [date 00:00, 次日 00:00)
// 供时间线的自然日模式使用
func (c *Calendar) DayWindow(date time.Time) Interval {
	local := date.In(c.loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, c.loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
	return Interval{Start: start, End: end}
}

// [自证通过] internal/engine/shift.go
