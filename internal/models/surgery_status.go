package models

import (
	"strconv"
	"time"
)

// SurgeryStatus 单台手术的实时状态快照
// 字段命名与后端 /family/patient/{id} 返回的 surgery_status 对齐
type SurgeryStatus struct {
	CurrentStatus     string         `json:"current_status"`
	CurrentStatusTime string         `json:"current_status_time,omitempty"`
	Progress          int            `json:"progress"`     // 0-100
	ElapsedTime       string         `json:"elapsed_time"` // "HH:MM"
	HeartRate         int            `json:"heart_rate"`   // bpm
	BloodPressure     string         `json:"blood_pressure"`
	Temperature       float64        `json:"temperature"` // °C
	OxygenSaturation  int            `json:"oxygen_saturation"`
	Notifications     []Notification `json:"notifications"`
}

// Notification 通知，最新的在最后
type Notification struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"` // ISO-8601
}

// Time 解析通知时间；后端可能返回不带时区的时间
func (n Notification) Time() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, n.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DefaultSurgeryStatus 管理端卡片的初始状态
func DefaultSurgeryStatus() SurgeryStatus {
	return SurgeryStatus{
		CurrentStatus:    PhasePreparation.Code(),
		Progress:         0,
		ElapsedTime:      "00:00",
		HeartRate:        72,
		BloodPressure:    "120/80",
		Temperature:      36.5,
		OxygenSaturation: 98,
		Notifications:    []Notification{},
	}
}

// Clone 深拷贝（通知切片独立）
func (s SurgeryStatus) Clone() SurgeryStatus {
	out := s
	out.Notifications = append([]Notification(nil), s.Notifications...)
	return out
}

// Phase 当前阶段
func (s SurgeryStatus) Phase() SurgeryPhase {
	return ParsePhase(s.CurrentStatus)
}

// 缺失字段的占位显示（后端返回不完整时不报错）

func (s SurgeryStatus) HeartRateText() string {
	if s.HeartRate == 0 {
		return "---"
	}
	return strconv.Itoa(s.HeartRate)
}

func (s SurgeryStatus) BloodPressureText() string {
	if s.BloodPressure == "" {
		return "---/---"
	}
	return s.BloodPressure
}

func (s SurgeryStatus) TemperatureText() string {
	if s.Temperature == 0 {
		return "---"
	}
	return strconv.FormatFloat(s.Temperature, 'f', -1, 64)
}

func (s SurgeryStatus) OxygenSaturationText() string {
	if s.OxygenSaturation == 0 {
		return "---"
	}
	return strconv.Itoa(s.OxygenSaturation)
}

func (s SurgeryStatus) ElapsedTimeText() string {
	if s.ElapsedTime == "" {
		return "00:00"
	}
	return s.ElapsedTime
}

// ProgressPercent 进度，越界时截断到 [0,100]
func (s SurgeryStatus) ProgressPercent() int {
	switch {
	case s.Progress < 0:
		return 0
	case s.Progress > 100:
		return 100
	default:
		return s.Progress
	}
}
