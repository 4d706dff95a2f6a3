package feed

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"siacom-console/internal/models"
)

const (
	minHeartRate             = 60
	maxHeartRate             = 120
	heartRateSpread          = 10
	maxProgressStep          = 2
	notificationProbability  = 0.1
	DefaultNotificationLimit = 5
)

// SimulatedMessages 模拟通知的固定文案
var SimulatedMessages = []string{
	"Cirugía progresando normalmente",
	"Vitales estables",
	"Procedimiento en curso",
	"Todo marcha bien",
}

// SimulatedSource 管理端卡片使用的模拟数据源
// 每个 tick：心率随机游走并截断到 [60,120]；进度单调不减且不超过 100；
// 以 10% 概率追加一条通知，只保留最近 capacity 条
type SimulatedSource struct {
	interval time.Duration
	capacity int

	mu   sync.Mutex
	rand func() float64
	now  func() time.Time
}

type SimulatedOption func(*SimulatedSource)

// WithRand 注入随机源，取值应在 [0,1)
func WithRand(fn func() float64) SimulatedOption {
	return func(s *SimulatedSource) { s.rand = fn }
}

func WithClock(fn func() time.Time) SimulatedOption {
	return func(s *SimulatedSource) { s.now = fn }
}

// capacity <= 0 时使用 DefaultNotificationLimit
func NewSimulatedSource(interval time.Duration, capacity int, opts ...SimulatedOption) *SimulatedSource {
	if capacity <= 0 {
		capacity = DefaultNotificationLimit
	}
	s := &SimulatedSource{
		interval: interval,
		capacity: capacity,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())).Float64,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SimulatedSource) Name() string { return "simulated" }

func (s *SimulatedSource) Interval() time.Duration { return s.interval }

func (s *SimulatedSource) Seed(patientID string) *models.Snapshot {
	return &models.Snapshot{
		PatientID: patientID,
		Source:    s.Name(),
		Status:    models.DefaultSurgeryStatus(),
	}
}

func (s *SimulatedSource) Next(ctx context.Context, patientID string, prev *models.Snapshot) (*models.Snapshot, error) {
	if prev == nil {
		prev = s.Seed(patientID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := prev.Status.Clone()

	hr := float64(status.HeartRate) + (s.draw()-0.5)*heartRateSpread
	status.HeartRate = int(math.Round(clamp(hr, minHeartRate, maxHeartRate)))

	progress := math.Min(100, float64(status.Progress)+s.draw()*maxProgressStep)
	if next := int(math.Round(progress)); next > status.Progress {
		status.Progress = next
	}
	if status.Progress > 100 {
		status.Progress = 100
	}

	if s.draw() < notificationProbability {
		msg := SimulatedMessages[int(s.draw()*float64(len(SimulatedMessages)))%len(SimulatedMessages)]
		ring := RingOf(s.capacity, status.Notifications)
		ring.Append(models.Notification{
			Message:   msg,
			Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
		status.Notifications = ring.Items()
	}

	return &models.Snapshot{
		PatientID: patientID,
		Source:    s.Name(),
		Patient:   prev.Patient,
		Status:    status,
	}, nil
}

// draw 取一个随机数并截断到 [0,1)，注入的随机源越界时也不会破坏取值范围
func (s *SimulatedSource) draw() float64 {
	return clamp(s.rand(), 0, math.Nextafter(1, 0))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
