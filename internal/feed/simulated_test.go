package feed

import (
	"context"
	"math"
	"testing"
	"time"

	"siacom-console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequence 依次循环返回给定值
func sequence(vals ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

func TestSimulatedSource_Seed(t *testing.T) {
	s := NewSimulatedSource(5*time.Second, 5)
	seed := s.Seed("7")

	require.NotNil(t, seed)
	assert.Equal(t, "7", seed.PatientID)
	assert.Equal(t, "preparacion", seed.Status.CurrentStatus)
	assert.Equal(t, 72, seed.Status.HeartRate)
	assert.Equal(t, 0, seed.Status.Progress)
	assert.Equal(t, "120/80", seed.Status.BloodPressure)
	assert.Equal(t, 36.5, seed.Status.Temperature)
	assert.Equal(t, 98, seed.Status.OxygenSaturation)
	assert.Empty(t, seed.Status.Notifications)
}

func TestSimulatedSource_SingleTick(t *testing.T) {
	s := NewSimulatedSource(5*time.Second, 5, WithRand(sequence(0.5)))

	next, err := s.Next(context.Background(), "7", s.Seed("7"))
	require.NoError(t, err)
	assert.Equal(t, 72, next.Status.HeartRate)
	assert.Equal(t, 1, next.Status.Progress)
	assert.Empty(t, next.Status.Notifications)
}

func TestSimulatedSource_ExtremeDraws(t *testing.T) {
	draws := map[string]float64{
		"zero":      0,
		"near one":  0.9999999,
		"above one": 7,
		"negative":  -3,
		"nan":       math.NaN(),
	}

	for name, v := range draws {
		t.Run(name, func(t *testing.T) {
			s := NewSimulatedSource(time.Second, 5, WithRand(sequence(v)))
			snap := s.Seed("1")
			for i := 0; i < 200; i++ {
				next, err := s.Next(context.Background(), "1", snap)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, next.Status.HeartRate, 60)
				assert.LessOrEqual(t, next.Status.HeartRate, 120)
				assert.GreaterOrEqual(t, next.Status.Progress, snap.Status.Progress)
				assert.LessOrEqual(t, next.Status.Progress, 100)
				assert.LessOrEqual(t, len(next.Status.Notifications), 5)
				snap = next
			}
		})
	}
}

func TestSimulatedSource_HeartRateClamped(t *testing.T) {
	s := NewSimulatedSource(time.Second, 5, WithRand(sequence(1, 0, 0.5)))
	prev := s.Seed("1")
	prev.Status.HeartRate = 119

	next, err := s.Next(context.Background(), "1", prev)
	require.NoError(t, err)
	assert.Equal(t, 120, next.Status.HeartRate)

	prev.Status.HeartRate = 61
	s = NewSimulatedSource(time.Second, 5, WithRand(sequence(0, 0, 0.5)))
	next, err = s.Next(context.Background(), "1", prev)
	require.NoError(t, err)
	assert.Equal(t, 60, next.Status.HeartRate)
}

func TestSimulatedSource_ProgressMonotonic(t *testing.T) {
	s := NewSimulatedSource(time.Second, 5)
	snap := s.Seed("1")
	for i := 0; i < 1000; i++ {
		next, err := s.Next(context.Background(), "1", snap)
		require.NoError(t, err)
		require.GreaterOrEqual(t, next.Status.Progress, snap.Status.Progress)
		require.LessOrEqual(t, next.Status.Progress, 100)
		snap = next
	}
	assert.Equal(t, 100, snap.Status.Progress)
}

func TestSimulatedSource_AppendsNotification(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	s := NewSimulatedSource(time.Second, 5,
		WithRand(sequence(0.5, 0.5, 0.05, 0.3)),
		WithClock(func() time.Time { return at }),
	)

	next, err := s.Next(context.Background(), "1", s.Seed("1"))
	require.NoError(t, err)
	require.Len(t, next.Status.Notifications, 1)
	assert.Equal(t, "Vitales estables", next.Status.Notifications[0].Message)
	assert.Equal(t, "2025-03-01T12:30:00.000Z", next.Status.Notifications[0].Timestamp)
}

func TestSimulatedSource_NotificationsTrimmed(t *testing.T) {
	s := NewSimulatedSource(time.Second, 5, WithRand(sequence(0.5, 0.5, 0.0, 0.0)))
	prev := s.Seed("1")
	for i := 0; i < 5; i++ {
		prev.Status.Notifications = append(prev.Status.Notifications, models.Notification{Message: "old"})
	}

	next, err := s.Next(context.Background(), "1", prev)
	require.NoError(t, err)
	require.Len(t, next.Status.Notifications, 5)
	assert.Equal(t, SimulatedMessages[0], next.Status.Notifications[4].Message)
	assert.Len(t, prev.Status.Notifications, 5, "prev must not be modified")
}

func TestSimulatedSource_NonPositiveCapacityStaysBounded(t *testing.T) {
	s := NewSimulatedSource(time.Second, 0, WithRand(func() float64 { return 0 }))
	prev := s.Seed("1")
	for i := 0; i < 20; i++ {
		next, err := s.Next(context.Background(), "1", prev)
		require.NoError(t, err)
		prev = next
	}
	assert.Len(t, prev.Status.Notifications, DefaultNotificationLimit)
}
