package feed

import (
	"fmt"
	"testing"

	"siacom-console/internal/models"

	"github.com/stretchr/testify/assert"
)

func note(i int) models.Notification {
	return models.Notification{Message: fmt.Sprintf("m%d", i)}
}

func messages(ns []models.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Message
	}
	return out
}

func TestNotificationRing_Bound(t *testing.T) {
	r := NewNotificationRing(5)
	for i := 1; i <= 12; i++ {
		r.Append(note(i))
		assert.LessOrEqual(t, r.Len(), 5)
	}

	assert.Equal(t, 5, r.Len())
	assert.Equal(t, []string{"m8", "m9", "m10", "m11", "m12"}, messages(r.Items()))
}

func TestNotificationRing_BelowCapacity(t *testing.T) {
	r := NewNotificationRing(5)
	r.Append(note(1))
	r.Append(note(2))

	assert.Equal(t, []string{"m1", "m2"}, messages(r.Items()))
}

func TestNotificationRing_Unbounded(t *testing.T) {
	r := NewNotificationRing(0)
	for i := 1; i <= 8; i++ {
		r.Append(note(i))
	}
	assert.Equal(t, 8, r.Len())
	assert.Equal(t, "m1", r.Items()[0].Message)
}

func TestNotificationRing_ItemsIsCopy(t *testing.T) {
	r := NewNotificationRing(3)
	r.Append(note(1))
	items := r.Items()
	items[0].Message = "changed"

	assert.Equal(t, "m1", r.Items()[0].Message)
}

func TestRingOf_TrimsToCapacity(t *testing.T) {
	var in []models.Notification
	for i := 1; i <= 7; i++ {
		in = append(in, note(i))
	}
	assert.Equal(t, []string{"m5", "m6", "m7"}, messages(RingOf(3, in).Items()))
}

func TestLatest(t *testing.T) {
	ns := []models.Notification{note(1), note(2), note(3)}

	assert.Equal(t, []string{"m2", "m3"}, messages(Latest(ns, 2)))
	assert.Equal(t, []string{"m1", "m2", "m3"}, messages(Latest(ns, 10)))
	assert.Empty(t, Latest(ns, 0))
	assert.Empty(t, Latest(nil, 2))
}
