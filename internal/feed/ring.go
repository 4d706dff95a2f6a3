package feed

import "siacom-console/internal/models"

// NotificationRing 定长通知缓冲：满时丢弃最旧的一条，保持追加顺序
// capacity <= 0 时不设上限（家属端直接展示后端返回的全部通知）
type NotificationRing struct {
	buf   []models.Notification
	start int
	size  int
	limit int
}

func NewNotificationRing(capacity int) *NotificationRing {
	r := &NotificationRing{limit: capacity}
	if capacity > 0 {
		r.buf = make([]models.Notification, capacity)
	}
	return r
}

// RingOf 以已有通知初始化，超出容量时只保留最新的部分
func RingOf(capacity int, items []models.Notification) *NotificationRing {
	r := NewNotificationRing(capacity)
	for _, n := range items {
		r.Append(n)
	}
	return r
}

func (r *NotificationRing) Append(n models.Notification) {
	if r.limit <= 0 {
		r.buf = append(r.buf, n)
		r.size++
		return
	}
	if r.size < r.limit {
		r.buf[(r.start+r.size)%r.limit] = n
		r.size++
		return
	}
	r.buf[r.start] = n
	r.start = (r.start + 1) % r.limit
}

// Items 按追加顺序返回副本，最旧的在前
func (r *NotificationRing) Items() []models.Notification {
	out := make([]models.Notification, r.size)
	if r.limit <= 0 {
		copy(out, r.buf)
		return out
	}
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%r.limit]
	}
	return out
}

func (r *NotificationRing) Len() int { return r.size }

// Latest 最近的 n 条，顺序不变（管理端卡片展示 2 条）
func Latest(ns []models.Notification, n int) []models.Notification {
	if n <= 0 {
		return []models.Notification{}
	}
	if len(ns) > n {
		ns = ns[len(ns)-n:]
	}
	return append([]models.Notification{}, ns...)
}
