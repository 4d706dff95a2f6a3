package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"siacom-console/internal/models"

	"go.uber.org/zap"
)

var (
	ErrClosed         = errors.New("feed: controller closed")
	ErrEmptyPatientID = errors.New("feed: empty patient id")
)

// Stats 控制器运行统计
type Stats struct {
	Source         string    `json:"source"`
	PatientID      string    `json:"patient_id,omitempty"`
	Active         bool      `json:"active"`
	Generation     uint64    `json:"generation"`
	Ticks          uint64    `json:"ticks"`
	Applied        uint64    `json:"applied"`
	Discarded      uint64    `json:"discarded"`
	Errors         uint64    `json:"errors"`
	LastAppliedSeq uint64    `json:"last_applied_seq"`
	LastUpdate     time.Time `json:"last_update,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
}

// Controller 单个患者的状态轮询控制器
//   - 每次激活分配新的 generation，每个 tick 分配递增的 seq
//   - 结果仅在 generation 仍为当前值且 seq 大于已应用的 seq 时生效，
//     晚到的旧响应（包括停用前发出的请求）直接丢弃
//   - 拉取失败保留上一份快照，等待下一个 tick
type Controller struct {
	source Source
	logger *zap.Logger
	now    func() time.Time

	// lifecycle 串行化 Activate / Deactivate / Close
	lifecycle sync.Mutex

	mu          sync.Mutex
	closed      bool
	active      bool
	generation  uint64
	patientID   string
	activatedAt time.Time
	seq         uint64
	snapshot    *models.Snapshot
	stats       Stats
	cancel      context.CancelFunc
	loopDone    chan struct{}
	subs        []snapshotSub
	nextSubID   int

	// notifyMu 串行化回调，保证订阅者按应用顺序收到快照
	// 加锁顺序 notifyMu -> mu；回调执行期间只持有 notifyMu
	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

type snapshotSub struct {
	id int
	fn func(models.Snapshot)
}

func NewController(source Source, logger *zap.Logger) *Controller {
	return &Controller{
		source: source,
		logger: logger.With(zap.String("source", source.Name())),
		now:    time.Now,
		stats:  Stats{Source: source.Name()},
	}
}

// Activate 开始为 patientID 轮询；已在为同一患者轮询时不做任何事
func (c *Controller) Activate(patientID string) error {
	if patientID == "" {
		return ErrEmptyPatientID
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.active && c.patientID == patientID {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.deactivate()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	seed := c.source.Seed(patientID)
	now := c.now()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.active = true
	c.patientID = patientID
	c.activatedAt = now
	c.cancel = cancel
	c.loopDone = done
	c.stats.Generation = gen
	c.stats.LastError = ""
	if seed != nil {
		seed.PatientID = patientID
		seed.FetchedAt = now
		c.snapshot = seed
	}
	c.mu.Unlock()

	c.logger.Info("Status feed activated",
		zap.String("patient_id", patientID),
		zap.Uint64("generation", gen),
		zap.Duration("interval", c.source.Interval()),
	)

	if seed != nil {
		c.publish(gen, *seed)
	}

	go c.run(ctx, gen, patientID, seed == nil, done)
	return nil
}

// Deactivate 停止定时器并取消进行中的请求；之后到达的结果被丢弃
// 返回前等待正在进行的回调结束，返回后订阅者不会再收到本次激活的快照
func (c *Controller) Deactivate() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.deactivate()
}

func (c *Controller) deactivate() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	patientID := c.patientID
	cancel, done := c.cancel, c.loopDone
	c.active = false
	c.generation++
	c.stats.Generation = c.generation
	c.patientID = ""
	c.snapshot = nil
	c.cancel = nil
	c.loopDone = nil
	c.mu.Unlock()

	cancel()
	<-done

	// generation 已变更，等待进行中的投递结束即可
	c.notifyMu.Lock()
	c.notifyMu.Unlock()

	c.logger.Info("Status feed deactivated", zap.String("patient_id", patientID))
}

// Close 停用并等待所有进行中的 tick 结束；之后不可再激活
func (c *Controller) Close() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.deactivate()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.inflight.Wait()
}

// Snapshot 当前已应用的快照
func (c *Controller) Snapshot() (models.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return models.Snapshot{}, false
	}
	snap := *c.snapshot
	snap.Status = snap.Status.Clone()
	return snap, true
}

// Subscribe 注册快照回调，返回取消函数（可重复调用）
// 回调中可以调用 Snapshot / Stats / IsStale，不得调用 Activate / Deactivate / Close
func (c *Controller) Subscribe(fn func(models.Snapshot)) func() {
	c.mu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.subs = append(c.subs, snapshotSub{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stats
	st.Active = c.active
	st.PatientID = c.patientID
	return st
}

// IsStale 超过两个周期没有新快照
func (c *Controller) IsStale(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return false
	}
	ref := c.activatedAt
	if c.stats.LastAppliedSeq > 0 {
		ref = c.stats.LastUpdate
	}
	return now.Sub(ref) > 2*c.source.Interval()
}

func (c *Controller) run(ctx context.Context, gen uint64, patientID string, immediate bool, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.source.Interval())
	defer ticker.Stop()

	if immediate {
		c.spawnTick(ctx, gen, patientID)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.spawnTick(ctx, gen, patientID)
		}
	}
}

// spawnTick 每个 tick 独立执行，慢请求不会推迟后续 tick
func (c *Controller) spawnTick(ctx context.Context, gen uint64, patientID string) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.tick(ctx, gen, patientID)
	}()
}

func (c *Controller) tick(ctx context.Context, gen uint64, patientID string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	c.stats.Ticks++
	var prev *models.Snapshot
	if c.snapshot != nil {
		p := *c.snapshot
		p.Status = p.Status.Clone()
		prev = &p
	}
	c.mu.Unlock()

	snap, err := c.source.Next(ctx, patientID, prev)

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if gen != c.generation || seq <= c.stats.LastAppliedSeq {
		c.stats.Discarded++
		c.mu.Unlock()
		c.logger.Debug("Discarding stale feed result",
			zap.String("patient_id", patientID),
			zap.Uint64("generation", gen),
			zap.Uint64("seq", seq),
		)
		return
	}
	if err != nil {
		c.stats.Errors++
		c.stats.LastError = err.Error()
		c.mu.Unlock()
		c.logger.Warn("Failed to refresh surgery status",
			zap.String("patient_id", patientID),
			zap.Uint64("seq", seq),
			zap.Error(err),
		)
		return
	}

	snap.PatientID = patientID
	snap.Seq = seq
	snap.FetchedAt = c.now()
	c.snapshot = snap
	c.stats.Applied++
	c.stats.LastAppliedSeq = seq
	c.stats.LastUpdate = snap.FetchedAt
	c.stats.LastError = ""
	applied := *snap
	applied.Status = applied.Status.Clone()
	subs := append([]snapshotSub(nil), c.subs...)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(applied)
	}
}

func (c *Controller) publish(gen uint64, snap models.Snapshot) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	subs := append([]snapshotSub(nil), c.subs...)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}
