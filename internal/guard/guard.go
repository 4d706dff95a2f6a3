package guard

import (
	"context"
	"fmt"
	"sync"

	"siacom-console/internal/models"
	"siacom-console/internal/session"

	"go.uber.org/zap"
)

// SessionSource 路由守卫依赖的会话能力（*session.Store 实现了该接口）
type SessionSource interface {
	Get(ctx context.Context) (models.Session, error)
	Subscribe(fn func(session.ChangeEvent)) func()
}

// State 守卫当前状态
type State struct {
	Session models.Session
	Views   ViewSet
}

func (s State) Role() models.Role { return s.Session.Role }

// TransitionFunc 会话变化（角色、凭证或绑定患者）时调用
// next.Views.Entry 为角色切换后应导航到的视图
type TransitionFunc func(prev, next State)

// Guard 路由守卫
// 状态只在会话通知或显式 Recompute 时变化，没有超时迁移
type Guard struct {
	source SessionSource
	logger *zap.Logger

	// recomputeMu 串行化重算，保证观察者按迁移发生的顺序收到通知
	recomputeMu sync.Mutex

	mu          sync.RWMutex
	state       State
	observers   []TransitionFunc
	ctx         context.Context
	unsubscribe func()
	stopped     bool
}

func NewGuard(source SessionSource, logger *zap.Logger) *Guard {
	return &Guard{
		source: source,
		logger: logger,
		state:  State{Session: models.Session{Role: models.RoleAnonymous}, Views: PublicViews},
	}
}

// OnTransition 注册迁移观察者；需在 Start 之前注册才能收到初始迁移
func (g *Guard) OnTransition(fn TransitionFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observers = append(g.observers, fn)
}

// Start 订阅会话变更，然后同步计算初始状态（恢复已持久化的会话）
// 先订阅再计算，两者之间的写入不会丢失
// Stop 之后（包括 Start 进行中被 Stop）不再持有订阅
func (g *Guard) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return nil
	}
	g.ctx = ctx
	g.mu.Unlock()

	unsubscribe := g.source.Subscribe(func(ev session.ChangeEvent) {
		if _, err := g.Recompute(g.context()); err != nil {
			g.logger.Error("Failed to recompute route state",
				zap.Strings("keys", ev.Keys),
				zap.Bool("local", ev.Local),
				zap.Error(err),
			)
		}
	})

	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		unsubscribe()
		return nil
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()

	if _, err := g.Recompute(ctx); err != nil {
		g.Stop()
		return fmt.Errorf("failed to compute initial route state: %w", err)
	}
	return nil
}

// Stop 释放会话订阅，可重复调用
func (g *Guard) Stop() {
	g.mu.Lock()
	g.stopped = true
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (g *Guard) context() context.Context {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ctx
}

// Recompute 从会话存储重新推导状态；读取失败时保持原状态
// 无中间变更时重复调用结果相同，也不会触发迁移
func (g *Guard) Recompute(ctx context.Context) (State, error) {
	g.recomputeMu.Lock()
	defer g.recomputeMu.Unlock()

	sess, err := g.source.Get(ctx)
	if err != nil {
		return g.State(), err
	}

	next := State{Session: sess, Views: ViewsFor(sess.Role)}

	g.mu.Lock()
	prev := g.state
	g.state = next
	observers := append([]TransitionFunc(nil), g.observers...)
	g.mu.Unlock()

	if prev.Session == next.Session {
		return next, nil
	}

	if prev.Role() != next.Role() {
		g.logger.Info("Route view set changed",
			zap.String("from", string(prev.Role())),
			zap.String("to", string(next.Role())),
			zap.String("entry", next.Views.Entry),
		)
	}
	for _, fn := range observers {
		fn(prev, next)
	}
	return next, nil
}

// State 当前状态
func (g *Guard) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Resolve 按当前角色判定导航
func (g *Guard) Resolve(path string) Decision {
	return ResolvePath(g.State().Role(), path)
}
