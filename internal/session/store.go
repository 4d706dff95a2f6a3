package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"siacom-console/internal/models"
	"siacom-console/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrEmptyToken 拒绝写入空凭证
var ErrEmptyToken = errors.New("session: empty token")

// Store 会话存储：两个凭证槽位的唯一数据源
//   - 写入后同步通知本上下文的订阅者（tokenChanged 信号）
//   - 同时广播给共享同一存储的其它上下文
//   - 其它上下文的写入通过广播到达后通知本上下文的订阅者
type Store struct {
	kv     store.KV
	bc     Broadcaster
	origin string
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	subs   []subscriber
	nextID int

	sub  Subscription
	wg   sync.WaitGroup
	stop sync.Once
}

type subscriber struct {
	id int
	fn func(ChangeEvent)
}

// NewStore 创建会话存储；每个 Store 实例代表一个上下文（有独立的 origin）
func NewStore(kv store.KV, bc Broadcaster, logger *zap.Logger) *Store {
	if bc == nil {
		bc = NopBroadcaster{}
	}
	return &Store{
		kv:     kv,
		bc:     bc,
		origin: uuid.NewString(),
		logger: logger,
		now:    time.Now,
	}
}

// Origin 本上下文在广播通道上的标识
func (s *Store) Origin() string { return s.origin }

// Get 读取两个槽位并推导当前会话
func (s *Store) Get(ctx context.Context) (models.Session, error) {
	adminToken, err := s.read(ctx, models.KeyAdminToken)
	if err != nil {
		return models.Session{Role: models.RoleAnonymous}, err
	}
	familyToken, err := s.read(ctx, models.KeyFamilyToken)
	if err != nil {
		return models.Session{Role: models.RoleAnonymous}, err
	}
	patientID, err := s.read(ctx, models.KeyPatientID)
	if err != nil {
		return models.Session{Role: models.RoleAnonymous}, err
	}
	return models.ResolveSession(adminToken, familyToken, patientID), nil
}

// AdminToken 管理端 HTTP 客户端使用的凭证
func (s *Store) AdminToken(ctx context.Context) (string, error) {
	return s.read(ctx, models.KeyAdminToken)
}

// FamilyToken 家属端 HTTP 客户端使用的凭证
func (s *Store) FamilyToken(ctx context.Context) (string, error) {
	return s.read(ctx, models.KeyFamilyToken)
}

// SetAdminSession 写入管理端凭证
func (s *Store) SetAdminSession(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	return s.mutate(ctx, []kvPair{
		{models.KeyAdminToken, token},
		{models.KeyUserType, string(models.RoleAdmin)},
	}, nil)
}

// SetFamilySession 写入家属凭证及其绑定的患者
func (s *Store) SetFamilySession(ctx context.Context, token, patientID string) error {
	if token == "" {
		return ErrEmptyToken
	}
	return s.mutate(ctx, []kvPair{
		{models.KeyFamilyToken, token},
		{models.KeyPatientID, patientID},
		{models.KeyUserType, string(models.RoleFamily)},
	}, nil)
}

// Clear 清除指定角色的槽位；RoleAnonymous 清除全部
func (s *Store) Clear(ctx context.Context, role models.Role) error {
	var keys []string
	switch role {
	case models.RoleAdmin:
		keys = []string{models.KeyAdminToken, models.KeyUserType}
	case models.RoleFamily:
		keys = []string{models.KeyFamilyToken, models.KeyPatientID}
	case models.RoleAnonymous:
		keys = []string{models.KeyAdminToken, models.KeyFamilyToken, models.KeyPatientID, models.KeyUserType}
	default:
		return fmt.Errorf("session: unknown role %q", role)
	}
	return s.mutate(ctx, nil, keys)
}

// Subscribe 注册变更回调，按注册顺序调用
// 返回的函数用于取消订阅，可重复调用；调用方必须在销毁时释放
func (s *Store) Subscribe(fn func(ChangeEvent)) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Start 订阅跨上下文广播；返回时订阅已生效
func (s *Store) Start(ctx context.Context) error {
	sub, err := s.bc.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to session broadcast: %w", err)
	}
	s.sub = sub

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ev := range sub.Events() {
			if ev.Origin == s.origin {
				continue
			}
			s.logger.Debug("Credentials changed in another context",
				zap.String("origin", ev.Origin),
				zap.Strings("keys", ev.Keys),
			)
			s.notify(ev)
		}
	}()

	s.logger.Info("Session store started", zap.String("origin", s.origin))
	return nil
}

// Stop 取消广播订阅
func (s *Store) Stop() {
	s.stop.Do(func() {
		if s.sub != nil {
			if err := s.sub.Close(); err != nil {
				s.logger.Warn("Error closing session subscription", zap.Error(err))
			}
		}
		s.wg.Wait()
	})
}

type kvPair struct {
	key   string
	value string
}

// mutate 依次执行写入/删除；只要有键发生变化就发出通知，返回第一个错误
func (s *Store) mutate(ctx context.Context, sets []kvPair, dels []string) error {
	var changed []string
	var firstErr error

	for _, p := range sets {
		if err := s.kv.Set(ctx, p.key, p.value, 0); err != nil {
			firstErr = fmt.Errorf("failed to write %s: %w", p.key, err)
			break
		}
		changed = append(changed, p.key)
	}
	if firstErr == nil && len(dels) > 0 {
		if err := s.kv.Del(ctx, dels...); err != nil {
			firstErr = fmt.Errorf("failed to clear %v: %w", dels, err)
		} else {
			changed = append(changed, dels...)
		}
	}

	if len(changed) > 0 {
		s.changed(ctx, changed)
	}
	return firstErr
}

// changed 本上下文同步通知 + 跨上下文广播
func (s *Store) changed(ctx context.Context, keys []string) {
	ev := ChangeEvent{Origin: s.origin, Keys: keys, At: s.now().UnixMilli()}

	local := ev
	local.Local = true
	s.notify(local)

	// 广播失败不回滚写入：其它上下文要到下一次广播才会看到变化
	if err := s.bc.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to broadcast credential change",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
}

func (s *Store) notify(ev ChangeEvent) {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}

func (s *Store) read(ctx context.Context, key string) (string, error) {
	v, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}
