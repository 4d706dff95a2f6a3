package service

import (
	"context"
	"fmt"
	"time"

	"siacom-console/internal/api"
	"siacom-console/internal/config"
	"siacom-console/internal/feed"
	"siacom-console/internal/guard"
	"siacom-console/internal/models"
	"siacom-console/internal/session"

	"go.uber.org/zap"
)

// 管理端卡片展示的通知条数
const cardNotificationCount = 2

// ConsoleService 控制台服务
// 会话变化 → 路由守卫重算视图集合 → 挂载/卸载对应的状态轮询
type ConsoleService struct {
	config   *config.Config
	logger   *zap.Logger
	backends *Backends

	Sessions   *session.Store
	Guard      *guard.Guard
	Clients    *api.Clients
	FamilyAPI  *api.FamilyAPI
	AdminAPI   *api.AdminAPI
	FamilyFeed *feed.Controller // 家属端：远端轮询
	AdminCard  *feed.Controller // 管理端仪表盘卡片：模拟数据

	unsubscribes []func()
}

// NewConsoleService 创建控制台服务，backends 的所有权转移给服务
func NewConsoleService(cfg *config.Config, backends *Backends, logger *zap.Logger) *ConsoleService {
	sessions := session.NewStore(backends.KV, backends.Broadcaster, logger)
	clients := api.NewClients(cfg.Backend.BaseURL, cfg.Backend.Timeout, sessions.AdminToken, sessions.FamilyToken, logger)
	familyAPI := api.NewFamilyAPI(clients, logger)

	s := &ConsoleService{
		config:     cfg,
		logger:     logger,
		backends:   backends,
		Sessions:   sessions,
		Guard:      guard.NewGuard(sessions, logger),
		Clients:    clients,
		FamilyAPI:  familyAPI,
		AdminAPI:   api.NewAdminAPI(clients, logger),
		FamilyFeed: feed.NewController(feed.NewRemoteSource(familyAPI, cfg.Feed.RemoteInterval), logger),
		AdminCard: feed.NewController(
			feed.NewSimulatedSource(cfg.Feed.SimulatedInterval, cfg.Feed.NotificationCapacity),
			logger,
		),
	}
	s.Guard.OnTransition(s.onTransition)
	return s
}

// Start 启动服务，阻塞直到 ctx 结束
func (s *ConsoleService) Start(ctx context.Context) error {
	s.logger.Info("Starting console service",
		zap.String("backend", s.config.Backend.BaseURL),
		zap.Duration("remote_interval", s.config.Feed.RemoteInterval),
		zap.Duration("simulated_interval", s.config.Feed.SimulatedInterval),
	)

	s.unsubscribes = append(s.unsubscribes,
		s.FamilyFeed.Subscribe(s.logSnapshot("family")),
		s.AdminCard.Subscribe(s.logSnapshot("admin_card")),
	)

	if err := s.Sessions.Start(ctx); err != nil {
		return err
	}
	// 初始状态来自已持久化的会话（相当于页面刷新后恢复登录）
	if err := s.Guard.Start(ctx); err != nil {
		return err
	}

	s.watchStaleness(ctx)
	return nil
}

// watchStaleness 定期检查轮询是否长时间没有新数据
func (s *ConsoleService) watchStaleness(ctx context.Context) {
	ticker := time.NewTicker(s.config.Feed.RemoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for name, c := range map[string]*feed.Controller{"family": s.FamilyFeed, "admin_card": s.AdminCard} {
				if c.IsStale(now) {
					st := c.Stats()
					s.logger.Warn("Surgery status is stale",
						zap.String("feed", name),
						zap.String("patient_id", st.PatientID),
						zap.Time("last_update", st.LastUpdate),
						zap.String("last_error", st.LastError),
					)
				}
			}
		}
	}
}

// Stop 停止服务并释放连接
func (s *ConsoleService) Stop(ctx context.Context) error {
	s.Guard.Stop()
	s.Sessions.Stop()
	s.FamilyFeed.Close()
	s.AdminCard.Close()
	for _, unsubscribe := range s.unsubscribes {
		unsubscribe()
	}
	s.unsubscribes = nil

	if err := s.backends.Close(); err != nil {
		return fmt.Errorf("failed to close backends: %w", err)
	}
	return nil
}

// onTransition 按新角色挂载对应视图的数据源
func (s *ConsoleService) onTransition(prev, next guard.State) {
	if prev.Role() != next.Role() {
		s.logger.Info("Navigating",
			zap.String("role", string(next.Role())),
			zap.String("view", next.Views.Name),
			zap.String("path", next.Views.Entry),
		)
	}

	switch next.Role() {
	case models.RoleFamily:
		s.AdminCard.Deactivate()
		if err := s.FamilyFeed.Activate(next.Session.PatientID); err != nil {
			s.logger.Warn("Cannot start family feed",
				zap.String("patient_id", next.Session.PatientID),
				zap.Error(err),
			)
			s.FamilyFeed.Deactivate()
		}
	case models.RoleAdmin:
		s.FamilyFeed.Deactivate()
		if id := s.config.Feed.AdminCardPatientID; id != "" {
			if err := s.AdminCard.Activate(id); err != nil {
				s.logger.Warn("Cannot start admin card feed", zap.String("patient_id", id), zap.Error(err))
			}
		}
	default:
		s.FamilyFeed.Deactivate()
		s.AdminCard.Deactivate()
	}
}

func (s *ConsoleService) logSnapshot(feedName string) func(models.Snapshot) {
	return func(snap models.Snapshot) {
		st := snap.Status
		latest := feed.Latest(st.Notifications, cardNotificationCount)
		messages := make([]string, 0, len(latest))
		for _, n := range latest {
			messages = append(messages, n.Message)
		}

		s.logger.Info("Surgery status updated",
			zap.String("feed", feedName),
			zap.String("patient_id", snap.PatientID),
			zap.String("patient", snap.Patient.DisplayName()),
			zap.Uint64("seq", snap.Seq),
			zap.String("status", st.Phase().Label()),
			zap.String("tone", st.Phase().Tone()),
			zap.Int("progress", st.ProgressPercent()),
			zap.String("elapsed", st.ElapsedTimeText()),
			zap.String("heart_rate", st.HeartRateText()),
			zap.String("blood_pressure", st.BloodPressureText()),
			zap.String("temperature", st.TemperatureText()),
			zap.String("oxygen_saturation", st.OxygenSaturationText()),
			zap.Strings("latest_notifications", messages),
		)
	}
}
