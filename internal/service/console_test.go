package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"siacom-console/internal/config"
	"siacom-console/internal/models"
	"siacom-console/internal/session"
	"siacom-console/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Backend.BaseURL = baseURL
	cfg.Backend.Timeout = time.Second
	cfg.Store.Backend = config.StoreMemory
	cfg.Broadcast.Backend = config.BroadcastNone
	cfg.Feed.RemoteInterval = time.Hour
	cfg.Feed.SimulatedInterval = time.Hour
	cfg.Feed.NotificationCapacity = 5
	cfg.Feed.AdminCardPatientID = "1"
	return cfg
}

func familyBackend(t *testing.T, hits *int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("Authorization") != "Bearer xyz" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"patient": {"id": 42, "nombre": "Ana"}, "surgery_status": {"current_status": "en_progreso", "progress": 20}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func startService(t *testing.T, cfg *config.Config, kv store.KV) *ConsoleService {
	t.Helper()
	svc := NewConsoleService(cfg, &Backends{KV: kv, Broadcaster: session.NopBroadcaster{}}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-done
		require.NoError(t, svc.Stop(context.Background()))
	})
	return svc
}

func TestConsoleService_RestoresPersistedFamilySession(t *testing.T) {
	var hits int32
	srv := familyBackend(t, &hits)

	kv := store.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, models.KeyFamilyToken, "xyz", 0))
	require.NoError(t, kv.Set(ctx, models.KeyPatientID, "42", 0))

	svc := startService(t, testConfig(srv.URL), kv)

	require.Eventually(t, func() bool {
		snap, ok := svc.FamilyFeed.Snapshot()
		return ok && snap.Status.Progress == 20
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, "42", svc.FamilyFeed.Stats().PatientID)
	assert.False(t, svc.AdminCard.Stats().Active)
	assert.Equal(t, models.RoleFamily, svc.Guard.State().Role())
}

func TestConsoleService_RoleTransitionsMountFeeds(t *testing.T) {
	var hits int32
	srv := familyBackend(t, &hits)
	kv := store.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, models.KeyAdminToken, "abc", 0))

	svc := startService(t, testConfig(srv.URL), kv)

	// 管理端：模拟卡片
	require.Eventually(t, func() bool { return svc.AdminCard.Stats().Active }, 2*time.Second, 5*time.Millisecond)
	snap, ok := svc.AdminCard.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "1", snap.PatientID)
	assert.Equal(t, 72, snap.Status.HeartRate)

	// 家属登录优先于管理端
	require.NoError(t, svc.Sessions.SetFamilySession(ctx, "xyz", "42"))
	assert.False(t, svc.AdminCard.Stats().Active)
	assert.True(t, svc.FamilyFeed.Stats().Active)

	// 家属登出后回到管理端
	require.NoError(t, svc.Sessions.Clear(ctx, models.RoleFamily))
	assert.False(t, svc.FamilyFeed.Stats().Active)
	assert.True(t, svc.AdminCard.Stats().Active)

	// 全部登出
	require.NoError(t, svc.Sessions.Clear(ctx, models.RoleAnonymous))
	assert.False(t, svc.FamilyFeed.Stats().Active)
	assert.False(t, svc.AdminCard.Stats().Active)
	assert.Equal(t, "public", svc.Guard.State().Views.Name)
}

func TestConsoleService_UnauthorizedKeepsCredential(t *testing.T) {
	var hits int32
	srv := familyBackend(t, &hits)
	kv := store.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, models.KeyFamilyToken, "stale", 0))
	require.NoError(t, kv.Set(ctx, models.KeyPatientID, "42", 0))

	svc := startService(t, testConfig(srv.URL), kv)

	require.Eventually(t, func() bool { return svc.FamilyFeed.Stats().Errors == 1 }, 2*time.Second, 5*time.Millisecond)

	token, err := svc.Sessions.FamilyToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stale", token)
	assert.Equal(t, models.RoleFamily, svc.Guard.State().Role())
	_, ok := svc.FamilyFeed.Snapshot()
	assert.False(t, ok)
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := testConfig("")
		cfg.Store.KeyPrefix = "p:"
		b, err := OpenBackends(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.KV.Set(ctx, "token", "v", 0))
		_, ok := b.Broadcaster.(session.NopBroadcaster)
		assert.True(t, ok)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig("")
		cfg.Store.Backend = config.StoreRedis
		cfg.Store.KeyPrefix = "siacom:session:"
		cfg.Broadcast.Backend = config.BroadcastRedis
		cfg.Broadcast.Channel = "siacom:tokenChanged"
		cfg.Redis.Addr = mr.Addr()

		b, err := OpenBackends(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer b.Close()

		require.NoError(t, b.KV.Set(ctx, "token", "v", 0))
		got, err := mr.Get("siacom:session:token")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := testConfig("")
		cfg.Store.Backend = config.StoreRedis
		cfg.Redis.Addr = "127.0.0.1:1"
		_, err := OpenBackends(ctx, cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := testConfig("")
		cfg.Store.Backend = "etcd"
		_, err := OpenBackends(ctx, cfg, zap.NewNop())
		assert.Error(t, err)

		cfg = testConfig("")
		cfg.Broadcast.Backend = "carrier-pigeon"
		_, err = OpenBackends(ctx, cfg, zap.NewNop())
		assert.Error(t, err)
	})
}
