package api

import (
	"context"

	"siacom-console/internal/models"

	"go.uber.org/zap"
)

// DashboardStats GET /dashboard/stats 的响应，缺失字段为 0
type DashboardStats struct {
	TotalPacientes    int `json:"total_pacientes"`
	CirugiasHoy       int `json:"cirugias_hoy"`
	CirugiasActivas   int `json:"cirugias_activas"`
	PacientesCriticos int `json:"pacientes_criticos"`
}

// AdminAPI 管理端接口
type AdminAPI struct {
	clients *Clients
	logger  *zap.Logger
}

func NewAdminAPI(clients *Clients, logger *zap.Logger) *AdminAPI {
	return &AdminAPI{clients: clients, logger: logger}
}

func (a *AdminAPI) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := getJSON(ctx, a.clients.Admin, "/dashboard/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminAPI) ListPatients(ctx context.Context) ([]models.PatientInfo, error) {
	var out []models.PatientInfo
	if err := getJSON(ctx, a.clients.Admin, "/pacientes", &out); err != nil {
		return nil, err
	}
	a.logger.Debug("Listed patients", zap.Int("count", len(out)))
	return out, nil
}
