package feed

import (
	"context"
	"time"

	"siacom-console/internal/models"
)

// PatientStatusFetcher 家属端状态接口（*api.FamilyAPI 实现了该接口）
type PatientStatusFetcher interface {
	GetPatientStatus(ctx context.Context, patientID string) (*models.FamilyPatientResponse, error)
}

// RemoteSource 从后端轮询，快照即完整响应（后端返回的是全量状态而非增量）
type RemoteSource struct {
	fetcher  PatientStatusFetcher
	interval time.Duration
}

func NewRemoteSource(fetcher PatientStatusFetcher, interval time.Duration) *RemoteSource {
	return &RemoteSource{fetcher: fetcher, interval: interval}
}

func (s *RemoteSource) Name() string { return "remote" }

func (s *RemoteSource) Interval() time.Duration { return s.interval }

func (s *RemoteSource) Seed(patientID string) *models.Snapshot { return nil }

func (s *RemoteSource) Next(ctx context.Context, patientID string, prev *models.Snapshot) (*models.Snapshot, error) {
	resp, err := s.fetcher.GetPatientStatus(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		PatientID: patientID,
		Source:    s.Name(),
		Patient:   resp.Patient,
		Status:    resp.SurgeryStatus.Clone(),
	}, nil
}
