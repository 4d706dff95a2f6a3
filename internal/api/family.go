package api

import (
	"context"
	"fmt"
	"net/url"

	"siacom-console/internal/models"

	"go.uber.org/zap"
)

// FamilyAPI 家属端接口
type FamilyAPI struct {
	clients *Clients
	logger  *zap.Logger
}

func NewFamilyAPI(clients *Clients, logger *zap.Logger) *FamilyAPI {
	return &FamilyAPI{clients: clients, logger: logger}
}

// GetPatientStatus GET /family/patient/{id}
// 缺少 surgery_status 视为格式错误；patient 允许为空
func (a *FamilyAPI) GetPatientStatus(ctx context.Context, patientID string) (*models.FamilyPatientResponse, error) {
	if patientID == "" {
		return nil, fmt.Errorf("family patient status: empty patient id")
	}

	var out models.FamilyPatientResponse
	if err := getJSON(ctx, a.clients.Family, "/family/patient/"+url.PathEscape(patientID), &out); err != nil {
		return nil, err
	}
	if out.SurgeryStatus == nil {
		return nil, fmt.Errorf("family patient %s: %w: missing surgery_status", patientID, ErrMalformedResponse)
	}
	if out.SurgeryStatus.Notifications == nil {
		out.SurgeryStatus.Notifications = []models.Notification{}
	}
	return &out, nil
}
