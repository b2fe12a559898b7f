package handler

import (
	"ta-assign/backend/config"
	"ta-assign/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Assignment *AssignmentHandler
	Weight     *WeightHandler
	Catalog    *CatalogHandler
	Dashboard  *DashboardHandler
	Import     *ImportHandler
	Export     *ExportHandler
	Onboarding *OnboardingHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, &cfg.Auth.Cookie),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Weight:     NewWeightHandler(svc.Weight),
		Catalog:    NewCatalogHandler(svc.Course, svc.TA, svc.Professor),
		Dashboard:  NewDashboardHandler(svc.Dashboard, svc.ActivityLog),
		Import:     NewImportHandler(svc.Import),
		Export:     NewExportHandler(svc.Export),
		Onboarding: NewOnboardingHandler(svc.Onboarding),
	}
}
