package dto

import "github.com/sanitation-complaints/internal/domain"

// ComplaintListResponse - страница жалоб
type ComplaintListResponse struct {
	Complaints []domain.Complaint `json:"complaints"`
	Total      int                `json:"total"`
	Skip       int                `json:"skip"`
	Limit      int                `json:"limit"`
}

// WorkerPreview - текущий выбор исполнителя для деревни
type WorkerPreview struct {
	VillageID  int64  `json:"village_id"`
	WorkerID   *int64 `json:"worker_id,omitempty"`
	PositionID *int64 `json:"position_id,omitempty"`
	Load       int    `json:"load"`
	Candidates int    `json:"candidates"`
}

// AnalyticsSummary - счётчики по статусам на всех уровнях и дневная серия
type AnalyticsSummary struct {
	ByDistrict []domain.StatusCount `json:"by_district"`
	ByBlock    []domain.StatusCount `json:"by_block"`
	ByVillage  []domain.StatusCount `json:"by_village"`
	Daily      []domain.DailyCount  `json:"daily"`
}

// HealthResponse - ответ GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
