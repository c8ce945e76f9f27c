package dto

import "time"

// CreateComplaintRequest - запрос на создание жалобы гражданином.
// MobileNumber берётся из токена, если он там есть
type CreateComplaintRequest struct {
	VillageID       int64   `json:"village_id" validate:"required,gt=0"`
	ComplaintTypeID int64   `json:"complaint_type_id" validate:"required,gt=0"`
	Description     string  `json:"description" validate:"required,min=3,max=2000"`
	MobileNumber    *string `json:"mobile_number,omitempty" validate:"omitempty,mobile"`
}

// TransitionRequest - запрос на смену статуса жалобы
type TransitionRequest struct {
	Status   string `json:"status" validate:"required,oneof=OPEN ASSIGNED IN_PROGRESS COMPLETED VERIFIED CLOSED INVALID"`
	Note     string `json:"note,omitempty" validate:"max=2000"`
	WorkerID *int64 `json:"worker_id,omitempty" validate:"omitempty,gt=0"`
}

// CommentRequest - комментарий к жалобе
type CommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// ListComplaintsRequest - параметры GET /complaints.
// Фильтры по географии только сужают юрисдикцию вызывающего
type ListComplaintsRequest struct {
	VillageID  *int64     `query:"village_id" json:"village_id,omitempty" validate:"omitempty,gt=0"`
	BlockID    *int64     `query:"block_id" json:"block_id,omitempty" validate:"omitempty,gt=0"`
	DistrictID *int64     `query:"district_id" json:"district_id,omitempty" validate:"omitempty,gt=0"`
	Status     string     `query:"status" json:"status,omitempty" validate:"omitempty,oneof=OPEN ASSIGNED IN_PROGRESS COMPLETED VERIFIED CLOSED INVALID"`
	AssignedTo *int64     `query:"assigned_to" json:"assigned_to,omitempty" validate:"omitempty,gt=0"`
	From       *time.Time `query:"-" json:"from,omitempty"`
	To         *time.Time `query:"-" json:"to,omitempty"`
	OrderBy    string     `query:"order_by" json:"order_by,omitempty" validate:"omitempty,oneof=newest oldest status village"`
	Skip       int        `query:"skip" json:"skip" validate:"min=0"`
	Limit      int        `query:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

// AppointPositionRequest - запрос на назначение; ScopeNodeID не задаётся для ADMIN и SUPERADMIN
type AppointPositionRequest struct {
	HolderID    int64      `json:"holder_id" validate:"required,gt=0"`
	Role        string     `json:"role" validate:"required,oneof=SUPERADMIN ADMIN CEO BDO VDO WORKER"`
	ScopeNodeID *int64     `json:"scope_node_id,omitempty" validate:"omitempty,gt=0"`
	StartDate   *time.Time `json:"start_date,omitempty"`
}

// EndPositionRequest - завершение должности; по умолчанию EndDate = now
type EndPositionRequest struct {
	EndDate *time.Time `json:"end_date,omitempty"`
}

// AnalyticsRequest - параметры аналитики.
// Допускается не более одного из district_id, block_id, village_id
type AnalyticsRequest struct {
	Level      string     `query:"level" json:"level,omitempty" validate:"omitempty,oneof=DISTRICT BLOCK VILLAGE"`
	DistrictID *int64     `query:"district_id" json:"district_id,omitempty" validate:"omitempty,gt=0"`
	BlockID    *int64     `query:"block_id" json:"block_id,omitempty" validate:"omitempty,gt=0"`
	VillageID  *int64     `query:"village_id" json:"village_id,omitempty" validate:"omitempty,gt=0"`
	N          int        `query:"n" json:"n,omitempty" validate:"omitempty,min=1,max=100"`
	From       *time.Time `query:"-" json:"from,omitempty"`
	To         *time.Time `query:"-" json:"to,omitempty"`
}
