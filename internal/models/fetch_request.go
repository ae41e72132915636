package models

// MaxFetchLimit is the largest page the upstream events API serves per call
const MaxFetchLimit = 100

// FetchRequest represents the parameters for pulling fishing events upstream
type FetchRequest struct {
	StartDate string `json:"start_date" form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" form:"end_date" validate:"required,datetime=2006-01-02"`
	Limit     int    `json:"limit" form:"limit" validate:"min=1,max=100"`
}
