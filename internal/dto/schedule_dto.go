package dto

type CreateScheduleRequest struct {
	VenueID   string `json:"venue_id"   validate:"required,uuid"`
	Name      string `json:"name"       validate:"required,min=2,max=150"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   validate:"required,datetime=2006-01-02"`
}

type SetScheduleStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT PUBLISHED ARCHIVED"`
}

type CreateEntryRequest struct {
	UserID    string `json:"user_id"    validate:"required,uuid"`
	Date      string `json:"date"       validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time"   validate:"required,len=5"`
}

type ScheduleResponse struct {
	ID        string `json:"id"`
	VenueID   string `json:"venue_id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

type EntryResponse struct {
	ID           string  `json:"id"`
	ScheduleID   string  `json:"schedule_id"`
	UserID       string  `json:"user_id"`
	Date         string  `json:"date"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	ConflictType *string `json:"conflict_type"`
}
