package dto

type CreateTimeOffRequest struct {
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date"   validate:"required,datetime=2006-01-02"`
	Reason    *string `json:"reason"     validate:"omitempty,max=500"`
}

// ReviewTimeOffRequest carries the reviewer's decision plus the version token
// from the read the decision was based on. A stale token loses the review race.
type ReviewTimeOffRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Notes    *string `json:"notes"    validate:"omitempty,max=500"`
	Version  int     `json:"version"  validate:"required,min=1"`
}

type TimeOffResponse struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Days       string  `json:"days"`
	Reason     *string `json:"reason"`
	Status     string  `json:"status"`
	ReviewerID *string `json:"reviewer_id"`
	ReviewedAt *string `json:"reviewed_at"`
	Notes      *string `json:"notes"`
	Version    int     `json:"version"`
}
