package dto

type CreateVenueRequest struct {
	Name     string `json:"name"     validate:"required,min=2,max=150"`
	Timezone string `json:"timezone" validate:"omitempty,max=64"`
}

type SetVenueActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type AddMemberRequest struct {
	UserID    string `json:"user_id" validate:"required,uuid"`
	IsPrimary bool   `json:"is_primary"`
}

type SetPrimaryRequest struct {
	VenueID string `json:"venue_id" validate:"required,uuid"`
}

type VenueResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active"`
}
