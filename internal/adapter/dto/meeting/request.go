package meeting

// AgendaItemRequest is one agenda entry in a meeting create request
type AgendaItemRequest struct {
	Title             string `json:"title" validate:"required,max=255"`
	Description       string `json:"description,omitempty"`
	EstimatedDuration int    `json:"estimatedDuration,omitempty" validate:"omitempty,min=0"`
}

// AttendeeRequest identifies an attendee by registered user or email
type AttendeeRequest struct {
	UserID *string `json:"user_id,omitempty" validate:"omitempty,uuid"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
}

// CreateMeetingRequest represents the request to create a meeting
type CreateMeetingRequest struct {
	Title              string              `json:"title" validate:"required,max=255"`
	Description        string              `json:"description,omitempty"`
	SeriesID           *string             `json:"series_id,omitempty" validate:"omitempty,uuid"`
	ScheduledAt        *string             `json:"scheduled_at,omitempty"`
	Agenda             string              `json:"agenda,omitempty"`
	AgendaItems        []AgendaItemRequest `json:"agenda_items,omitempty" validate:"dive"`
	UsePreviousContext bool                `json:"use_previous_context"`
	Attendees          []AttendeeRequest   `json:"attendees,omitempty" validate:"dive"`
}

// LoginRequest represents the request to log in
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
