package resolver

import "strings"

// EventInput creates an event, every field is required except description.
type EventInput struct {
	Name        string `json:"name" validate:"required,max=124"`
	Description string `json:"description"`
	Datetime    string `json:"datetime" validate:"required"`
	// Duration in minutes.
	Duration   int    `json:"duration" validate:"gt=0"`
	Location   string `json:"location" validate:"required,max=256"`
	Activities []uint `json:"activities" validate:"required,min=1"`
}

// EventPatch updates an event. Nil fields keep their value, activities must
// always carry the complete desired set since it replaces the current one.
type EventPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Datetime    *string `json:"datetime"`
	Duration    *int    `json:"duration"`
	Location    *string `json:"location"`
	Activities  []uint  `json:"activities"`
}

type CommentInput struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type UserInput struct {
	Username    string  `json:"username" validate:"required,max=150,username"`
	Email       string  `json:"email" validate:"required,max=254,email"`
	FirstName   string  `json:"first_name" validate:"required,max=150"`
	LastName    string  `json:"last_name" validate:"required,max=150"`
	PhoneNumber string  `json:"phone_number" validate:"required,e164"`
	BirthYear   *int    `json:"birth_year"`
	Bio         *string `json:"bio"`
	Photo       *string `json:"photo" validate:"omitempty,max=2048"`
}

// UserPatch updates a profile, nil fields keep their value.
type UserPatch struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	BirthYear   *int    `json:"birth_year"`
	Bio         *string `json:"bio"`
	Photo       *string `json:"photo"`
}

// EventFilter narrows ListEvents. Every enabled predicate is combined with
// AND. Predicates scoped to the actor are no-ops for anonymous requests.
type EventFilter struct {
	// datetime <= now
	IsPast bool
	// datetime > now
	IsActual bool
	// IsPast restricted to events the actor participates in
	IsUserPast bool
	// IsActual restricted to events the actor participates in
	IsUserActual bool
	// events the actor participates in
	InMyParticipationList bool
	// events with at least one of the actor's favorite activities
	InMyActivities bool
	// events with at least one activity of these names
	Activities []string
}

// trimmed strips surrounding whitespace from the text fields, so blank input
// fails the required checks and length limits apply to the stored value.
func (in EventInput) trimmed() EventInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Datetime = strings.TrimSpace(in.Datetime)
	in.Location = strings.TrimSpace(in.Location)
	return in
}

func (in CommentInput) trimmed() CommentInput {
	in.Text = strings.TrimSpace(in.Text)
	return in
}

func (in UserInput) trimmed() UserInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	return in
}

func (p EventPatch) apply(in EventInput) EventInput {
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Datetime != nil {
		in.Datetime = *p.Datetime
	}
	if p.Duration != nil {
		in.Duration = *p.Duration
	}
	if p.Location != nil {
		in.Location = *p.Location
	}
	in.Activities = p.Activities
	return in
}

func (p UserPatch) apply(in UserInput) UserInput {
	if p.Username != nil {
		in.Username = *p.Username
	}
	if p.Email != nil {
		in.Email = *p.Email
	}
	if p.FirstName != nil {
		in.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		in.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		in.PhoneNumber = *p.PhoneNumber
	}
	if p.BirthYear != nil {
		in.BirthYear = p.BirthYear
	}
	if p.Bio != nil {
		in.Bio = p.Bio
	}
	if p.Photo != nil {
		in.Photo = p.Photo
	}
	return in
}
