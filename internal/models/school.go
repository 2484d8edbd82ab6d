package models

import "time"

type School struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	City      string    `json:"city" db:"city"`
	State     string    `json:"state" db:"state"`
	Contact   string    `json:"contact" db:"contact"`
	Email     string    `json:"email" db:"email"`
	Image     *string   `json:"image" db:"image"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SchoolInput carries the user-supplied fields of a new school record.
type SchoolInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
}

// StoredImage describes an image held in the object store. PublicID is the
// content-hash derived object key, so identical bytes always resolve to the
// same descriptor.
type StoredImage struct {
	URL         string `json:"url"`
	PublicID    string `json:"public_id"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	IsDuplicate bool   `json:"isDuplicate"`
}

// DuplicateCheck is the advisory duplicate-check result. It reflects state at
// query time only; the schools table constraints remain authoritative.
type DuplicateCheck struct {
	IsDuplicate bool   `json:"isDuplicate"`
	Field       string `json:"field,omitempty"`
}
