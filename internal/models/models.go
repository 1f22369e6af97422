package models

import "encoding/json"

// Book is the typed view of a well-formed catalog record. Records are served
// as stored, so fields outside this shape are kept.
type Book struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
}

// CreateBookRequest is the payload of POST /api/books. ID and Author are
// stored as given; a nil ID means the field was absent.
type CreateBookRequest struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Title  any             `json:"title" validate:"truthy"`
	Author json.RawMessage `json:"author,omitempty"`
}

// UpdateBookRequest is the payload of PUT /api/books/{id}.
// A nil Author leaves the stored one untouched.
type UpdateBookRequest struct {
	Title  any             `json:"title" validate:"truthy"`
	Author json.RawMessage `json:"author,omitempty"`
}

type SecurityQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// User is a directory entry. Password holds a bcrypt hash.
type User struct {
	ID                int                `json:"id"`
	Email             string             `json:"email"`
	Password          string             `json:"password"`
	SecurityQuestions []SecurityQuestion `json:"securityQuestions"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SecurityAnswer struct {
	Answer string `json:"answer"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details []any  `json:"details,omitempty"`
}
