package persona

import (
	"strings"
	"time"
)

// CustomPrefix marks ids of user-created personas.
const CustomPrefix = "custom-"

// Persona is a trainer voice the model writes in.
type Persona struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar,omitempty"`
	Image        string    `json:"image,omitempty"`
	Description  string    `json:"description"`
	Catchphrases []string  `json:"catchphrases,omitempty"`
	SystemPrompt string    `json:"systemPrompt,omitempty"`
	Custom       bool      `json:"custom"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// Public returns a copy safe to list to clients, without the system prompt.
func (p Persona) Public() Persona {
	p.SystemPrompt = ""
	return p
}

// IsCustomID reports whether id refers to a user-created persona.
func IsCustomID(id string) bool {
	return strings.HasPrefix(id, CustomPrefix)
}

// CreateRequest describes a new custom persona.
type CreateRequest struct {
	Name         string   `json:"name"`
	Avatar       string   `json:"avatar,omitempty"`
	Image        string   `json:"image,omitempty"`
	Description  string   `json:"description"`
	Catchphrases []string `json:"catchphrases,omitempty"`
	SystemPrompt string   `json:"systemPrompt"`
}
