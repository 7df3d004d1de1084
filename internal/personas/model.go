package personas

import "time"

// Persona is one interviewer profile from the read-only catalog.
type Persona struct {
	ID           string
	Name         string
	SystemPrompt string
	Greeting     string
	CreatedAt    time.Time
}
