package personas

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory persona catalog for local runs without Postgres.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Persona
}

// NewMemoryRepo constructs a MemoryRepo seeded with the default catalog.
func NewMemoryRepo() *MemoryRepo {
	r := &MemoryRepo{data: make(map[string]Persona)}
	for _, p := range DefaultPersonas() {
		r.data[p.ID] = p
	}
	return r
}

// DefaultPersonas returns the built-in interviewer catalog. The same rows are
// seeded by the personas migration so PG and memory deployments agree.
func DefaultPersonas() []Persona {
	now := time.Now().UTC()
	return []Persona{
		{
			ID:           "technical-lead",
			Name:         "Technical Lead",
			SystemPrompt: "You are a senior technical lead conducting a software engineering interview. Probe for depth on system design, trade-offs, and hands-on implementation detail. Ask one question at a time and follow up on vague answers.",
			Greeting:     "Hi, I'm your technical interviewer today. Let's dig into your engineering background.",
			CreatedAt:    now,
		},
		{
			ID:           "hiring-manager",
			Name:         "Hiring Manager",
			SystemPrompt: "You are an experienced hiring manager conducting a role-fit interview. Focus on impact, ownership, collaboration, and how the candidate's experience maps to the job description. Ask one question at a time.",
			Greeting:     "Thanks for joining. I'd like to understand how your experience lines up with this role.",
			CreatedAt:    now,
		},
		{
			ID:           "behavioral-coach",
			Name:         "Behavioral Coach",
			SystemPrompt: "You are a supportive behavioral interviewer. Ask STAR-style questions about past situations, push for concrete actions and outcomes, and keep the tone encouraging.",
			Greeting:     "Welcome! We'll walk through some situations from your past roles.",
			CreatedAt:    now,
		},
	}
}

// List returns all personas sorted by name.
func (r *MemoryRepo) List(ctx context.Context) ([]Persona, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Persona, 0, len(r.data))
	for _, p := range r.data {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetByID returns a persona by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Persona, error) {
	if err := ctx.Err(); err != nil {
		return Persona{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data[id]
	if !ok {
		return Persona{}, ErrNotFound
	}
	return p, nil
}

var _ Repo = (*MemoryRepo)(nil)
