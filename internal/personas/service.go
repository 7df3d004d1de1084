package personas

import (
	"context"
	"errors"
	"strings"
)

// Service exposes the persona catalog to handlers and the sessions flow.
type Service struct {
	Repo Repo
}

// NewService constructs a persona Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Persona, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("personas service not configured")
	}
	return s.Repo.List(ctx)
}

// GetByID returns one persona.
func (s *Service) GetByID(ctx context.Context, id string) (Persona, error) {
	if s == nil || s.Repo == nil {
		return Persona{}, errors.New("personas service not configured")
	}
	if strings.TrimSpace(id) == "" {
		return Persona{}, errors.New("persona id is required")
	}
	return s.Repo.GetByID(ctx, id)
}
