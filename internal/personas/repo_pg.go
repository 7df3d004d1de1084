package personas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const listPersonasSQL = `
SELECT id, name, system_prompt, greeting, created_at
FROM personas
ORDER BY name ASC`

const getPersonaSQL = `
SELECT id, name, system_prompt, greeting, created_at
FROM personas
WHERE id = $1`

// PGRepo is a Postgres-backed persona catalog.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

// List returns all personas sorted by name.
func (r *PGRepo) List(ctx context.Context) ([]Persona, error) {
	rows, err := r.DB.QueryContext(ctx, listPersonasSQL)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	defer rows.Close()

	var out []Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate personas: %w", err)
	}
	return out, nil
}

// GetByID returns a persona by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Persona, error) {
	row := r.DB.QueryRowContext(ctx, getPersonaSQL, id)
	p, err := scanPersona(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Persona{}, ErrNotFound
		}
		return Persona{}, fmt.Errorf("get persona: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPersona(row rowScanner) (Persona, error) {
	var p Persona
	var greeting sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.SystemPrompt, &greeting, &p.CreatedAt); err != nil {
		return Persona{}, err
	}
	if greeting.Valid {
		p.Greeting = greeting.String
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)
