package sessions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Session // sessionId -> session
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Session)}
}

// Create stores a new session.
func (r *MemoryRepo) Create(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.data[s.ID] = cloneSession(s)
	return nil
}

// GetByID returns a session by id for a user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[sessionID]
	if !ok || s.UserID != userID {
		return Session{}, ErrNotFound
	}
	return cloneSession(s), nil
}

// ListByUser returns sessions for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	var out []Session
	for _, s := range r.data {
		if s.UserID == userID {
			out = append(out, cloneSession(s))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})

	if len(out) == 0 || offset >= len(out) {
		return []Session{}, nil
	}

	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// Update replaces a stored session.
func (r *MemoryRepo) Update(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[s.ID]
	if !ok || existing.UserID != s.UserID {
		return ErrNotFound
	}
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	r.data[s.ID] = cloneSession(s)
	return nil
}

// DeleteByUser removes all sessions for a user.
func (r *MemoryRepo) DeleteByUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.data {
		if s.UserID == userID {
			delete(r.data, id)
		}
	}
	return nil
}

// ClaimGuest reassigns sessions owned by a guest user to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, s := range r.data {
		if s.UserID == guestUserID {
			s.UserID = authedUserID
			s.UpdatedAt = time.Now().UTC()
			r.data[id] = s
			moved++
		}
	}
	return moved, nil
}

// cloneSession deep-copies the nested slices so callers cannot mutate stored
// state through shared backing arrays.
func cloneSession(s Session) Session {
	out := s
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.OverallAssessment != nil {
		a := *s.OverallAssessment
		a.Strengths = append([]string(nil), s.OverallAssessment.Strengths...)
		a.Improvements = append([]string(nil), s.OverallAssessment.Improvements...)
		out.OverallAssessment = &a
	}
	if s.QuestionSegments != nil {
		out.QuestionSegments = make([]QuestionSegment, len(s.QuestionSegments))
		for i, seg := range s.QuestionSegments {
			cp := seg
			cp.KeyPoints = append([]string(nil), seg.KeyPoints...)
			if seg.Conversation != nil {
				cp.Conversation = make([]ConversationTurn, len(seg.Conversation))
				for j, turn := range seg.Conversation {
					tc := turn
					tc.FeedbackPoints = append([]string(nil), turn.FeedbackPoints...)
					cp.Conversation[j] = tc
				}
			}
			out.QuestionSegments[i] = cp
		}
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
