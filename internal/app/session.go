package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hylla/lobsim/internal/domain"
)

// keyLearnings lists the takeaway of each playable round.
var keyLearnings = []string{
	"Gantt charts show schedule but can hide spatial conflicts",
	"LOB reveals when faster crews catch slower ones - use buffers!",
	"Buffer up means duration up, but cost stays the same",
	"Equipment type affects both rate and cost per day",
	"Multiple equipment units multiply rate AND cost - optimize!",
}

// KeyLearnings returns the per-round takeaways in round order.
func KeyLearnings() []string {
	return slices.Clone(keyLearnings)
}

// Summary is the end-of-game view of one session.
type Summary struct {
	Session   domain.Session
	Results   []domain.RoundResult
	Final     domain.RoundResult
	HasFinal  bool
	Pass      bool
	Targets   domain.ConstraintTarget
	Learnings []string
}

// StartSession creates a play-through for a named player and moves it to the first round.
func (s *Service) StartSession(ctx context.Context, playerName string, mode domain.Mode) (domain.Session, error) {
	if strings.TrimSpace(playerName) == "" {
		return domain.Session{}, ErrInvalidPlayerName
	}
	now := s.clock()
	session, err := domain.NewSession(s.idGen(), playerName, mode, now)
	if err != nil {
		return domain.Session{}, err
	}
	if err := session.Advance(domain.RoundGantt, now); err != nil {
		return domain.Session{}, err
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// GetSession returns one session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	return s.store.GetSession(ctx, strings.TrimSpace(sessionID))
}

// RecordRound stores the result of the session's current round, replacing any earlier attempt.
func (s *Service) RecordRound(ctx context.Context, sessionID string, result domain.RoundResult) (domain.RoundResult, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.RoundResult{}, err
	}
	if !result.Round.Playable() {
		return domain.RoundResult{}, fmt.Errorf("%w: %d", ErrInvalidRound, result.Round)
	}
	if result.Round != session.Round {
		return domain.RoundResult{}, fmt.Errorf("%w: session is on round %d, got %d", ErrInvalidRound, session.Round, result.Round)
	}
	result.SessionID = session.ID
	result.RecordedAt = s.clock().UTC()
	if err := s.store.UpsertRoundResult(ctx, result); err != nil {
		return domain.RoundResult{}, err
	}
	return result, nil
}

// AdvanceRound moves the session past its current round.
// Playable rounds need a recorded result, schedule rounds need every row plotted,
// and validated sessions need a correct LOB round.
func (s *Service) AdvanceRound(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Round == domain.RoundSummary {
		return session, nil
	}
	if session.Round.Playable() {
		result, ok, err := s.roundResult(ctx, session.ID, session.Round)
		if err != nil {
			return domain.Session{}, err
		}
		if !ok {
			return domain.Session{}, fmt.Errorf("%w: round %d has no result", ErrRoundLocked, session.Round)
		}
		if session.Mode.ChecksAnswers() && session.Round == domain.RoundLOB && !result.Correct {
			return domain.Session{}, fmt.Errorf("%w: answer round %d correctly to proceed", ErrRoundLocked, session.Round)
		}
		if (session.Round == domain.RoundGantt || session.Round == domain.RoundLOB) && !result.Complete() {
			return domain.Session{}, fmt.Errorf("%w: enter a start and end for every activity in round %d", ErrRoundLocked, session.Round)
		}
	}
	if err := session.Advance(session.Round.Next(), s.clock()); err != nil {
		return domain.Session{}, err
	}
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// CompleteRound records a result and advances the session.
func (s *Service) CompleteRound(ctx context.Context, sessionID string, result domain.RoundResult) (domain.Session, error) {
	if _, err := s.RecordRound(ctx, sessionID, result); err != nil {
		return domain.Session{}, err
	}
	return s.AdvanceRound(ctx, sessionID)
}

// Summary returns ordered round results and the final constraint outcome.
func (s *Service) Summary(ctx context.Context, sessionID string) (Summary, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	results, err := s.store.ListRoundResults(ctx, session.ID)
	if err != nil {
		return Summary{}, err
	}
	slices.SortFunc(results, func(a, b domain.RoundResult) int { return int(a.Round) - int(b.Round) })
	out := Summary{
		Session:   session,
		Results:   results,
		Targets:   s.targets,
		Learnings: KeyLearnings(),
	}
	for _, result := range results {
		if result.Round == domain.RoundOptimize {
			out.Final = result
			out.HasFinal = true
			out.Pass = result.HasConstraint && result.Constraint.Pass
		}
	}
	return out, nil
}

// roundResult finds the stored result for one round.
func (s *Service) roundResult(ctx context.Context, sessionID string, round domain.Round) (domain.RoundResult, bool, error) {
	results, err := s.store.ListRoundResults(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.RoundResult{}, false, nil
		}
		return domain.RoundResult{}, false, err
	}
	for _, result := range results {
		if result.Round == round {
			return result, true, nil
		}
	}
	return domain.RoundResult{}, false, nil
}
