package app

import (
	"context"

	"github.com/hylla/lobsim/internal/domain"
)

// ResultStore keeps sessions and round results for the lifetime of one play-through.
type ResultStore interface {
	CreateSession(context.Context, domain.Session) error
	UpdateSession(context.Context, domain.Session) error
	GetSession(context.Context, string) (domain.Session, error)
	UpsertRoundResult(context.Context, domain.RoundResult) error
	ListRoundResults(context.Context, string) ([]domain.RoundResult, error)
}
