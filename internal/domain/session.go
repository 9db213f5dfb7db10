package domain

import (
	"strings"
	"time"
)

// Round identifies one screen of the training game.
type Round int

// RoundIntro and related constants enumerate game rounds in play order.
const (
	RoundIntro Round = iota
	RoundGantt
	RoundLOB
	RoundBuffer
	RoundRate
	RoundOptimize
	RoundSummary
)

// roundTitles stores display titles by round.
var roundTitles = map[Round]string{
	RoundIntro:    "Introduction",
	RoundGantt:    "Gantt Chart",
	RoundLOB:      "LOB Analysis",
	RoundBuffer:   "Buffer Analysis",
	RoundRate:     "Rate Analysis",
	RoundOptimize: "Optimization",
	RoundSummary:  "Summary",
}

// Valid reports whether the round is within the game.
func (r Round) Valid() bool {
	return r >= RoundIntro && r <= RoundSummary
}

// Playable reports whether the round takes scheduling input.
func (r Round) Playable() bool {
	return r >= RoundGantt && r <= RoundOptimize
}

// Title returns the display title for the round.
func (r Round) Title() string {
	if title, ok := roundTitles[r]; ok {
		return title
	}
	return "Unknown"
}

// Next returns the following round, staying on the summary.
func (r Round) Next() Round {
	if r >= RoundSummary {
		return RoundSummary
	}
	return r + 1
}

// Mode controls which computed values are revealed or editable.
type Mode string

// ModePlayer and related constants enumerate presentation modes.
const (
	ModePlayer    Mode = "player"
	ModeValidated Mode = "validated"
	ModeAnswerKey Mode = "answer_key"
)

// NormalizeMode canonicalizes a mode value.
func NormalizeMode(mode Mode) Mode {
	return Mode(strings.ToLower(strings.TrimSpace(string(mode))))
}

// ParseMode validates and canonicalizes a mode, defaulting blank values to player mode.
func ParseMode(raw string) (Mode, error) {
	mode := NormalizeMode(Mode(raw))
	switch mode {
	case "":
		return ModePlayer, nil
	case ModePlayer, ModeValidated, ModeAnswerKey:
		return mode, nil
	default:
		return "", ErrInvalidMode
	}
}

// RevealsAnswers reports whether reference values are pre-filled.
func (m Mode) RevealsAnswers() bool {
	return m == ModeAnswerKey
}

// ChecksAnswers reports whether round answers gate advancement.
func (m Mode) ChecksAnswers() bool {
	return m == ModeValidated
}

// Session represents one in-memory play-through.
type Session struct {
	ID         string
	PlayerName string
	Mode       Mode
	Round      Round
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// NewSession constructs a session on the intro round.
func NewSession(id, playerName string, mode Mode, now time.Time) (Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Session{}, ErrInvalidID
	}
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return Session{}, ErrInvalidName
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return Session{}, err
	}
	now = now.UTC()
	return Session{
		ID:         id,
		PlayerName: playerName,
		Mode:       mode,
		Round:      RoundIntro,
		StartedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Advance moves the session to round and stamps the update time.
func (s *Session) Advance(round Round, now time.Time) error {
	if !round.Valid() {
		return ErrInvalidRound
	}
	s.Round = round
	s.UpdatedAt = now.UTC()
	return nil
}

// RoundRow stores one activity row as played in a round.
type RoundRow struct {
	ActivityID ActivityID `json:"activity_id"`
	Label      string     `json:"label"`
	Equipment  string     `json:"equipment,omitempty"`
	Rate       int        `json:"rate"`
	DailyCost  int64      `json:"daily_cost"`
	Duration   int        `json:"duration"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Rule       BufferRule `json:"rule,omitempty"`
}

// RoundResult is the retained outcome of one played round.
type RoundResult struct {
	SessionID     string
	Round         Round
	Buffer        int
	Rows          []RoundRow
	End           int
	Cost          CostBreakdown
	HasCost       bool
	Constraint    ConstraintResult
	HasConstraint bool
	Correct       bool
	RecordedAt    time.Time
}

// Complete reports whether every row carries a usable start/end pair.
func (r RoundResult) Complete() bool {
	for _, row := range r.Rows {
		if row.Start <= 0 || row.End < row.Start {
			return false
		}
	}
	return len(r.Rows) > 0
}

// RowsFromSchedule converts plotted and unplotted schedule activities into round rows.
func RowsFromSchedule(schedule Schedule) []RoundRow {
	out := make([]RoundRow, 0, len(schedule.Activities))
	for _, a := range schedule.Activities {
		out = append(out, RoundRow{
			ActivityID: a.ID,
			Label:      a.Label,
			Equipment:  a.Crew,
			Rate:       a.Rate,
			DailyCost:  a.DailyCost,
			Duration:   a.Duration,
			Start:      a.Start,
			End:        a.End,
			Rule:       a.Rule,
		})
	}
	return out
}
