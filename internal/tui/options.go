package tui

import (
	"github.com/atotto/clipboard"

	"github.com/hylla/lobsim/internal/domain"
)

// ChartConfig sizes the line-of-balance chart grid.
type ChartConfig struct {
	Width  int
	Height int
}

// Option configures a Model.
type Option func(*Model)

// DefaultChartConfig returns the chart size used when none is configured.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{Width: 72, Height: 14}
}

// WithMode sets the presentation mode for new sessions.
func WithMode(mode domain.Mode) Option {
	return func(m *Model) {
		if parsed, err := domain.ParseMode(string(mode)); err == nil {
			m.mode = parsed
		}
	}
}

// WithChartConfig overrides the chart grid size. Non-positive values keep defaults.
func WithChartConfig(cfg ChartConfig) Option {
	return func(m *Model) {
		if cfg.Width > 0 {
			m.chart.Width = cfg.Width
		}
		if cfg.Height > 0 {
			m.chart.Height = cfg.Height
		}
	}
}

// WithPlayerName pre-fills the intro name field.
func WithPlayerName(name string) Option {
	return func(m *Model) {
		m.nameInput.SetValue(name)
	}
}

// WithClipboard replaces the clipboard writer used by the summary copy key.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// systemClipboard writes text to the OS clipboard.
func systemClipboard(text string) error {
	return clipboard.WriteAll(text)
}
