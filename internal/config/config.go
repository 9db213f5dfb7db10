package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/lobsim/internal/app"
	"github.com/hylla/lobsim/internal/domain"
)

// Config is the decoded lobsim TOML configuration.
type Config struct {
	Project   ProjectConfig                `toml:"project"`
	Costs     CostsConfig                  `toml:"costs"`
	Targets   TargetsConfig                `toml:"targets"`
	Crews     []CrewConfig                 `toml:"crews"`
	Equipment map[string][]EquipmentConfig `toml:"equipment"`
	Chart     ChartConfig                  `toml:"chart"`
	Game      GameConfig                   `toml:"game"`
	Logging   LoggingConfig                `toml:"logging"`
	Server    ServerConfig                 `toml:"server"`
}

type ProjectConfig struct {
	Name             string `toml:"name"`
	Unit             string `toml:"unit"`
	TotalLength      int    `toml:"total_length"`
	MobilizationDays int    `toml:"mobilization_days"`
	DefaultBuffer    int    `toml:"default_buffer"`
}

type CostsConfig struct {
	Mobilization int64   `toml:"mobilization"`
	IndirectRate float64 `toml:"indirect_rate"`
	ProfitRate   float64 `toml:"profit_rate"`
}

type TargetsConfig struct {
	MaxDays int   `toml:"max_days"`
	MaxCost int64 `toml:"max_cost"`
}

type CrewConfig struct {
	ID        string `toml:"id"`
	Name      string `toml:"name"`
	Label     string `toml:"label"`
	Crew      string `toml:"crew"`
	Rate      int    `toml:"rate"`
	DailyCost int64  `toml:"daily_cost"`
}

type EquipmentConfig struct {
	Key       string `toml:"key"`
	Name      string `toml:"name"`
	Rate      int    `toml:"rate"`
	DailyCost int64  `toml:"daily_cost"`
}

type ChartConfig struct {
	StepDays   int `toml:"step_days"`
	MarginDays int `toml:"margin_days"`
	MinHorizon int `toml:"min_horizon"`
	MaxHorizon int `toml:"max_horizon"`
	Width      int `toml:"width"`
	Height     int `toml:"height"`
}

type GameConfig struct {
	Mode              string                    `toml:"mode"`
	BufferMin         int                       `toml:"buffer_min"`
	BufferMax         int                       `toml:"buffer_max"`
	OptimizeBufferMin int                       `toml:"optimize_buffer_min"`
	OptimizeBufferMax int                       `toml:"optimize_buffer_max"`
	MaxDay            int                       `toml:"max_day"`
	DefaultEquipment  map[string]int            `toml:"default_equipment"`
	DefaultFleet      map[string]map[string]int `toml:"default_fleet"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ServerConfig struct {
	Addr             string `toml:"addr"`
	APIEndpoint      string `toml:"api_endpoint"`
	MCPEndpoint      string `toml:"mcp_endpoint"`
	ReadTimeout      string `toml:"read_timeout"`
	WriteTimeout     string `toml:"write_timeout"`
	MaxProgressPlans int    `toml:"max_progress_plans"`
	MaxBuffer        int    `toml:"max_buffer"`
	MaxFirstStart    int    `toml:"max_first_start"`
	MaxUnits         int    `toml:"max_units"`
}

// Default returns the reference pipeline game configuration.
func Default() Config {
	svc := app.DefaultServiceConfig()
	crews := make([]CrewConfig, 0, len(svc.Catalog.Crews))
	for _, crew := range svc.Catalog.Crews {
		crews = append(crews, CrewConfig{
			ID:        string(crew.ID),
			Name:      crew.Name,
			Label:     crew.Label,
			Crew:      crew.Crew,
			Rate:      crew.Rate,
			DailyCost: crew.DailyCost,
		})
	}
	equipment := make(map[string][]EquipmentConfig, len(svc.Catalog.Equipment))
	for id, options := range svc.Catalog.Equipment {
		items := make([]EquipmentConfig, 0, len(options))
		for _, opt := range options {
			items = append(items, EquipmentConfig{Key: opt.Key, Name: opt.Name, Rate: opt.Rate, DailyCost: opt.DailyCost})
		}
		equipment[string(id)] = items
	}
	defaultEquipment := make(map[string]int, len(svc.Rounds.DefaultEquipment))
	for id, index := range svc.Rounds.DefaultEquipment {
		defaultEquipment[string(id)] = index
	}
	defaultFleet := make(map[string]map[string]int, len(svc.Rounds.DefaultFleet))
	for id, counts := range svc.Rounds.DefaultFleet {
		clone := make(map[string]int, len(counts))
		for key, n := range counts {
			clone[key] = n
		}
		defaultFleet[string(id)] = clone
	}

	return Config{
		Project: ProjectConfig{
			Name:             svc.Project.Name,
			Unit:             svc.Project.Unit,
			TotalLength:      svc.Project.TotalLength,
			MobilizationDays: svc.Project.MobilizationDays,
			DefaultBuffer:    svc.Project.DefaultBuffer,
		},
		Costs: CostsConfig{
			Mobilization: svc.Project.MobilizationCost,
			IndirectRate: svc.Project.IndirectRate,
			ProfitRate:   svc.Project.ProfitRate,
		},
		Targets: TargetsConfig{
			MaxDays: svc.Targets.MaxDays,
			MaxCost: svc.Targets.MaxCost,
		},
		Crews:     crews,
		Equipment: equipment,
		Chart: ChartConfig{
			StepDays:   svc.Chart.Step,
			MarginDays: svc.Chart.MarginDays,
			MinHorizon: svc.Chart.MinHorizon,
			MaxHorizon: svc.Chart.MaxHorizon,
			Width:      72,
			Height:     16,
		},
		Game: GameConfig{
			Mode:              string(domain.ModePlayer),
			BufferMin:         svc.Rounds.BufferMin,
			BufferMax:         svc.Rounds.BufferMax,
			OptimizeBufferMin: svc.Rounds.OptimizeBufferMin,
			OptimizeBufferMax: svc.Rounds.OptimizeBufferMax,
			MaxDay:            svc.Rounds.MaxDay,
			DefaultEquipment:  defaultEquipment,
			DefaultFleet:      defaultFleet,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".lobsim/log",
			},
		},
		Server: ServerConfig{
			Addr:             "127.0.0.1:5437",
			APIEndpoint:      "/api/v1",
			MCPEndpoint:      "/mcp",
			ReadTimeout:      "10s",
			WriteTimeout:     "30s",
			MaxProgressPlans: 4,
			MaxBuffer:        365,
			MaxFirstStart:    3650,
			MaxUnits:         domain.MaxFleetUnits,
		},
	}
}

// Load reads path over defaults. A missing or empty file keeps the defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// Catalog tables replace the defaults wholesale instead of merging per entry.
	var shape struct {
		Crews     []CrewConfig                 `toml:"crews"`
		Equipment map[string][]EquipmentConfig `toml:"equipment"`
	}
	if err := toml.Unmarshal(content, &shape); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if len(shape.Crews) > 0 {
		cfg.Crews = nil
	}
	if len(shape.Equipment) > 0 {
		cfg.Equipment = nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every section and the derived catalog.
func (c Config) Validate() error {
	if c.Project.TotalLength <= 0 {
		return errors.New("project.total_length must be > 0")
	}
	if c.Project.MobilizationDays < 0 {
		return errors.New("project.mobilization_days must be >= 0")
	}
	if c.Costs.Mobilization < 0 {
		return errors.New("costs.mobilization must be >= 0")
	}
	if c.Costs.IndirectRate < 0 || c.Costs.IndirectRate > 1 {
		return fmt.Errorf("costs.indirect_rate must be within [0, 1]: %v", c.Costs.IndirectRate)
	}
	if c.Costs.ProfitRate < 0 || c.Costs.ProfitRate > 1 {
		return fmt.Errorf("costs.profit_rate must be within [0, 1]: %v", c.Costs.ProfitRate)
	}
	if c.Targets.MaxDays <= 0 {
		return errors.New("targets.max_days must be > 0")
	}
	if c.Targets.MaxCost <= 0 {
		return errors.New("targets.max_cost must be > 0")
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	if c.Chart.StepDays <= 0 {
		return errors.New("chart.step_days must be > 0")
	}
	if c.Chart.MarginDays < 0 || c.Chart.MinHorizon < 0 {
		return errors.New("chart.margin_days and chart.min_horizon must be >= 0")
	}
	if c.Chart.MaxHorizon < 0 {
		return errors.New("chart.max_horizon must be >= 0")
	}
	if _, err := domain.ParseMode(c.Game.Mode); err != nil {
		return fmt.Errorf("invalid game.mode: %q", c.Game.Mode)
	}
	if c.Game.BufferMin > c.Game.BufferMax {
		return fmt.Errorf("game.buffer_min %d exceeds game.buffer_max %d", c.Game.BufferMin, c.Game.BufferMax)
	}
	if c.Game.OptimizeBufferMin > c.Game.OptimizeBufferMax {
		return fmt.Errorf("game.optimize_buffer_min %d exceeds game.optimize_buffer_max %d", c.Game.OptimizeBufferMin, c.Game.OptimizeBufferMax)
	}
	if c.Game.MaxDay < 0 {
		return errors.New("game.max_day must be >= 0")
	}
	if c.Server.MaxProgressPlans < 0 || c.Server.MaxBuffer < 0 || c.Server.MaxFirstStart < 0 {
		return errors.New("server.max_progress_plans, server.max_buffer and server.max_first_start must be >= 0")
	}
	if c.Server.MaxUnits < 0 || c.Server.MaxUnits > domain.MaxFleetUnits {
		return fmt.Errorf("server.max_units must be within [0, %d]: %d", domain.MaxFleetUnits, c.Server.MaxUnits)
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		return errors.New("logging.level is required")
	}
	return nil
}

// Catalog maps crew and equipment tables into a validated domain catalog.
func (c Config) Catalog() (domain.Catalog, error) {
	out := domain.Catalog{
		Crews:     make([]domain.Activity, 0, len(c.Crews)),
		Equipment: make(map[domain.ActivityID][]domain.EquipmentOption, len(c.Equipment)),
	}
	for idx, crew := range c.Crews {
		activity, err := domain.NewActivity(domain.ActivityInput{
			ID:        domain.ActivityID(crew.ID),
			Name:      crew.Name,
			Label:     crew.Label,
			Crew:      crew.Crew,
			Rate:      crew.Rate,
			DailyCost: crew.DailyCost,
		})
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("crews[%d]: %w", idx, err)
		}
		out.Crews = append(out.Crews, activity)
	}
	for id, options := range c.Equipment {
		items := make([]domain.EquipmentOption, 0, len(options))
		for _, opt := range options {
			items = append(items, domain.EquipmentOption{
				Key:       strings.TrimSpace(opt.Key),
				Name:      strings.TrimSpace(opt.Name),
				Rate:      opt.Rate,
				DailyCost: opt.DailyCost,
			})
		}
		out.Equipment[domain.NormalizeActivityID(domain.ActivityID(id))] = items
	}
	if err := out.Validate(); err != nil {
		return domain.Catalog{}, fmt.Errorf("catalog: %w", err)
	}
	return out, nil
}

// ServiceConfig maps the configuration into application service settings.
func (c Config) ServiceConfig() (app.ServiceConfig, error) {
	catalog, err := c.Catalog()
	if err != nil {
		return app.ServiceConfig{}, err
	}
	defaultEquipment := make(map[domain.ActivityID]int, len(c.Game.DefaultEquipment))
	for id, index := range c.Game.DefaultEquipment {
		defaultEquipment[domain.NormalizeActivityID(domain.ActivityID(id))] = index
	}
	defaultFleet := make(map[domain.ActivityID]map[string]int, len(c.Game.DefaultFleet))
	for id, counts := range c.Game.DefaultFleet {
		defaultFleet[domain.NormalizeActivityID(domain.ActivityID(id))] = counts
	}
	return app.ServiceConfig{
		Project: app.ProjectParams{
			Name:             c.Project.Name,
			Unit:             c.Project.Unit,
			TotalLength:      c.Project.TotalLength,
			MobilizationDays: c.Project.MobilizationDays,
			MobilizationCost: c.Costs.Mobilization,
			DefaultBuffer:    c.Project.DefaultBuffer,
			IndirectRate:     c.Costs.IndirectRate,
			ProfitRate:       c.Costs.ProfitRate,
		},
		Catalog: catalog,
		Targets: domain.ConstraintTarget{MaxDays: c.Targets.MaxDays, MaxCost: c.Targets.MaxCost},
		Chart: domain.SampleOptions{
			Step:       c.Chart.StepDays,
			MarginDays: c.Chart.MarginDays,
			MinHorizon: c.Chart.MinHorizon,
			MaxHorizon: c.Chart.MaxHorizon,
		},
		Rounds: app.RoundLimits{
			BufferMin:         c.Game.BufferMin,
			BufferMax:         c.Game.BufferMax,
			OptimizeBufferMin: c.Game.OptimizeBufferMin,
			OptimizeBufferMax: c.Game.OptimizeBufferMax,
			MaxDay:            c.Game.MaxDay,
			DefaultEquipment:  defaultEquipment,
			DefaultFleet:      defaultFleet,
		},
	}, nil
}

// EnsureConfigDir creates the parent directory of path.
func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
