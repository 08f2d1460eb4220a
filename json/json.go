// Package json persists run reports as versioned JSON envelopes.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/blueprint"
)

// version is the current envelope format.
const version = 1

// envelope is the v1 wire format for a persisted run report.
type envelope struct {
	Version   int        `json:"version"`
	RunID     string     `json:"run_id"`
	Model     string     `json:"model"`
	Pricing   pricingDTO `json:"pricing"`
	StartedAt time.Time  `json:"started_at"`
	Elapsed   float64    `json:"elapsed_seconds"`
	Steps     []stepDTO  `json:"steps"`
	Totals    totalsDTO  `json:"totals"`
	Error     string     `json:"error,omitempty"`
}

type pricingDTO struct {
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`
}

type stepDTO struct {
	Stage        string  `json:"stage"`
	Name         string  `json:"name"`
	Duration     float64 `json:"duration_seconds"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

type totalsDTO struct {
	Duration     float64 `json:"duration_seconds"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

// MarshalReport serializes a Report to JSON in v1 envelope format.
func MarshalReport(r blueprint.Report) ([]byte, error) {
	env := envelope{
		Version: version,
		RunID:   r.RunID,
		Model:   r.Model,
		Pricing: pricingDTO{
			InputPerMillion:  r.Pricing.InputPerMillion,
			OutputPerMillion: r.Pricing.OutputPerMillion,
		},
		StartedAt: r.StartedAt,
		Elapsed:   r.Elapsed.Seconds(),
		Steps:     make([]stepDTO, len(r.Steps)),
		Totals: totalsDTO{
			Duration:     r.Totals.Duration.Seconds(),
			InputTokens:  r.Totals.InputTokens,
			OutputTokens: r.Totals.OutputTokens,
			TotalTokens:  r.Totals.TotalTokens,
			Cost:         r.Totals.Cost,
		},
		Error: r.Err,
	}
	for i, s := range r.Steps {
		env.Steps[i] = stepDTO{
			Stage:        string(s.Stage),
			Name:         s.Name,
			Duration:     s.Duration.Seconds(),
			InputTokens:  s.InputTokens,
			OutputTokens: s.OutputTokens,
			TotalTokens:  s.TotalTokens,
			Cost:         s.Cost,
		}
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalReport deserializes a Report from JSON in v1 envelope format.
// Durations are restored at the precision JSON floats carry.
func UnmarshalReport(data []byte) (blueprint.Report, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return blueprint.Report{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != version {
		return blueprint.Report{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	steps := make([]blueprint.Step, len(env.Steps))
	for i, dto := range env.Steps {
		steps[i] = blueprint.Step{
			Stage:        blueprint.StageID(dto.Stage),
			Name:         dto.Name,
			Duration:     seconds(dto.Duration),
			InputTokens:  dto.InputTokens,
			OutputTokens: dto.OutputTokens,
			TotalTokens:  dto.TotalTokens,
			Cost:         dto.Cost,
		}
	}
	return blueprint.Report{
		RunID: env.RunID,
		Model: env.Model,
		Pricing: blueprint.Pricing{
			InputPerMillion:  env.Pricing.InputPerMillion,
			OutputPerMillion: env.Pricing.OutputPerMillion,
		},
		StartedAt: env.StartedAt,
		Elapsed:   seconds(env.Elapsed),
		Steps:     steps,
		Totals: blueprint.Totals{
			Duration:     seconds(env.Totals.Duration),
			InputTokens:  env.Totals.InputTokens,
			OutputTokens: env.Totals.OutputTokens,
			TotalTokens:  env.Totals.TotalTokens,
			Cost:         env.Totals.Cost,
		},
		Err: env.Error,
	}, nil
}

// Save writes a Report to a JSON file, creating parent directories as needed.
// The file is replaced atomically.
func Save(path string, r blueprint.Report) error {
	data, err := MarshalReport(r)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Report from a JSON file.
func Load(path string) (blueprint.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return blueprint.Report{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalReport(data)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
