// Package stage implements the seven generation stages as prompt-and-call
// steps against a blueprint.Provider.
package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/goldmark"
)

// Sampling temperatures. Descriptive stages are creative, structural
// stages are strict, and code generation stays close to strict.
const (
	CreativeTemperature = 0.9
	StrictTemperature   = 0.0
	CodeTemperature     = 0.1
)

// Temperature returns the sampling temperature used for a stage.
func Temperature(id blueprint.StageID) float64 {
	switch id {
	case blueprint.StageStyle, blueprint.StageModules, blueprint.StageFurniture:
		return CreativeTemperature
	case blueprint.StageCode:
		return CodeTemperature
	default:
		return StrictTemperature
	}
}

// Chain builds stage functions that render a prompt from upstream artifacts
// and send it to Provider.
type Chain struct {
	Provider         blueprint.Provider
	Model            string
	Templates        Templates
	StructureExample string
	CodeExample      string
	MaxTokens        int

	// Code receives the program extracted from the code stage's output.
	Code blueprint.CodeWriter
}

// Stages returns the seven stage functions.
func (c *Chain) Stages() blueprint.Stages {
	return blueprint.Stages{
		Style:         c.style,
		Modules:       c.prompt(blueprint.StageModules),
		Furniture:     c.prompt(blueprint.StageFurniture),
		Layout:        c.prompt(blueprint.StageLayout),
		Connections:   c.prompt(blueprint.StageConnections),
		StructureJSON: c.prompt(blueprint.StageStructureJSON),
		Code:          SaveCode(c.prompt(blueprint.StageCode), c.Code),
	}
}

// vars maps the artifacts onto placeholder values.
func (c *Chain) vars(a blueprint.Artifacts) map[string]string {
	return map[string]string{
		VarUserInput:        a.UserInput,
		VarMaterialNames:    a.MaterialList,
		VarMaterialList:     a.MaterialList,
		VarStyleDescription: a.Style,
		VarModuleNames:      a.Modules,
		VarFurniture:        a.Furniture,
		VarLayout:           a.Layout,
		VarConnections:      a.Connections,
		VarStructureExample: c.StructureExample,
		VarStructureJSON:    a.StructureJSON,
		VarCodeExample:      c.CodeExample,
	}
}

func (c *Chain) render(id blueprint.StageID, a blueprint.Artifacts) (string, error) {
	tmpl, ok := c.Templates[id]
	if !ok {
		return "", fmt.Errorf("stage: no prompt for %s: %w", id, blueprint.ErrValidation)
	}
	return tmpl.Render(c.vars(a))
}

func (c *Chain) request(id blueprint.StageID, content []blueprint.ContentBlock) blueprint.Request {
	temp := Temperature(id)
	return blueprint.Request{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: &temp,
		Messages: []blueprint.Message{
			blueprint.UserMessage{Content: content, Timestamp: time.Now()},
		},
	}
}

func (c *Chain) prompt(id blueprint.StageID) blueprint.StageFunc {
	return func(ctx context.Context, a blueprint.Artifacts) (blueprint.Output, error) {
		text, err := c.render(id, a)
		if err != nil {
			return nil, err
		}
		req := c.request(id, []blueprint.ContentBlock{blueprint.TextBlock{Text: text}})
		return blueprint.Collect(ctx, c.Provider, req)
	}
}

// style sends the rendered prompt and, when present, the reference image in
// one message so the model conditions on both.
func (c *Chain) style(ctx context.Context, a blueprint.Artifacts) (blueprint.Output, error) {
	text, err := c.render(blueprint.StageStyle, a)
	if err != nil {
		return nil, err
	}
	content := []blueprint.ContentBlock{blueprint.TextBlock{Text: text}}
	if a.Image != nil {
		content = append(content, blueprint.ImageBlock{Data: a.Image.Data, MimeType: a.Image.MimeType})
	}
	return blueprint.Collect(ctx, c.Provider, c.request(blueprint.StageStyle, content))
}

// SaveCode wraps a code-generating stage. The first fenced block of its
// output, or the whole output when there is none, is written to w. Output
// without code fails with blueprint.ErrEmptyCode and nothing is written.
// The stage's raw output is passed through for the run log.
func SaveCode(fn blueprint.StageFunc, w blueprint.CodeWriter) blueprint.StageFunc {
	return func(ctx context.Context, a blueprint.Artifacts) (blueprint.Output, error) {
		out, err := fn(ctx, a)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, fmt.Errorf("stage: code: %w", blueprint.ErrEmptyCode)
		}
		code, err := goldmark.ExtractCode(out.Text())
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, fmt.Errorf("stage: code: no destination: %w", blueprint.ErrValidation)
		}
		if err := w.WriteCode(code); err != nil {
			return nil, err
		}
		return out, nil
	}
}
