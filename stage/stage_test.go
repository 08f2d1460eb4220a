package stage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/mock"
	"github.com/fwojciec/blueprint/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingProvider answers every request with text and keeps the requests.
type recordingProvider struct {
	mu       sync.Mutex
	requests []blueprint.Request
	text     string
	usage    blueprint.Usage
}

func (p *recordingProvider) Stream(ctx context.Context, req blueprint.Request) (blueprint.Stream, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	return mock.TextProvider(p.text, p.usage).Stream(ctx, req)
}

func (p *recordingProvider) last(t *testing.T) blueprint.Request {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.requests)
	return p.requests[len(p.requests)-1]
}

func promptText(t *testing.T, req blueprint.Request) string {
	t.Helper()
	require.Len(t, req.Messages, 1)
	msg, ok := req.Messages[0].(blueprint.UserMessage)
	require.True(t, ok)
	require.NotEmpty(t, msg.Content)
	tb, ok := msg.Content[0].(blueprint.TextBlock)
	require.True(t, ok)
	return tb.Text
}

func testTemplates() stage.Templates {
	return stage.Templates{
		blueprint.StageStyle:         "style {user_input} using {material_names}",
		blueprint.StageModules:       "modules of {style_description}",
		blueprint.StageFurniture:     "furnish {module_names} in {style_description} with {material_list}",
		blueprint.StageLayout:        "arrange {module_names} in {style_description}",
		blueprint.StageConnections:   "connect {layout}",
		blueprint.StageStructureJSON: "json {style_description}|{module_names}|{layout}|{connections}|{furniture}|{material_names}|{structure_example}",
		blueprint.StageCode:          "code {layout} {structure_json} like {code_example}",
	}
}

func fullArtifacts() blueprint.Artifacts {
	return blueprint.Artifacts{
		UserInput:     "lake house",
		MaterialList:  "OAK,GLASS",
		Style:         "modern",
		Modules:       "A,B",
		Furniture:     "chairs",
		Layout:        "grid",
		Connections:   "A-B",
		StructureJSON: `{"rooms":["A","B"]}`,
	}
}

func TestChain_Stages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id         blueprint.StageID
		wantPrompt string
		wantTemp   float64
	}{
		{blueprint.StageStyle, "style lake house using OAK,GLASS", 0.9},
		{blueprint.StageModules, "modules of modern", 0.9},
		{blueprint.StageFurniture, "furnish A,B in modern with OAK,GLASS", 0.9},
		{blueprint.StageLayout, "arrange A,B in modern", 0.0},
		{blueprint.StageConnections, "connect grid", 0.0},
		{blueprint.StageStructureJSON, `json modern|A,B|grid|A-B|chairs|OAK,GLASS|{"rooms":[]}`, 0.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			t.Parallel()
			p := &recordingProvider{text: "answer", usage: blueprint.Usage{InputTokens: 10, OutputTokens: 2}}
			c := &stage.Chain{
				Provider:         p,
				Model:            "gemini-2.5-pro",
				Templates:        testTemplates(),
				StructureExample: `{"rooms":[]}`,
			}
			out, err := c.Stages().Func(tt.id)(context.Background(), fullArtifacts())
			require.NoError(t, err)

			res := blueprint.NewStageResult(out)
			assert.Equal(t, "answer", res.Content)
			assert.Equal(t, blueprint.Usage{InputTokens: 10, OutputTokens: 2}, res.Usage)
			assert.True(t, res.UsageReported)

			req := p.last(t)
			assert.Equal(t, "gemini-2.5-pro", req.Model)
			require.NotNil(t, req.Temperature)
			assert.InDelta(t, tt.wantTemp, *req.Temperature, 1e-9)
			assert.Equal(t, tt.wantPrompt, promptText(t, req))
		})
	}
}

func TestChain_StyleAttachesImageToSameMessage(t *testing.T) {
	t.Parallel()
	p := &recordingProvider{text: "brick cottage"}
	c := &stage.Chain{Provider: p, Templates: testTemplates()}
	a := fullArtifacts()
	a.Image = &blueprint.Image{Path: "ref.png", Data: []byte{1, 2, 3}, MimeType: "image/png"}

	_, err := c.Stages().Style(context.Background(), a)
	require.NoError(t, err)

	p.mu.Lock()
	defer p.mu.Unlock()
	require.Len(t, p.requests, 1)
	req := p.requests[0]
	require.Len(t, req.Messages, 1)
	msg := req.Messages[0].(blueprint.UserMessage)
	require.Len(t, msg.Content, 2)
	assert.Equal(t, blueprint.TextBlock{Text: "style lake house using OAK,GLASS"}, msg.Content[0])
	assert.Equal(t, blueprint.ImageBlock{Data: []byte{1, 2, 3}, MimeType: "image/png"}, msg.Content[1])
}

func TestChain_ProviderErrorPropagates(t *testing.T) {
	t.Parallel()
	wantErr := errors.New("503 unavailable")
	c := &stage.Chain{
		Provider: &mock.Provider{
			StreamFn: func(context.Context, blueprint.Request) (blueprint.Stream, error) {
				return nil, wantErr
			},
		},
		Templates: testTemplates(),
	}
	_, err := c.Stages().Connections(context.Background(), fullArtifacts())
	assert.ErrorIs(t, err, wantErr)
}

func TestChain_MissingTemplate(t *testing.T) {
	t.Parallel()
	c := &stage.Chain{Provider: &mock.Provider{}, Templates: stage.Templates{}}
	_, err := c.Stages().Modules(context.Background(), fullArtifacts())
	assert.ErrorIs(t, err, blueprint.ErrValidation)
}

func TestChain_CodeStage(t *testing.T) {
	t.Parallel()

	t.Run("writes extracted code and returns raw output", func(t *testing.T) {
		t.Parallel()
		raw := "Here you go:\n\n```python\nprint('house')\n```\n"
		var written []string
		c := &stage.Chain{
			Provider:    &recordingProvider{text: raw, usage: blueprint.Usage{InputTokens: 5, OutputTokens: 7}},
			Templates:   testTemplates(),
			CodeExample: "mc.setBlock()",
			Code: &mock.CodeWriter{WriteCodeFn: func(code string) error {
				written = append(written, code)
				return nil
			}},
		}
		out, err := c.Stages().Code(context.Background(), fullArtifacts())
		require.NoError(t, err)
		assert.Equal(t, []string{"print('house')"}, written)
		res := blueprint.NewStageResult(out)
		assert.Equal(t, raw, res.Content)
		assert.Equal(t, 7, res.Usage.OutputTokens)
	})

	t.Run("code prompt and temperature", func(t *testing.T) {
		t.Parallel()
		p := &recordingProvider{text: "x = 1"}
		c := &stage.Chain{
			Provider:    p,
			Templates:   testTemplates(),
			CodeExample: "mc.setBlock()",
			Code:        &mock.CodeWriter{WriteCodeFn: func(string) error { return nil }},
		}
		_, err := c.Stages().Code(context.Background(), fullArtifacts())
		require.NoError(t, err)
		req := p.last(t)
		assert.InDelta(t, 0.1, *req.Temperature, 1e-9)
		assert.Equal(t, `code grid {"rooms":["A","B"]} like mc.setBlock()`, promptText(t, req))
	})

	t.Run("empty code is not written", func(t *testing.T) {
		t.Parallel()
		c := &stage.Chain{
			Provider:  &recordingProvider{text: "```python\n\n```"},
			Templates: testTemplates(),
			Code: &mock.CodeWriter{WriteCodeFn: func(string) error {
				t.Fatal("WriteCode should not be called")
				return nil
			}},
		}
		_, err := c.Stages().Code(context.Background(), fullArtifacts())
		assert.ErrorIs(t, err, blueprint.ErrEmptyCode)
	})

	t.Run("writer failure", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("disk full")
		c := &stage.Chain{
			Provider:  &recordingProvider{text: "x = 1"},
			Templates: testTemplates(),
			Code:      &mock.CodeWriter{WriteCodeFn: func(string) error { return wantErr }},
		}
		_, err := c.Stages().Code(context.Background(), fullArtifacts())
		assert.ErrorIs(t, err, wantErr)
	})
}

func TestSaveCode_BareText(t *testing.T) {
	t.Parallel()
	var got string
	fn := stage.SaveCode(func(context.Context, blueprint.Artifacts) (blueprint.Output, error) {
		return blueprint.Text("```\nbuild()\n```"), nil
	}, blueprint.CodeWriterFunc(func(code string) error {
		got = code
		return nil
	}))
	out, err := fn(context.Background(), blueprint.Artifacts{})
	require.NoError(t, err)
	assert.Equal(t, "build()", got)
	assert.Equal(t, blueprint.Text("```\nbuild()\n```"), out)
}

func TestTemperature(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.9, stage.Temperature(blueprint.StageStyle), 1e-9)
	assert.InDelta(t, 0.0, stage.Temperature(blueprint.StageStructureJSON), 1e-9)
	assert.InDelta(t, 0.1, stage.Temperature(blueprint.StageCode), 1e-9)
}
