package stage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Render(t *testing.T) {
	t.Parallel()

	t.Run("substitutes placeholders", func(t *testing.T) {
		t.Parallel()
		got, err := stage.Template("Style: {style_description}\nModules: {module_names}").
			Render(map[string]string{"style_description": "modern", "module_names": "A,B"})
		require.NoError(t, err)
		assert.Equal(t, "Style: modern\nModules: A,B", got)
	})

	t.Run("repeated placeholder", func(t *testing.T) {
		t.Parallel()
		got, err := stage.Template("{layout} / {layout}").Render(map[string]string{"layout": "grid"})
		require.NoError(t, err)
		assert.Equal(t, "grid / grid", got)
	})

	t.Run("escaped braces", func(t *testing.T) {
		t.Parallel()
		got, err := stage.Template(`{{"rooms": [{layout}]}}`).Render(map[string]string{"layout": `"A"`})
		require.NoError(t, err)
		assert.Equal(t, `{"rooms": ["A"]}`, got)
	})

	t.Run("values are not rescanned", func(t *testing.T) {
		t.Parallel()
		got, err := stage.Template("{structure_example}").
			Render(map[string]string{"structure_example": `{"a": {"b": 1}}`})
		require.NoError(t, err)
		assert.Equal(t, `{"a": {"b": 1}}`, got)
	})

	t.Run("missing value", func(t *testing.T) {
		t.Parallel()
		_, err := stage.Template("{nope}").Render(nil)
		assert.ErrorIs(t, err, blueprint.ErrValidation)
		assert.Contains(t, err.Error(), "{nope}")
	})

	t.Run("malformed braces", func(t *testing.T) {
		t.Parallel()
		for _, tmpl := range []stage.Template{"open {layout", "close }", "{}", `{"a": 1}`} {
			_, err := tmpl.Render(map[string]string{"layout": "x"})
			assert.ErrorIs(t, err, blueprint.ErrValidation, "template %q", tmpl)
		}
	})
}

func TestTemplate_Placeholders(t *testing.T) {
	t.Parallel()
	got, err := stage.Template("{a} {b} {{c}} {a}").Placeholders()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestTemplate_Check(t *testing.T) {
	t.Parallel()
	assert.NoError(t, stage.Template("{layout}").Check("layout", "connections"))
	assert.ErrorIs(t, stage.Template("{furniture}").Check("layout"), blueprint.ErrValidation)
}

func TestDefaultTemplates(t *testing.T) {
	t.Parallel()
	tmpls := stage.DefaultTemplates()
	require.NoError(t, tmpls.Check())
	for _, id := range blueprint.StageOrder {
		names, err := tmpls[id].Placeholders()
		require.NoError(t, err)
		assert.ElementsMatch(t, stage.Vars[id], names, "stage %s", id)
	}
}

func TestTemplates_Check(t *testing.T) {
	t.Parallel()

	t.Run("missing stage", func(t *testing.T) {
		t.Parallel()
		tmpls := stage.DefaultTemplates()
		delete(tmpls, blueprint.StageConnections)
		err := tmpls.Check()
		assert.ErrorIs(t, err, blueprint.ErrValidation)
		assert.Contains(t, err.Error(), "connections")
	})

	t.Run("layout cannot see furniture", func(t *testing.T) {
		t.Parallel()
		tmpls := stage.DefaultTemplates()
		tmpls[blueprint.StageLayout] = "{style_description} {furniture}"
		assert.ErrorIs(t, tmpls.Check(), blueprint.ErrValidation)
	})
}

func TestLoadTemplates(t *testing.T) {
	t.Parallel()

	t.Run("reads one file per stage", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		for id, tmpl := range stage.DefaultTemplates() {
			require.NoError(t, os.WriteFile(filepath.Join(dir, stage.FileName(id)), []byte(tmpl), 0o644))
		}
		got, err := stage.LoadTemplates(dir)
		require.NoError(t, err)
		assert.Len(t, got, len(blueprint.StageOrder))
	})

	t.Run("missing file names the path", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := stage.LoadTemplates(dir)
		require.ErrorIs(t, err, os.ErrNotExist)
		assert.Contains(t, err.Error(), filepath.Join(dir, "style.txt"))
	})
}
