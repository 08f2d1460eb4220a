package stage

import (
	"embed"
	"fmt"
	"path/filepath"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/fs"
)

// Placeholder names available to the stage prompts.
const (
	VarUserInput        = "user_input"
	VarMaterialNames    = "material_names"
	VarMaterialList     = "material_list"
	VarStyleDescription = "style_description"
	VarModuleNames      = "module_names"
	VarFurniture        = "furniture"
	VarLayout           = "layout"
	VarConnections      = "connections"
	VarStructureExample = "structure_example"
	VarStructureJSON    = "structure_json"
	VarCodeExample      = "code_example"
)

// Vars lists the placeholders each stage's prompt may use.
var Vars = map[blueprint.StageID][]string{
	blueprint.StageStyle:       {VarUserInput, VarMaterialNames},
	blueprint.StageModules:     {VarStyleDescription},
	blueprint.StageFurniture:   {VarStyleDescription, VarModuleNames, VarMaterialList},
	blueprint.StageLayout:      {VarStyleDescription, VarModuleNames},
	blueprint.StageConnections: {VarLayout},
	blueprint.StageStructureJSON: {
		VarStyleDescription, VarModuleNames, VarLayout, VarConnections,
		VarFurniture, VarStructureExample, VarMaterialNames,
	},
	blueprint.StageCode: {VarLayout, VarStructureJSON, VarCodeExample},
}

// Templates holds one prompt per stage.
type Templates map[blueprint.StageID]Template

// Check verifies that every stage has a prompt and that each prompt only
// uses the placeholders available to its stage.
func (t Templates) Check() error {
	for _, id := range blueprint.StageOrder {
		tmpl, ok := t[id]
		if !ok || tmpl == "" {
			return fmt.Errorf("stage: no prompt for %s: %w", id, blueprint.ErrValidation)
		}
		if err := tmpl.Check(Vars[id]...); err != nil {
			return fmt.Errorf("stage: %s prompt: %w", id, err)
		}
	}
	return nil
}

// FileName is the prompt file of a stage inside a prompts directory.
func FileName(id blueprint.StageID) string {
	return string(id) + ".txt"
}

// LoadTemplates reads one prompt file per stage from dir and checks them.
func LoadTemplates(dir string) (Templates, error) {
	t := make(Templates, len(blueprint.StageOrder))
	for _, id := range blueprint.StageOrder {
		text, err := fs.LoadText(filepath.Join(dir, FileName(id)))
		if err != nil {
			return nil, err
		}
		t[id] = Template(text)
	}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

//go:embed prompts/*.txt
var prompts embed.FS

// DefaultTemplates returns the built-in prompts.
func DefaultTemplates() Templates {
	t := make(Templates, len(blueprint.StageOrder))
	for _, id := range blueprint.StageOrder {
		data, err := prompts.ReadFile("prompts/" + FileName(id))
		if err != nil {
			panic(fmt.Sprintf("stage: missing built-in prompt for %s", id))
		}
		t[id] = Template(data)
	}
	return t
}
