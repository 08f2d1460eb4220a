package blueprint

import (
	"context"
	"fmt"
)

// StageID identifies one of the seven generation stages.
type StageID string

const (
	StageStyle         StageID = "style"
	StageModules       StageID = "modules"
	StageFurniture     StageID = "furniture"
	StageLayout        StageID = "layout"
	StageConnections   StageID = "connections"
	StageStructureJSON StageID = "structure_json"
	StageCode          StageID = "code"
)

// StageOrder is the declared pipeline order. Step logs always follow it.
var StageOrder = []StageID{
	StageStyle,
	StageModules,
	StageFurniture,
	StageLayout,
	StageConnections,
	StageStructureJSON,
	StageCode,
}

// StageInfo is the fixed metadata of a stage.
type StageInfo struct {
	ID    StageID
	Name  string        // step log name
	Label string        // heading of the stage's block in the run log
	Needs []ArtifactKey // upstream artifacts that must be non-empty
	Yield ArtifactKey   // artifact the stage's content is stored under
}

var stageInfo = map[StageID]StageInfo{
	StageStyle: {
		ID:    StageStyle,
		Name:  "Style Generation",
		Label: "\nBuilding Style:",
		Needs: []ArtifactKey{ArtifactMaterialList},
		Yield: ArtifactStyle,
	},
	StageModules: {
		ID:    StageModules,
		Name:  "Module Definition",
		Label: "\n\nModule Name:",
		Needs: []ArtifactKey{ArtifactStyle},
		Yield: ArtifactModules,
	},
	StageFurniture: {
		ID:    StageFurniture,
		Name:  "Furniture Gen",
		Label: "\n\nModule Furniture:",
		Needs: []ArtifactKey{ArtifactStyle, ArtifactModules, ArtifactMaterialList},
		Yield: ArtifactFurniture,
	},
	StageLayout: {
		ID:    StageLayout,
		Name:  "Layout Gen",
		Label: "\n\nModule Layout:",
		Needs: []ArtifactKey{ArtifactStyle, ArtifactModules},
		Yield: ArtifactLayout,
	},
	StageConnections: {
		ID:    StageConnections,
		Name:  "Connection Logic",
		Label: "\n\nModule Connections:",
		Needs: []ArtifactKey{ArtifactLayout},
		Yield: ArtifactConnections,
	},
	StageStructureJSON: {
		ID:    StageStructureJSON,
		Name:  "JSON Construction",
		Label: "\n\nStructure Layout(JSON):",
		Needs: []ArtifactKey{
			ArtifactStyle, ArtifactModules, ArtifactLayout,
			ArtifactConnections, ArtifactFurniture, ArtifactMaterialList,
		},
		Yield: ArtifactStructureJSON,
	},
	StageCode: {
		ID:    StageCode,
		Name:  "Code Writing",
		Label: "\n\nCode Generation:",
		Needs: []ArtifactKey{ArtifactLayout, ArtifactStructureJSON},
		Yield: ArtifactCode,
	},
}

// Info returns the metadata of id. Unknown IDs return a zero StageInfo
// whose Name is the raw ID.
func (id StageID) Info() StageInfo {
	if info, ok := stageInfo[id]; ok {
		return info
	}
	return StageInfo{ID: id, Name: string(id)}
}

// StageFunc produces one stage's output from upstream artifacts. Artifacts
// are passed by value; a stage cannot mutate the driver's copy.
type StageFunc func(ctx context.Context, a Artifacts) (Output, error)

// Stages holds one function per stage.
type Stages struct {
	Style         StageFunc
	Modules       StageFunc
	Furniture     StageFunc
	Layout        StageFunc
	Connections   StageFunc
	StructureJSON StageFunc
	Code          StageFunc
}

// Func returns the function registered for id, or nil.
func (s Stages) Func(id StageID) StageFunc {
	switch id {
	case StageStyle:
		return s.Style
	case StageModules:
		return s.Modules
	case StageFurniture:
		return s.Furniture
	case StageLayout:
		return s.Layout
	case StageConnections:
		return s.Connections
	case StageStructureJSON:
		return s.StructureJSON
	case StageCode:
		return s.Code
	}
	return nil
}

// Validate reports the first stage without a function.
func (s Stages) Validate() error {
	for _, id := range StageOrder {
		if s.Func(id) == nil {
			return fmt.Errorf("stage %s has no function: %w", id, ErrValidation)
		}
	}
	return nil
}

// Image is an optional reference image for the style stage.
type Image struct {
	Path     string
	Data     []byte
	MimeType string
}

// Input is what a run starts from.
type Input struct {
	Prompt       string
	MaterialList string
	Image        *Image
}

// Validate requires a material list and at least one of prompt or image.
func (in Input) Validate() error {
	if in.MaterialList == "" {
		return fmt.Errorf("material list is empty: %w", ErrValidation)
	}
	if in.Prompt == "" && in.Image == nil {
		return fmt.Errorf("either a prompt or an image is required: %w", ErrValidation)
	}
	if in.Image != nil && len(in.Image.Data) == 0 {
		return fmt.Errorf("image %q has no data: %w", in.Image.Path, ErrValidation)
	}
	return nil
}
