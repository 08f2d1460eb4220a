package blueprint

import "strings"

// ArtifactKey names one field of Artifacts.
type ArtifactKey string

const (
	ArtifactUserInput     ArtifactKey = "user_input"
	ArtifactMaterialList  ArtifactKey = "material_list"
	ArtifactStyle         ArtifactKey = "style"
	ArtifactModules       ArtifactKey = "modules"
	ArtifactFurniture     ArtifactKey = "furniture"
	ArtifactLayout        ArtifactKey = "layout"
	ArtifactConnections   ArtifactKey = "connections"
	ArtifactStructureJSON ArtifactKey = "structure_json"
	ArtifactCode          ArtifactKey = "code"
)

// Artifacts is the accumulating set of upstream outputs threaded through a
// run. It is built incrementally by the driver and discarded afterwards.
type Artifacts struct {
	UserInput     string
	MaterialList  string
	Image         *Image
	Style         string
	Modules       string
	Furniture     string
	Layout        string
	Connections   string
	StructureJSON string
	Code          string
}

// NewArtifacts seeds Artifacts from a run input.
func NewArtifacts(in Input) Artifacts {
	return Artifacts{
		UserInput:    in.Prompt,
		MaterialList: in.MaterialList,
		Image:        in.Image,
	}
}

// Get returns the value stored under key.
func (a Artifacts) Get(key ArtifactKey) string {
	switch key {
	case ArtifactUserInput:
		return a.UserInput
	case ArtifactMaterialList:
		return a.MaterialList
	case ArtifactStyle:
		return a.Style
	case ArtifactModules:
		return a.Modules
	case ArtifactFurniture:
		return a.Furniture
	case ArtifactLayout:
		return a.Layout
	case ArtifactConnections:
		return a.Connections
	case ArtifactStructureJSON:
		return a.StructureJSON
	case ArtifactCode:
		return a.Code
	}
	return ""
}

// With returns a copy of a with key set to value.
func (a Artifacts) With(key ArtifactKey, value string) Artifacts {
	switch key {
	case ArtifactUserInput:
		a.UserInput = value
	case ArtifactMaterialList:
		a.MaterialList = value
	case ArtifactStyle:
		a.Style = value
	case ArtifactModules:
		a.Modules = value
	case ArtifactFurniture:
		a.Furniture = value
	case ArtifactLayout:
		a.Layout = value
	case ArtifactConnections:
		a.Connections = value
	case ArtifactStructureJSON:
		a.StructureJSON = value
	case ArtifactCode:
		a.Code = value
	}
	return a
}

// Missing returns the keys whose values are empty or whitespace only.
func (a Artifacts) Missing(keys ...ArtifactKey) []ArtifactKey {
	var missing []ArtifactKey
	for _, k := range keys {
		if strings.TrimSpace(a.Get(k)) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}
