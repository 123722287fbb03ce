// Package instance defines the creation instances the ingest paths emit
// and the ordered registry they accumulate in. Instances are the contract
// with the downstream publish pipeline; their JSON shape is load-bearing.
package instance

import (
	"fmt"

	"github.com/google/uuid"

	"sprocket/internal/pipeline"
)

// Representation is one deliverable file set under a product.
type Representation struct {
	Name       string   `json:"name"`
	Ext        string   `json:"ext"`
	Files      []string `json:"files"`
	StagingDir string   `json:"stagingDir"`
	Tags       []string `json:"tags,omitempty"`
	OutputName string   `json:"outputName,omitempty"`
	Colorspace string   `json:"colorspace,omitempty"`
	FrameStart *int     `json:"frameStart,omitempty"`
	FrameEnd   *int     `json:"frameEnd,omitempty"`
	FPS        *float64 `json:"fps,omitempty"`
}

// PromisedFolder is one ancestor of a folder path that may not exist yet.
// The downstream pipeline creates missing ones in chain order.
type PromisedFolder struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	FolderType string `json:"folderType"`
	Exists     bool   `json:"exists"`
}

// PromisedTask is a task created together with a promised folder.
type PromisedTask struct {
	Name     string `json:"name"`
	TaskType string `json:"taskType"`
}

// FolderAttributes are attribute values promised onto a folder the
// downstream pipeline creates or updates for this instance.
type FolderAttributes struct {
	FrameStart       *int     `json:"frameStart,omitempty"`
	FrameEnd         *int     `json:"frameEnd,omitempty"`
	HandleStart      *int     `json:"handleStart,omitempty"`
	HandleEnd        *int     `json:"handleEnd,omitempty"`
	FPS              *float64 `json:"fps,omitempty"`
	ResolutionWidth  *int     `json:"resolutionWidth,omitempty"`
	ResolutionHeight *int     `json:"resolutionHeight,omitempty"`
	PixelAspect      *float64 `json:"pixelAspect,omitempty"`
}

// CreatorAttributes carries per-instance knobs the publish UI exposes.
type CreatorAttributes struct {
	ParentInstance  string   `json:"parentInstance,omitempty"`
	AddReviewFamily *bool    `json:"addReviewFamily,omitempty"`
	FrameStart      *int     `json:"frameStart,omitempty"`
	FrameEnd        *int     `json:"frameEnd,omitempty"`
	ClipIn          *int     `json:"clipIn,omitempty"`
	ClipOut         *int     `json:"clipOut,omitempty"`
	ClipDuration    *int     `json:"clipDuration,omitempty"`
	SourceIn        *int     `json:"sourceIn,omitempty"`
	SourceOut       *int     `json:"sourceOut,omitempty"`
	WorkfileStart   *int     `json:"workfileStart,omitempty"`
	FPS             *float64 `json:"fps,omitempty"`
}

// Instance is one creation instance handed to the publish pipeline.
type Instance struct {
	ID          string `json:"id"`
	ProductType string `json:"productType"`
	ProductName string `json:"productName"`
	Variant     string `json:"variant"`
	FolderPath  string `json:"folderPath"`
	Task        string `json:"task,omitempty"`
	Label       string `json:"label,omitempty"`

	Families        []string         `json:"families,omitempty"`
	Representations []Representation `json:"representations"`

	FrameStart  int     `json:"frameStart"`
	FrameEnd    int     `json:"frameEnd"`
	HandleStart int     `json:"handleStart"`
	HandleEnd   int     `json:"handleEnd"`
	FPS         float64 `json:"fps,omitempty"`

	Version       *int   `json:"version,omitempty"`
	Comment       string `json:"comment,omitempty"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`

	ParentInstanceID        string            `json:"parentInstanceId,omitempty"`
	NewHierarchyIntegration bool              `json:"newHierarchyIntegration,omitempty"`
	ParentChain             []PromisedFolder  `json:"parentChain,omitempty"`
	PromisedTasks           []PromisedTask    `json:"promisedTasks,omitempty"`
	FolderAttributes        *FolderAttributes `json:"folderAttributes,omitempty"`

	Creator CreatorAttributes `json:"creatorAttributes"`
}

// New builds an instance with a fresh id. Product type, product name, and
// folder path are the identity of an instance and must be present.
func New(productType, productName, variant, folderPath, task string) (*Instance, error) {
	if productType == "" {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "instance", "new", "empty product type", nil)
	}
	if productName == "" {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "instance", "new", "empty product name", nil)
	}
	if folderPath == "" {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "instance", "new", fmt.Sprintf("product %q has no folder path", productName), nil)
	}
	return &Instance{
		ID:          uuid.NewString(),
		ProductType: productType,
		ProductName: productName,
		Variant:     variant,
		FolderPath:  folderPath,
		Task:        task,
	}, nil
}

// AddFamily appends a family once.
func (i *Instance) AddFamily(family string) {
	for _, existing := range i.Families {
		if existing == family {
			return
		}
	}
	i.Families = append(i.Families, family)
}
