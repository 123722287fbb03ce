// Package assetdb is a narrow read view of the external asset database.
// Instance derivation only ever looks entities up; creating folders and
// tasks is the job of the downstream publish pipeline, which receives the
// promised hierarchy on the instances themselves.
package assetdb

import "context"

// Attributes is the attrib block shared by projects and folders. Zero
// values mean the attribute is unset on the entity.
type Attributes struct {
	FPS              float64
	FrameStart       int
	FrameEnd         int
	HandleStart      int
	HandleEnd        int
	ResolutionWidth  int
	ResolutionHeight int
	PixelAspect      float64
}

// Project is the root entity of one production.
type Project struct {
	Name   string
	Code   string
	Attrib Attributes
}

// Folder is one node of the project hierarchy, addressed by its full path.
type Folder struct {
	ID         string
	Name       string
	Path       string
	FolderType string
	Attrib     Attributes
}

// Task belongs to a folder.
type Task struct {
	ID       string
	FolderID string
	Name     string
	TaskType string
}

// Reader is the lookup surface ingest needs. Lookups that find nothing
// return a nil entity and a nil error; errors are reserved for transport
// or database failures.
type Reader interface {
	GetProject(ctx context.Context, name string) (*Project, error)
	GetFolderByPath(ctx context.Context, project, path string) (*Folder, error)
	GetFolders(ctx context.Context, project string, paths []string) ([]*Folder, error)
	GetTaskByName(ctx context.Context, project, folderID, name string) (*Task, error)
	GetTasks(ctx context.Context, project string, folderIDs []string) ([]*Task, error)
}
