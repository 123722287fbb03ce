package assetdb

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type indexAttributes struct {
	FPS              float64 `toml:"fps"`
	FrameStart       int     `toml:"frame_start"`
	FrameEnd         int     `toml:"frame_end"`
	HandleStart      int     `toml:"handle_start"`
	HandleEnd        int     `toml:"handle_end"`
	ResolutionWidth  int     `toml:"resolution_width"`
	ResolutionHeight int     `toml:"resolution_height"`
	PixelAspect      float64 `toml:"pixel_aspect"`
}

type indexTask struct {
	Name     string `toml:"name"`
	TaskType string `toml:"task_type"`
}

type indexFolder struct {
	Path       string          `toml:"path"`
	FolderType string          `toml:"folder_type"`
	Attrib     indexAttributes `toml:"attrib"`
	Tasks      []indexTask     `toml:"tasks"`
}

type indexFile struct {
	Project struct {
		Name   string          `toml:"name"`
		Code   string          `toml:"code"`
		Attrib indexAttributes `toml:"attrib"`
	} `toml:"project"`
	Folders []indexFolder `toml:"folders"`
}

// LoadFile reads a TOML project index into a Memory reader. The format
// mirrors the entity model: a [project] block and [[folders]] entries,
// each with optional [[folders.tasks]].
func LoadFile(path string) (*Memory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project index: %w", err)
	}

	var parsed indexFile
	if err := toml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse project index %s: %w", path, err)
	}
	if parsed.Project.Name == "" {
		return nil, fmt.Errorf("project index %s: project.name is required", path)
	}

	db := NewMemory(Project{
		Name:   parsed.Project.Name,
		Code:   parsed.Project.Code,
		Attrib: attributesFromIndex(parsed.Project.Attrib),
	})
	for _, entry := range parsed.Folders {
		if entry.Path == "" {
			return nil, fmt.Errorf("project index %s: folder without a path", path)
		}
		folder := db.AddFolder(Folder{
			Path:       entry.Path,
			FolderType: entry.FolderType,
			Attrib:     attributesFromIndex(entry.Attrib),
		})
		for _, task := range entry.Tasks {
			db.AddTask(folder.ID, Task{Name: task.Name, TaskType: task.TaskType})
		}
	}
	return db, nil
}

func attributesFromIndex(attrib indexAttributes) Attributes {
	return Attributes{
		FPS:              attrib.FPS,
		FrameStart:       attrib.FrameStart,
		FrameEnd:         attrib.FrameEnd,
		HandleStart:      attrib.HandleStart,
		HandleEnd:        attrib.HandleEnd,
		ResolutionWidth:  attrib.ResolutionWidth,
		ResolutionHeight: attrib.ResolutionHeight,
		PixelAspect:      attrib.PixelAspect,
	}
}
