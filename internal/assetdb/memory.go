package assetdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Memory is an in-process Reader backed by maps. It serves tests and
// offline runs where the real asset service is unreachable.
type Memory struct {
	project Project
	folders map[string]*Folder
	tasks   map[string][]*Task
}

// NewMemory builds an empty index for one project.
func NewMemory(project Project) *Memory {
	return &Memory{
		project: project,
		folders: make(map[string]*Folder),
		tasks:   make(map[string][]*Task),
	}
}

// AddFolder indexes a folder by path and returns it with an id assigned.
func (m *Memory) AddFolder(folder Folder) *Folder {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	if folder.Name == "" {
		parts := strings.Split(strings.Trim(folder.Path, "/"), "/")
		folder.Name = parts[len(parts)-1]
	}
	stored := folder
	m.folders[folder.Path] = &stored
	return &stored
}

// AddTask attaches a task to an existing folder.
func (m *Memory) AddTask(folderID string, task Task) *Task {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.FolderID = folderID
	stored := task
	m.tasks[folderID] = append(m.tasks[folderID], &stored)
	return &stored
}

func (m *Memory) GetProject(ctx context.Context, name string) (*Project, error) {
	if name != m.project.Name {
		return nil, nil
	}
	project := m.project
	return &project, nil
}

func (m *Memory) GetFolderByPath(ctx context.Context, project, path string) (*Folder, error) {
	if err := m.checkProject(project); err != nil {
		return nil, err
	}
	folder, ok := m.folders[path]
	if !ok {
		return nil, nil
	}
	copied := *folder
	return &copied, nil
}

// GetFolders returns folders matching paths. A nil paths slice returns
// every folder of the project, ordered by path.
func (m *Memory) GetFolders(ctx context.Context, project string, paths []string) ([]*Folder, error) {
	if err := m.checkProject(project); err != nil {
		return nil, err
	}
	var result []*Folder
	if paths == nil {
		for _, folder := range m.folders {
			copied := *folder
			result = append(result, &copied)
		}
		sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
		return result, nil
	}
	for _, path := range paths {
		if folder, ok := m.folders[path]; ok {
			copied := *folder
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *Memory) GetTaskByName(ctx context.Context, project, folderID, name string) (*Task, error) {
	if err := m.checkProject(project); err != nil {
		return nil, err
	}
	for _, task := range m.tasks[folderID] {
		if task.Name == name {
			copied := *task
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *Memory) GetTasks(ctx context.Context, project string, folderIDs []string) ([]*Task, error) {
	if err := m.checkProject(project); err != nil {
		return nil, err
	}
	var result []*Task
	for _, folderID := range folderIDs {
		for _, task := range m.tasks[folderID] {
			copied := *task
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *Memory) checkProject(project string) error {
	if project != m.project.Name {
		return fmt.Errorf("unknown project %q", project)
	}
	return nil
}

var _ Reader = (*Memory)(nil)
