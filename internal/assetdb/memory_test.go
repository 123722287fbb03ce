package assetdb

import (
	"context"
	"testing"
)

func seededMemory() *Memory {
	m := NewMemory(Project{
		Name:   "demo",
		Code:   "dm",
		Attrib: Attributes{FPS: 24, FrameStart: 1001},
	})
	m.AddFolder(Folder{Path: "/shots", FolderType: "Folder"})
	sh010 := m.AddFolder(Folder{Path: "/shots/sh010", FolderType: "Shot", Attrib: Attributes{FPS: 24}})
	m.AddTask(sh010.ID, Task{Name: "comp", TaskType: "Compositing"})
	m.AddTask(sh010.ID, Task{Name: "edit", TaskType: "Editorial"})
	return m
}

func TestMemoryProjectLookup(t *testing.T) {
	m := seededMemory()
	ctx := context.Background()

	project, err := m.GetProject(ctx, "demo")
	if err != nil || project == nil {
		t.Fatalf("GetProject: %v, %v", project, err)
	}
	if project.Code != "dm" {
		t.Errorf("code = %q", project.Code)
	}

	missing, err := m.GetProject(ctx, "other")
	if err != nil || missing != nil {
		t.Fatalf("unknown project should return nil, nil; got %v, %v", missing, err)
	}
}

func TestMemoryFolderLookup(t *testing.T) {
	m := seededMemory()
	ctx := context.Background()

	folder, err := m.GetFolderByPath(ctx, "demo", "/shots/sh010")
	if err != nil || folder == nil {
		t.Fatalf("GetFolderByPath: %v, %v", folder, err)
	}
	if folder.Name != "sh010" || folder.FolderType != "Shot" {
		t.Errorf("folder = %+v", folder)
	}

	missing, err := m.GetFolderByPath(ctx, "demo", "/shots/sh999")
	if err != nil || missing != nil {
		t.Fatalf("missing folder should return nil, nil; got %v, %v", missing, err)
	}

	if _, err := m.GetFolderByPath(ctx, "other", "/shots"); err == nil {
		t.Fatal("expected error for wrong project")
	}
}

func TestMemoryGetFoldersAll(t *testing.T) {
	m := seededMemory()
	folders, err := m.GetFolders(context.Background(), "demo", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 {
		t.Fatalf("expected 2 folders, got %d", len(folders))
	}
	if folders[0].Path != "/shots" || folders[1].Path != "/shots/sh010" {
		t.Errorf("folders not ordered by path: %v, %v", folders[0].Path, folders[1].Path)
	}
}

func TestMemoryTaskLookup(t *testing.T) {
	m := seededMemory()
	ctx := context.Background()

	folder, _ := m.GetFolderByPath(ctx, "demo", "/shots/sh010")
	task, err := m.GetTaskByName(ctx, "demo", folder.ID, "comp")
	if err != nil || task == nil {
		t.Fatalf("GetTaskByName: %v, %v", task, err)
	}
	if task.TaskType != "Compositing" {
		t.Errorf("task = %+v", task)
	}

	missing, err := m.GetTaskByName(ctx, "demo", folder.ID, "Comp")
	if err != nil || missing != nil {
		t.Fatal("task lookup must be case-sensitive")
	}

	tasks, err := m.GetTasks(ctx, "demo", []string{folder.ID})
	if err != nil || len(tasks) != 2 {
		t.Fatalf("GetTasks: %v, %v", tasks, err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := seededMemory()
	ctx := context.Background()

	folder, _ := m.GetFolderByPath(ctx, "demo", "/shots/sh010")
	folder.FolderType = "Mutated"

	again, _ := m.GetFolderByPath(ctx, "demo", "/shots/sh010")
	if again.FolderType != "Shot" {
		t.Error("lookup returned shared state")
	}
}
