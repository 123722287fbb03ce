package testsupport

import (
	"testing"

	"sprocket/internal/assetdb"
)

// SeededAssetDB builds an in-memory asset index with a small demo project:
// /shots/sh010 and /shots/sh020, each carrying comp and edit tasks.
func SeededAssetDB(t testing.TB) *assetdb.Memory {
	t.Helper()

	db := assetdb.NewMemory(assetdb.Project{
		Name: "demo",
		Code: "dm",
		Attrib: assetdb.Attributes{
			FPS:         24,
			FrameStart:  1001,
			HandleStart: 0,
			HandleEnd:   0,
		},
	})
	db.AddFolder(assetdb.Folder{Path: "/shots", FolderType: "Folder"})
	for _, shot := range []string{"sh010", "sh020"} {
		folder := db.AddFolder(assetdb.Folder{
			Path:       "/shots/" + shot,
			FolderType: "Shot",
			Attrib:     assetdb.Attributes{FPS: 24, FrameStart: 1001},
		})
		db.AddTask(folder.ID, assetdb.Task{Name: "comp", TaskType: "Compositing"})
		db.AddTask(folder.ID, assetdb.Task{Name: "edit", TaskType: "Editorial"})
	}
	return db
}
