package naming

import (
	"context"
	"errors"
	"testing"

	"sprocket/internal/assetdb"
	"sprocket/internal/config"
	"sprocket/internal/pipeline"
)

func TestProductName(t *testing.T) {
	cases := []struct {
		productType string
		variant     string
		want        string
	}{
		{"plate", "main", "plateMain"},
		{"plate", "Main", "plateMain"},
		{"render", "hero wide", "renderHeroWide"},
		{"audio", "", "audio"},
	}
	for _, c := range cases {
		if got := ProductName(c.productType, c.variant); got != c.want {
			t.Errorf("ProductName(%q, %q) = %q, want %q", c.productType, c.variant, got, c.want)
		}
	}
}

func TestVariantFromProductName(t *testing.T) {
	cases := []struct {
		productName string
		productType string
		want        string
	}{
		{"plateMain", "plate", "main"},
		{"renderHero", "render", "hero"},
		{"plate", "plate", "main"},
		{"somethingelse", "plate", "main"},
	}
	for _, c := range cases {
		if got := VariantFromProductName(c.productName, c.productType); got != c.want {
			t.Errorf("VariantFromProductName(%q, %q) = %q, want %q", c.productName, c.productType, got, c.want)
		}
	}
}

func TestTypeFromRules(t *testing.T) {
	rules := []config.TypeRegexRule{
		{Regex: `^sc\d+`, Type: "Sequence"},
		{Regex: `^sh\d+`, Type: "Shot"},
	}
	if got := TypeFromRules("sc010", rules, "Folder"); got != "Sequence" {
		t.Errorf("sc010 = %q", got)
	}
	if got := TypeFromRules("sh020", rules, "Folder"); got != "Shot" {
		t.Errorf("sh020 = %q", got)
	}
	if got := TypeFromRules("assets", rules, "Folder"); got != "Folder" {
		t.Errorf("fallback = %q", got)
	}
}

func TestTaskTypeFor(t *testing.T) {
	rules := []config.TypeRegexRule{
		{Regex: `comp`, Type: "Compositing"},
		{Regex: `edit`, Type: "Editorial"},
	}
	if got := TaskTypeFor("compositing", rules, "Generic"); got != "Compositing" {
		t.Errorf("compositing = %q", got)
	}
	// Rules anchor at the start of the task name.
	if got := TaskTypeFor("precomp", rules, "Generic"); got != "Generic" {
		t.Errorf("precomp = %q", got)
	}
	if got := TaskTypeFor("lighting", rules, "Generic"); got != "Generic" {
		t.Errorf("fallback = %q", got)
	}
}

func TestResolveVersion(t *testing.T) {
	files := []string{"sh010_plate_v003.mov", "sh010_plate_v012.mov", "notes.txt"}

	if v, err := ResolveVersion("incremental", 0, files); err != nil || v != nil {
		t.Errorf("incremental = %v, %v", v, err)
	}

	v, err := ResolveVersion("from_file", 0, files)
	if err != nil || v == nil || *v != 12 {
		t.Errorf("from_file = %v, %v", v, err)
	}

	if v, err := ResolveVersion("from_file", 0, []string{"plain.mov"}); err != nil || v != nil {
		t.Errorf("from_file without tokens = %v, %v", v, err)
	}

	v, err = ResolveVersion("locked", 7, files)
	if err != nil || v == nil || *v != 7 {
		t.Errorf("locked = %v, %v", v, err)
	}

	if _, err := ResolveVersion("locked", 0, nil); err == nil {
		t.Error("locked without version should fail")
	}
	if _, err := ResolveVersion("bogus", 0, nil); err == nil {
		t.Error("unknown versioning type should fail")
	}
}

func TestVersionFromFilesTokenWidth(t *testing.T) {
	// Single-digit tokens are not versions; 2 to 4 digits are.
	if v := VersionFromFiles([]string{"clip_v1.mov"}); v != nil {
		t.Errorf("v1 = %v, want nil", *v)
	}
	if v := VersionFromFiles([]string{"clip_v0100.mov"}); v == nil || *v != 100 {
		t.Errorf("v0100 = %v, want 100", v)
	}
}

func TestRenderTemplate(t *testing.T) {
	namespace := map[string]string{
		"project[code]": "dm",
		"_sequence_":    "sc010",
		"_shot_":        "sh010",
	}
	got, err := RenderTemplate("{project[code]}_{_sequence_}_{_shot_}", namespace)
	if err != nil {
		t.Fatal(err)
	}
	if got != "dm_sc010_sh010" {
		t.Errorf("rendered = %q", got)
	}

	if _, err := RenderTemplate("{unknown}", namespace); err == nil {
		t.Error("expected error for unknown key")
	}
}

func testEditorialConfig() config.Editorial {
	return config.Editorial{
		ClipNameTokenizer: []config.TokenizerRule{
			{Name: "_sequence_", Regex: `(sc\d{3})`},
			{Name: "_shot_", Regex: `(sh\d{3})`},
		},
		ShotRename: config.ShotRename{
			Enabled:  true,
			Template: "{project[code]}_{_sequence_}_{_shot_}",
		},
		ShotHierarchy: config.ShotHierarchy{
			Enabled:     true,
			ParentsPath: "{project}/{folder}/{sequence}",
			Parents: []config.HierarchyParent{
				{ParentType: "Project", Name: "project", Value: "{project[name]}"},
				{ParentType: "Folder", Name: "folder", Value: "shots"},
				{ParentType: "Sequence", Name: "sequence", Value: "{_sequence_}"},
			},
		},
		ShotAddTasks: []config.ShotTask{{Name: "comp", TaskType: "Compositing"}},
	}
}

func TestShotSolverSolve(t *testing.T) {
	solver, err := NewShotSolver(testEditorialConfig(), &assetdb.Project{Name: "demo", Code: "dm"})
	if err != nil {
		t.Fatal(err)
	}

	resolution, err := solver.Solve("sc010_sh010_plate.mov")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if resolution.ShotName != "dm_sc010_sh010" {
		t.Errorf("shot name = %q", resolution.ShotName)
	}
	if resolution.Tokens["_sequence_"] != "sc010" || resolution.Tokens["_shot_"] != "sh010" {
		t.Errorf("tokens = %v", resolution.Tokens)
	}
	if len(resolution.Parents) != 3 {
		t.Fatalf("parents = %+v", resolution.Parents)
	}
	if resolution.Parents[2].Name != "sc010" || resolution.Parents[2].FolderType != "Sequence" {
		t.Errorf("sequence parent = %+v", resolution.Parents[2])
	}
	if got := resolution.FolderPath(""); got != "/shots/sc010/dm_sc010_sh010" {
		t.Errorf("folder path = %q", got)
	}
	if len(resolution.Tasks) != 1 || resolution.Tasks[0].Name != "comp" {
		t.Errorf("tasks = %+v", resolution.Tasks)
	}
}

func TestShotSolverMissingToken(t *testing.T) {
	solver, err := NewShotSolver(testEditorialConfig(), &assetdb.Project{Name: "demo", Code: "dm"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := solver.Solve("unmatched_clip.mov"); err == nil {
		t.Fatal("expected error when rename template tokens are missing")
	}
}

func TestShotSolverRenameDisabled(t *testing.T) {
	cfg := testEditorialConfig()
	cfg.ShotRename.Enabled = false
	cfg.ShotHierarchy.Enabled = false

	solver, err := NewShotSolver(cfg, &assetdb.Project{Name: "demo", Code: "dm"})
	if err != nil {
		t.Fatal(err)
	}
	resolution, err := solver.Solve("sc010_sh010_plate.mov")
	if err != nil {
		t.Fatal(err)
	}
	if resolution.ShotName != "sc010_sh010_plate" {
		t.Errorf("shot name = %q, want the extension-stripped clip name", resolution.ShotName)
	}
	if got := resolution.FolderPath("/edit"); got != "/edit/sc010_sh010_plate" {
		t.Errorf("folder path = %q", got)
	}
}

func TestComputeParentChain(t *testing.T) {
	db := assetdb.NewMemory(assetdb.Project{Name: "demo"})
	db.AddFolder(assetdb.Folder{Path: "/shots", FolderType: "Library"})

	rules := []config.TypeRegexRule{{Regex: `^sc\d+`, Type: "Sequence"}}
	chain, err := ComputeParentChain(context.Background(), db, "demo", "/shots/sc010/sh010", rules, "Folder")
	if err != nil {
		t.Fatal(err)
	}
	if len(chain) != 2 {
		t.Fatalf("chain = %+v", chain)
	}
	// Existing folders keep their stored type.
	if !chain[0].Exists || chain[0].FolderType != "Library" {
		t.Errorf("existing parent = %+v", chain[0])
	}
	if chain[1].Exists || chain[1].FolderType != "Sequence" {
		t.Errorf("inferred parent = %+v", chain[1])
	}

	empty, err := ComputeParentChain(context.Background(), db, "demo", "/toplevel", rules, "Folder")
	if err != nil || empty != nil {
		t.Errorf("top-level path should have no parents: %v, %v", empty, err)
	}
}

func TestComputeParentChainWrongProject(t *testing.T) {
	db := assetdb.NewMemory(assetdb.Project{Name: "demo"})
	_, err := ComputeParentChain(context.Background(), db, "other", "/a/b", nil, "Folder")
	if !errors.Is(err, pipeline.ErrMissingEntity) {
		t.Fatalf("expected missing entity error, got %v", err)
	}
}
