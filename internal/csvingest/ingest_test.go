package csvingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sprocket/internal/config"
	"sprocket/internal/instance"
	"sprocket/internal/media/ffprobe"
	"sprocket/internal/pipeline"
	"sprocket/internal/testsupport"
)

var manifestHeader = []string{
	colFilePath, colFolderPath, colTaskName, colProductType, colVariant,
	colVersion, colFrameStart, colFrameEnd, colHandleStart, colHandleEnd,
	colFPS, colRepre, colRepreColorspace, colRepreTags, colThumbnail,
	colComment, colSlate, colShotWidth, colShotHeight, colShotPixelAspect,
}

type manifestRow map[string]string

// baseRow fills the columns most tests do not care about.
func baseRow(filePath string) manifestRow {
	return manifestRow{
		colFilePath:    filePath,
		colFolderPath:  "/shots/sh010",
		colTaskName:    "comp",
		colProductType: "plate",
		colVariant:     "Main",
		colVersion:     "3",
		colFrameStart:  "1001",
		colFrameEnd:    "1048",
		colHandleStart: "0",
		colHandleEnd:   "0",
		colFPS:         "24",
		colRepre:       "main",
	}
}

func writeManifest(t *testing.T, rows []manifestRow) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString(strings.Join(manifestHeader, ",") + "\n")
	for _, row := range rows {
		cells := make([]string, len(manifestHeader))
		for i, name := range manifestHeader {
			cells[i] = row[name]
		}
		sb.WriteString(strings.Join(cells, ",") + "\n")
	}

	path := filepath.Join(t.TempDir(), "manifest.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func newTestIngestor(t *testing.T, opts ...testsupport.ConfigOption) *Ingestor {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	ing, err := New(cfg, testsupport.SeededAssetDB(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ing
}

func TestIngestGroupsRowsIntoOneProduct(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"sh010_plate_v003.mov"})
	for i := 1001; i <= 1048; i++ {
		testsupport.WriteFile(t, filepath.Join(media, fmt.Sprintf("sh010_plate_v003.%04d.exr", i)))
	}

	seq := baseRow(filepath.Join(media, "sh010_plate_v003.%04d.exr"))
	mov := baseRow(filepath.Join(media, "sh010_plate_v003.mov"))
	mov[colRepre] = "proxy"
	mov[colRepreTags] = "Review; Burnin"
	manifest := writeManifest(t, []manifestRow{seq, mov})

	ing := newTestIngestor(t)
	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("expected one instance, got %d", len(instances))
	}

	inst := instances[0]
	if inst.ProductName != "plateMain" {
		t.Errorf("product name = %q, want plateMain", inst.ProductName)
	}
	if inst.Label != "/shots/sh010_plateMain_v003" {
		t.Errorf("label = %q", inst.Label)
	}
	if inst.Version == nil || *inst.Version != 3 {
		t.Errorf("version = %v, want 3", inst.Version)
	}
	if len(inst.Representations) != 2 {
		t.Fatalf("expected two representations, got %d", len(inst.Representations))
	}

	exr := inst.Representations[0]
	if exr.Ext != "exr" || len(exr.Files) != 48 {
		t.Errorf("sequence repre: ext=%q files=%d", exr.Ext, len(exr.Files))
	}
	if exr.FrameStart == nil || *exr.FrameStart != 1001 || exr.FrameEnd == nil || *exr.FrameEnd != 1048 {
		t.Errorf("sequence frame range = %v..%v", exr.FrameStart, exr.FrameEnd)
	}

	proxy := inst.Representations[1]
	wantTags := []string{"review", "burnin"}
	if len(proxy.Tags) != len(wantTags) {
		t.Fatalf("proxy tags = %v", proxy.Tags)
	}
	for i, tag := range wantTags {
		if proxy.Tags[i] != tag {
			t.Errorf("proxy tag %d = %q, want %q", i, proxy.Tags[i], tag)
		}
	}
	if !hasFamily(inst, "review") {
		t.Errorf("review tag should add the review family, families = %v", inst.Families)
	}
	if inst.FrameStart != 1001 || inst.FrameEnd != 1048 || inst.FPS != 24 {
		t.Errorf("frame data = %d..%d @%v", inst.FrameStart, inst.FrameEnd, inst.FPS)
	}
}

func TestIngestDistinctVersionsAreDistinctProducts(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov", "b.mov"})

	v3 := baseRow(filepath.Join(media, "a.mov"))
	v4 := baseRow(filepath.Join(media, "b.mov"))
	v4[colVersion] = "4"
	manifest := writeManifest(t, []manifestRow{v3, v4})

	ing := newTestIngestor(t)
	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("expected two instances, got %d", len(instances))
	}
}

func TestIngestIsDeterministic(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov", "b.mov", "c.mov"})

	rows := []manifestRow{
		baseRow(filepath.Join(media, "a.mov")),
		baseRow(filepath.Join(media, "b.mov")),
		baseRow(filepath.Join(media, "c.mov")),
	}
	rows[1][colVariant] = "Bg"
	rows[2][colFolderPath] = "/shots/sh020"
	manifest := writeManifest(t, []manifestRow{rows[0], rows[1], rows[2]})

	ing := newTestIngestor(t)
	var runs [][]string
	for i := 0; i < 2; i++ {
		instances, err := ing.Ingest(context.Background(), "demo", manifest)
		if err != nil {
			t.Fatalf("Ingest run %d: %v", i, err)
		}
		var keys []string
		for _, inst := range instances {
			keys = append(keys, inst.FolderPath+"/"+inst.ProductName)
		}
		runs = append(runs, keys)
	}
	if strings.Join(runs[0], "|") != strings.Join(runs[1], "|") {
		t.Errorf("instance order differs between runs: %v vs %v", runs[0], runs[1])
	}
	if runs[0][0] != "/shots/sh010/plateMain" {
		t.Errorf("first instance = %q, want manifest row order preserved", runs[0][0])
	}
}

func TestIngestRejectsDuplicateFiles(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	row := baseRow(filepath.Join(media, "a.mov"))
	dup := baseRow(filepath.Join(media, "a.mov"))
	dup[colRepre] = "proxy"
	manifest := writeManifest(t, []manifestRow{row, dup})

	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), "demo", manifest)
	if !errors.Is(err, pipeline.ErrDuplicateFile) {
		t.Fatalf("expected ErrDuplicateFile, got %v", err)
	}
}

func TestIngestRejectsMissingFile(t *testing.T) {
	manifest := writeManifest(t, []manifestRow{baseRow("/nonexistent/a.mov")})

	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), "demo", manifest)
	if !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIngestRejectsMissingTask(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	row := baseRow(filepath.Join(media, "a.mov"))
	row[colTaskName] = "lighting"
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), "demo", manifest)
	if !errors.Is(err, pipeline.ErrMissingEntity) {
		t.Fatalf("expected ErrMissingEntity, got %v", err)
	}
}

func TestIngestMissingFolderRequiresCreation(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	row := baseRow(filepath.Join(media, "a.mov"))
	row[colFolderPath] = "/shots/sc020/sh030"
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t)
	if _, err := ing.Ingest(context.Background(), "demo", manifest); !errors.Is(err, pipeline.ErrMissingEntity) {
		t.Fatalf("creation disabled: expected ErrMissingEntity, got %v", err)
	}

	ing = newTestIngestor(t, testsupport.WithFolderCreation(true))
	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("creation enabled: %v", err)
	}
	inst := instances[0]
	if !inst.NewHierarchyIntegration {
		t.Fatal("expected promised hierarchy")
	}
	// shots exists, sc020 and sh030 are new.
	want := []struct{ path, folderType string }{
		{"/shots", "Folder"},
		{"/shots/sc020", "Sequence"},
		{"/shots/sc020/sh030", "Shot"},
	}
	if len(inst.ParentChain) != len(want) {
		t.Fatalf("parent chain = %+v", inst.ParentChain)
	}
	for i, parent := range want {
		if inst.ParentChain[i].Path != parent.path || inst.ParentChain[i].FolderType != parent.folderType {
			t.Errorf("chain[%d] = %+v, want %+v", i, inst.ParentChain[i], parent)
		}
	}
	if !inst.ParentChain[0].Exists {
		t.Error("existing /shots parent should be marked as such")
	}
	if inst.FolderAttributes == nil || inst.FolderAttributes.FrameStart == nil || *inst.FolderAttributes.FrameStart != 1001 {
		t.Errorf("folder attributes = %+v", inst.FolderAttributes)
	}
}

func TestIngestPromisesTaskWithHierarchy(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	row := baseRow(filepath.Join(media, "a.mov"))
	row[colFolderPath] = "/shots/sc020/sh030"
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t, testsupport.WithFolderCreation(true))
	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	inst := instances[0]
	if len(inst.PromisedTasks) != 1 {
		t.Fatalf("promised tasks = %+v, want one", inst.PromisedTasks)
	}
	// "comp" matches the ^comp rule.
	if inst.PromisedTasks[0].Name != "comp" || inst.PromisedTasks[0].TaskType != "Compositing" {
		t.Errorf("promised task = %+v", inst.PromisedTasks[0])
	}
}

func TestIngestPromisesResolutionOnlyWhenComplete(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov", "b.mov"})

	partial := baseRow(filepath.Join(media, "a.mov"))
	partial[colFolderPath] = "/shots/sc020/sh030"
	partial[colShotWidth] = "1920"
	manifest := writeManifest(t, []manifestRow{partial})

	ing := newTestIngestor(t, testsupport.WithFolderCreation(true))
	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	attrs := instances[0].FolderAttributes
	if attrs == nil {
		t.Fatal("expected folder attributes")
	}
	if attrs.ResolutionWidth != nil || attrs.ResolutionHeight != nil {
		t.Errorf("one-sided resolution must be dropped, got %v x %v",
			attrs.ResolutionWidth, attrs.ResolutionHeight)
	}

	full := baseRow(filepath.Join(media, "b.mov"))
	full[colFolderPath] = "/shots/sc020/sh040"
	full[colShotWidth] = "1920"
	full[colShotHeight] = "1080"
	manifest = writeManifest(t, []manifestRow{full})

	instances, err = ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	attrs = instances[0].FolderAttributes
	if attrs.ResolutionWidth == nil || *attrs.ResolutionWidth != 1920 ||
		attrs.ResolutionHeight == nil || *attrs.ResolutionHeight != 1080 {
		t.Errorf("complete resolution should be promised, got %v x %v",
			attrs.ResolutionWidth, attrs.ResolutionHeight)
	}
}

func TestIngestThumbnails(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov", "b.mov", "a_thumb.jpg", "b_thumb.jpg"})

	t.Run("single thumbnail", func(t *testing.T) {
		row := baseRow(filepath.Join(media, "a.mov"))
		row[colThumbnail] = filepath.Join(media, "a_thumb.jpg")
		manifest := writeManifest(t, []manifestRow{row})

		ing := newTestIngestor(t)
		instances, err := ing.Ingest(context.Background(), "demo", manifest)
		if err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		inst := instances[0]
		thumb := inst.Representations[len(inst.Representations)-1]
		if thumb.Name != "thumbnail" || thumb.OutputName != "" {
			t.Errorf("thumbnail repre = %+v", thumb)
		}
		if len(thumb.Tags) != 2 || thumb.Tags[0] != "thumbnail" || thumb.Tags[1] != "delete" {
			t.Errorf("thumbnail tags = %v", thumb.Tags)
		}
		if inst.ThumbnailPath != filepath.Join(media, "a_thumb.jpg") {
			t.Errorf("thumbnail path = %q", inst.ThumbnailPath)
		}
	})

	t.Run("multiple thumbnails get qualified names", func(t *testing.T) {
		first := baseRow(filepath.Join(media, "a.mov"))
		first[colThumbnail] = filepath.Join(media, "a_thumb.jpg")
		second := baseRow(filepath.Join(media, "b.mov"))
		second[colRepre] = "proxy"
		second[colThumbnail] = filepath.Join(media, "b_thumb.jpg")
		manifest := writeManifest(t, []manifestRow{first, second})

		ing := newTestIngestor(t)
		instances, err := ing.Ingest(context.Background(), "demo", manifest)
		if err != nil {
			t.Fatalf("Ingest: %v", err)
		}
		inst := instances[0]
		var names []string
		for _, repre := range inst.Representations {
			if strings.HasPrefix(repre.Name, "thumbnail") {
				names = append(names, repre.Name)
			}
		}
		if len(names) != 2 || names[0] != "thumbnail_a_thumb" || names[1] != "thumbnail_b_thumb" {
			t.Errorf("thumbnail names = %v", names)
		}
	})
}

func TestIngestRejectsDisallowedExtension(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.exr"})

	row := baseRow(filepath.Join(media, "a.exr"))
	row[colRepre] = "proxy" // proxy allows only .mov and .mp4
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), "demo", manifest)
	if !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestIngestEmptyVersionYieldsNextLabel(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	row := baseRow(filepath.Join(media, "a.mov"))
	row[colVersion] = ""
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t)
	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	inst := instances[0]
	if inst.Version != nil {
		t.Errorf("version = %v, want nil", *inst.Version)
	}
	if inst.Label != "/shots/sh010_plateMain_v[next]" {
		t.Errorf("label = %q", inst.Label)
	}
}

func TestIngestSlateAddsFamily(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	row := baseRow(filepath.Join(media, "a.mov"))
	row[colSlate] = "true"
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t)
	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !hasFamily(instances[0], "slate") {
		t.Errorf("families = %v, want slate", instances[0].Families)
	}
}

func TestIngestProbesVideoForMissingFrameData(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	relaxFrameColumns := func(cfg *config.Config) {
		for i := range cfg.CSV.Columns {
			switch cfg.CSV.Columns[i].Name {
			case colFrameStart, colFrameEnd, colFPS:
				cfg.CSV.Columns[i].Required = false
			}
		}
	}
	row := baseRow(filepath.Join(media, "a.mov"))
	row[colFrameStart] = ""
	row[colFrameEnd] = ""
	row[colFPS] = ""
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t, relaxFrameColumns)
	probed := 0
	ing.Probe = func(ctx context.Context, path string) (ffprobe.Result, error) {
		probed++
		return ffprobe.Result{Streams: []ffprobe.Stream{{
			CodecType:  "video",
			RFrameRate: "24/1",
			NBFrames:   "48",
		}}}, nil
	}

	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if probed != 1 {
		t.Fatalf("probe called %d times", probed)
	}
	inst := instances[0]
	if inst.FPS != 24 {
		t.Errorf("fps = %v, want probed 24", inst.FPS)
	}
	// Folder attributes supply the start; the container supplies length.
	if inst.FrameStart != 1001 || inst.FrameEnd != 1048 {
		t.Errorf("frame range = %d..%d, want 1001..1048", inst.FrameStart, inst.FrameEnd)
	}
	if repre := instances[0].Representations[0]; repre.FPS == nil || *repre.FPS != 24 {
		t.Errorf("representation fps = %v", repre.FPS)
	}
}

func TestIngestContextDefaultsFillEmptyCells(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	relaxContextColumns := func(cfg *config.Config) {
		for i := range cfg.CSV.Columns {
			switch cfg.CSV.Columns[i].Name {
			case colFolderPath, colTaskName:
				cfg.CSV.Columns[i].Required = false
			}
		}
	}
	row := baseRow(filepath.Join(media, "a.mov"))
	row[colFolderPath] = ""
	row[colTaskName] = ""
	manifest := writeManifest(t, []manifestRow{row})

	ing := newTestIngestor(t, relaxContextColumns)
	ing.DefaultFolderPath = "/shots/sh010"
	ing.DefaultTaskName = "comp"

	instances, err := ing.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	inst := instances[0]
	if inst.FolderPath != "/shots/sh010" {
		t.Errorf("folder = %q", inst.FolderPath)
	}
	if inst.Task != "comp" {
		t.Errorf("task = %q", inst.Task)
	}
}

func TestIngestIgnoreValidatorsSkipsPatterns(t *testing.T) {
	media := t.TempDir()
	testsupport.WriteTree(t, media, []string{"a.mov"})

	restrictVariant := func(cfg *config.Config) {
		for i := range cfg.CSV.Columns {
			if cfg.CSV.Columns[i].Name == colVariant {
				cfg.CSV.Columns[i].ValidationPattern = `^[a-z]+$`
			}
		}
	}
	row := baseRow(filepath.Join(media, "a.mov"))
	manifest := writeManifest(t, []manifestRow{row})

	strict := newTestIngestor(t, restrictVariant)
	if _, err := strict.Ingest(context.Background(), "demo", manifest); !errors.Is(err, pipeline.ErrValidation) {
		t.Fatalf("expected ErrValidation for pattern mismatch, got %v", err)
	}

	lenient := newTestIngestor(t, restrictVariant)
	lenient.IgnoreValidators = true
	instances, err := lenient.Ingest(context.Background(), "demo", manifest)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if instances[0].ProductName != "plateMain" {
		t.Errorf("product name = %q", instances[0].ProductName)
	}
}

func TestIngestRejectsUnknownHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	if err := os.WriteFile(path, []byte("File Path,Folder Path\n/a,/b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ing := newTestIngestor(t)
	_, err := ing.Ingest(context.Background(), "demo", path)
	if !errors.Is(err, pipeline.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func hasFamily(inst *instance.Instance, family string) bool {
	for _, f := range inst.Families {
		if f == family {
			return true
		}
	}
	return false
}
