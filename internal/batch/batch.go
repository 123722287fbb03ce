// Package batch derives creation instances from loose files on disk:
// texture sets dropped in a folder and finished movie files whose names
// identify the shot they belong to.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"sprocket/internal/assetdb"
	"sprocket/internal/config"
	"sprocket/internal/fileutil"
	"sprocket/internal/instance"
	"sprocket/internal/logging"
	"sprocket/internal/naming"
	"sprocket/internal/pipeline"
	"sprocket/internal/sequence"
)

// versionedName splits "sh010_comp_v003" into its base name and version.
var versionedName = regexp.MustCompile(`^(.+)_v([0-9]+)$`)

// Builder derives instances from file batches.
type Builder struct {
	cfg *config.Config
	db  assetdb.Reader
	log *slog.Logger
}

func New(cfg *config.Config, db assetdb.Reader, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{cfg: cfg, db: db, log: logging.NewComponentLogger(logger, "batch")}
}

// BuildTextures turns the texture files under dir into one instance per
// detected set. UDIM tiles and frame sequences group into a collection;
// loose files publish one by one. The variant comes from the file names,
// optionally with the common prefix and suffix of the whole batch
// stripped.
func (b *Builder) BuildTextures(ctx context.Context, project, folderPath, task, dir string) ([]*instance.Instance, error) {
	folder, err := b.resolveFolder(ctx, project, folderPath)
	if err != nil {
		return nil, err
	}
	if err := b.checkTask(ctx, project, folder, task); err != nil {
		return nil, err
	}

	names, err := fileutil.ListFileNames(dir)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "batch", "textures", dir, err)
	}
	var textures []string
	for _, name := range names {
		if hasExtension(name, b.cfg.Batch.TextureExtensions) {
			textures = append(textures, name)
		}
	}
	if len(textures) == 0 {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "batch", "textures",
			fmt.Sprintf("no texture files under %s", dir), nil)
	}

	variants := textureVariants(textures, b.cfg.Batch.StripCommonAffix)

	collections, remainder := sequence.Assemble(textures, 2)
	registry := instance.NewRegistry()
	for i := range collections {
		collection := &collections[i]
		variant := variantFromText(strings.Trim(collection.Head, "._ "))
		inst, err := b.textureInstance(folderPath, task, variant, dir, collection.FileNames())
		if err != nil {
			return nil, err
		}
		if collection.IsUDIM() {
			inst.AddFamily("udim")
		} else {
			start, end := collection.FrameStart(), collection.FrameEnd()
			inst.Representations[0].FrameStart = &start
			inst.Representations[0].FrameEnd = &end
		}
		if err := registry.Add(inst); err != nil {
			return nil, err
		}
	}
	for _, name := range remainder {
		inst, err := b.textureInstance(folderPath, task, variants[name], dir, []string{name})
		if err != nil {
			return nil, err
		}
		if err := registry.Add(inst); err != nil {
			return nil, err
		}
	}
	b.log.Info("texture batch built",
		logging.Int("collections", len(collections)),
		logging.Int("singles", len(remainder)))
	return registry.List(), nil
}

// BuildMovies publishes each movie file under dir as a review product of
// the folder entity its file name points at.
func (b *Builder) BuildMovies(ctx context.Context, project, dir string) ([]*instance.Instance, error) {
	names, err := fileutil.ListFileNames(dir)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "batch", "movies", dir, err)
	}

	folders, err := b.db.GetFolders(ctx, project, nil)
	if err != nil {
		return nil, err
	}

	registry := instance.NewRegistry()
	matched := 0
	for _, name := range names {
		if !hasExtension(name, b.cfg.Batch.MovieExtensions) {
			continue
		}
		inst, err := b.movieInstance(ctx, project, dir, name, folders)
		if err != nil {
			return nil, err
		}
		matched++
		if err := registry.Add(inst); err != nil {
			return nil, err
		}
	}
	if matched == 0 {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "batch", "movies",
			fmt.Sprintf("no movie files under %s", dir), nil)
	}
	return registry.List(), nil
}

func (b *Builder) textureInstance(folderPath, task, variant, dir string, files []string) (*instance.Instance, error) {
	if variant == "" {
		variant = "Main"
	}
	productName := naming.ProductName("texture", variant)
	inst, err := instance.New("texture", productName, variant, folderPath, task)
	if err != nil {
		return nil, err
	}
	inst.Label = folderPath + " " + productName
	inst.Version = naming.VersionFromFiles(files)
	inst.Representations = []instance.Representation{{
		Name:       strings.TrimPrefix(filepath.Ext(files[0]), "."),
		Ext:        strings.TrimPrefix(filepath.Ext(files[0]), "."),
		Files:      files,
		StagingDir: dir,
	}}
	return inst, nil
}

func (b *Builder) movieInstance(ctx context.Context, project, dir, name string, folders []*assetdb.Folder) (*instance.Instance, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	baseName := stem
	var version *int
	if m := versionedName.FindStringSubmatch(stem); m != nil {
		baseName = m[1]
		if v := naming.VersionFromFiles([]string{stem}); v != nil {
			version = v
		}
	}

	folder := matchMovieFolder(folders, stem, baseName)
	if folder == nil {
		return nil, pipeline.Wrap(pipeline.ErrMissingEntity, "batch", "movies",
			fmt.Sprintf("no folder entity matches %q", name), nil)
	}

	taskName, err := b.defaultTask(ctx, project, folder)
	if err != nil {
		return nil, err
	}

	variant := variantFromText(baseName)
	productName := naming.ProductName("render", variant)
	inst, err := instance.New("render", productName, variant, folder.Path, taskName)
	if err != nil {
		return nil, err
	}
	inst.Label = folder.Path + " " + productName
	inst.Version = version
	inst.AddFamily("review")
	reviewable := true
	inst.Creator.AddReviewFamily = &reviewable
	inst.Representations = []instance.Representation{{
		Name:       strings.TrimPrefix(filepath.Ext(name), "."),
		Ext:        strings.TrimPrefix(filepath.Ext(name), "."),
		Files:      []string{name},
		StagingDir: dir,
		Tags:       []string{"review"},
	}}
	if folder.Attrib.FPS > 0 {
		inst.FPS = folder.Attrib.FPS
	}
	return inst, nil
}

// matchMovieFolder finds the folder entity a movie file belongs to. Exact
// stem equality wins, then equality after stripping the version token,
// then the first folder whose name the stem contains.
func matchMovieFolder(folders []*assetdb.Folder, stem, baseName string) *assetdb.Folder {
	for _, folder := range folders {
		if folder.Name == stem {
			return folder
		}
	}
	for _, folder := range folders {
		if folder.Name == baseName {
			return folder
		}
	}
	for _, folder := range folders {
		if folder.Name != "" && strings.Contains(stem, folder.Name) {
			return folder
		}
	}
	return nil
}

// defaultTask picks the first configured default task the folder actually
// carries, case-insensitively. "Undefined" stands in when none match.
func (b *Builder) defaultTask(ctx context.Context, project string, folder *assetdb.Folder) (string, error) {
	tasks, err := b.db.GetTasks(ctx, project, []string{folder.ID})
	if err != nil {
		return "", err
	}
	for _, candidate := range b.cfg.Batch.DefaultTasks {
		for _, task := range tasks {
			if strings.EqualFold(task.Name, candidate) {
				return task.Name, nil
			}
		}
	}
	return "Undefined", nil
}

func (b *Builder) resolveFolder(ctx context.Context, project, folderPath string) (*assetdb.Folder, error) {
	folder, err := b.db.GetFolderByPath(ctx, project, folderPath)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, pipeline.Wrap(pipeline.ErrMissingEntity, "batch", "folder", folderPath, nil)
	}
	return folder, nil
}

func (b *Builder) checkTask(ctx context.Context, project string, folder *assetdb.Folder, task string) error {
	if task == "" {
		return nil
	}
	found, err := b.db.GetTaskByName(ctx, project, folder.ID, task)
	if err != nil {
		return err
	}
	if found == nil {
		return pipeline.Wrap(pipeline.ErrMissingEntity, "batch", "task",
			fmt.Sprintf("task %q does not exist under %s", task, folder.Path), nil)
	}
	return nil
}

// textureVariants derives a variant per loose file, stripping the batch's
// common prefix and suffix when configured.
func textureVariants(names []string, stripAffix bool) map[string]string {
	variants := make(map[string]string, len(names))
	if stripAffix && len(names) > 1 {
		for name, diff := range sequence.StringDifferences(names) {
			variants[name] = variantFromText(diff)
		}
		return variants
	}
	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		variants[name] = variantFromText(stem)
	}
	return variants
}

func variantFromText(text string) string {
	return strings.Trim(strings.ReplaceAll(text, ".", "_"), "._ ")
}

func hasExtension(name string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range allowed {
		if strings.ToLower(candidate) == ext {
			return true
		}
	}
	return false
}
