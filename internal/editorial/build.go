package editorial

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"sprocket/internal/assetdb"
	"sprocket/internal/config"
	"sprocket/internal/instance"
	"sprocket/internal/logging"
	"sprocket/internal/naming"
	"sprocket/internal/pipeline"
	"sprocket/internal/sequence"
	"sprocket/internal/timeline"
)

// Options tune one editorial build.
type Options struct {
	// FolderPath hosts the source editorial instance and, when shot
	// hierarchy resolution is disabled, the shots themselves.
	FolderPath string
	// FPS is the frame-rate hint. EDL input requires it; XML input
	// carries its own rate and ignores it.
	FPS            float64
	TimelineOffset int
	// WorkfileStartFrame pins frameStart of every clip when set.
	WorkfileStartFrame *int
	// IgnoreClipNoContent skips clips whose media folder holds nothing
	// instead of emitting a bare shot instance.
	IgnoreClipNoContent bool
}

// Builder derives instances from timeline documents.
type Builder struct {
	cfg *config.Config
	db  assetdb.Reader
	log *slog.Logger
}

func New(cfg *config.Config, db assetdb.Reader, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{cfg: cfg, db: db, log: logging.NewComponentLogger(logger, "editorial")}
}

// Build parses the timeline at timelinePath, matches its clips against the
// folders under mediaDir, and returns the full instance set: one source
// editorial instance, then per clip a shot instance followed by its
// product instances. The whole batch is staged in memory and committed
// only when every clip resolves.
func (b *Builder) Build(ctx context.Context, project, timelinePath, mediaDir string, opts Options) ([]*instance.Instance, error) {
	proj, err := b.db.GetProject(ctx, project)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, pipeline.Wrap(pipeline.ErrMissingEntity, "editorial", "project", project, nil)
	}

	tl, err := timeline.FromFile(timelinePath, opts.FPS)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "editorial", "parse", timelinePath, err)
	}
	fps := tl.FrameRate
	if fps == 0 {
		fps = opts.FPS
	}

	solver, err := naming.NewShotSolver(b.cfg.Editorial, proj)
	if err != nil {
		return nil, err
	}

	var staged []*instance.Instance
	source, err := b.buildSourceInstance(timelinePath, tl, opts)
	if err != nil {
		return nil, err
	}
	staged = append(staged, source)

	presets := b.enabledPresets()
	for _, placed := range tl.ContentClips() {
		clipInstances, err := b.buildClip(ctx, project, placed, mediaDir, solver, presets, fps, opts)
		if err != nil {
			return nil, err
		}
		staged = append(staged, clipInstances...)
	}

	registry := instance.NewRegistry()
	for _, inst := range staged {
		if err := registry.Add(inst); err != nil {
			return nil, err
		}
	}
	b.log.Info("editorial batch built",
		logging.String("timeline", filepath.Base(timelinePath)),
		logging.Int("instances", registry.Len()))
	return registry.List(), nil
}

// buildSourceInstance records the parsed timeline document itself so the
// publish pipeline can version the cut alongside its shots.
func (b *Builder) buildSourceInstance(timelinePath string, tl *timeline.Timeline, opts Options) (*instance.Instance, error) {
	base := filepath.Base(timelinePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	inst, err := instance.New("editorial", naming.ProductName("editorial", stem), stem, opts.FolderPath, "")
	if err != nil {
		return nil, err
	}
	inst.Label = stem
	if tl.Name != "" {
		inst.Label = fmt.Sprintf("%s - %s", stem, tl.Name)
	}
	inst.FPS = tl.FrameRate
	inst.Representations = []instance.Representation{{
		Name:       strings.TrimPrefix(filepath.Ext(base), "."),
		Ext:        strings.TrimPrefix(filepath.Ext(base), "."),
		Files:      []string{base},
		StagingDir: filepath.Dir(timelinePath),
	}}
	return inst, nil
}

func (b *Builder) enabledPresets() []config.ProductPreset {
	var presets []config.ProductPreset
	for _, preset := range b.cfg.Editorial.ProductPresets {
		if preset.Enabled {
			presets = append(presets, preset)
		}
	}
	return presets
}

func (b *Builder) buildClip(ctx context.Context, project string, placed timeline.PlacedClip, mediaDir string,
	solver *naming.ShotSolver, presets []config.ProductPreset, fps float64, opts Options) ([]*instance.Instance, error) {

	clipName := placed.Clip.Name
	resolution, err := solver.Solve(clipName)
	if err != nil {
		return nil, err
	}

	trackStart := placed.Track.StartFrame(b.cfg.Editorial.TimelineFrameStart)
	timing := timeline.ComputeTiming(placed, trackStart, opts.TimelineOffset, opts.WorkfileStartFrame)

	clipDir, err := clipFolder(mediaDir, clipName)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "editorial", "media folder", mediaDir, err)
	}

	contentByPreset := make(map[string][]clipContent, len(presets))
	total := 0
	if clipDir != "" {
		for _, preset := range presets {
			contents, err := collectContent(clipDir, preset.ProductType)
			if err != nil {
				return nil, pipeline.Wrap(pipeline.ErrValidation, "editorial", "content scan", clipDir, err)
			}
			contentByPreset[preset.ProductType] = contents
			total += len(contents)
		}
	}
	if total == 0 && opts.IgnoreClipNoContent {
		b.log.Info("clip has no content, skipped", logging.String("clip", clipName))
		return nil, nil
	}

	basePath := ""
	if !b.cfg.Editorial.ShotHierarchy.Enabled {
		basePath = opts.FolderPath
	}
	folderPath := resolution.FolderPath(basePath)

	shot, err := b.buildShotInstance(ctx, project, folderPath, resolution, timing, fps, opts)
	if err != nil {
		return nil, err
	}
	instances := []*instance.Instance{shot}

	for _, preset := range presets {
		products, err := b.buildProducts(preset, contentByPreset[preset.ProductType], shot, folderPath, resolution.ShotName, timing, fps)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "editorial", "clip "+clipName, preset.ProductType, err)
		}
		instances = append(instances, products...)
	}
	return instances, nil
}

// buildShotInstance always comes first for a clip so product instances can
// reference its id.
func (b *Builder) buildShotInstance(ctx context.Context, project, folderPath string,
	resolution *naming.ShotResolution, timing timeline.Timing, fps float64, opts Options) (*instance.Instance, error) {

	shot, err := instance.New("shot", "shotMain", "Main", folderPath, "")
	if err != nil {
		return nil, err
	}
	shot.Label = resolution.ShotName
	applyTiming(shot, timing, fps, opts.WorkfileStartFrame)

	folder, err := b.db.GetFolderByPath(ctx, project, folderPath)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrMissingEntity, "editorial", "folder", folderPath, err)
	}
	if folder == nil {
		if !b.cfg.Editorial.ShotHierarchy.Enabled && !b.cfg.FolderCreation.Enabled {
			return nil, pipeline.Wrap(pipeline.ErrMissingEntity, "editorial", "folder",
				fmt.Sprintf("%s does not exist and hierarchy creation is disabled", folderPath), nil)
		}
		if err := b.promiseShotHierarchy(ctx, project, folderPath, resolution, shot, timing, fps); err != nil {
			return nil, err
		}
	}
	return shot, nil
}

func (b *Builder) promiseShotHierarchy(ctx context.Context, project, folderPath string,
	resolution *naming.ShotResolution, shot *instance.Instance, timing timeline.Timing, fps float64) error {

	shot.NewHierarchyIntegration = true

	accumulated := ""
	for _, parent := range resolution.Parents {
		if parent.FolderType == "Project" {
			continue
		}
		accumulated += "/" + parent.Name
		existing, err := b.db.GetFolderByPath(ctx, project, accumulated)
		if err != nil {
			return pipeline.Wrap(pipeline.ErrMissingEntity, "editorial", "folder", accumulated, err)
		}
		promised := instance.PromisedFolder{Path: accumulated, Name: parent.Name, FolderType: parent.FolderType}
		if existing != nil {
			promised.Exists = true
			promised.FolderType = existing.FolderType
		}
		shot.ParentChain = append(shot.ParentChain, promised)
	}

	shot.ParentChain = append(shot.ParentChain, instance.PromisedFolder{
		Path:       folderPath,
		Name:       resolution.ShotName,
		FolderType: naming.TypeFromRules(resolution.ShotName, b.cfg.FolderCreation.FolderTypeRegexes, "Shot"),
	})
	for _, task := range resolution.Tasks {
		taskType := task.TaskType
		if taskType == "" {
			taskType = naming.TaskTypeFor(task.Name,
				b.cfg.FolderCreation.TaskTypeRegexes, b.cfg.FolderCreation.TaskCreateType)
		}
		shot.PromisedTasks = append(shot.PromisedTasks, instance.PromisedTask{Name: task.Name, TaskType: taskType})
	}

	frameStart, frameEnd := timing.FrameStart, timing.FrameEnd
	shot.FolderAttributes = &instance.FolderAttributes{
		FrameStart: &frameStart,
		FrameEnd:   &frameEnd,
		FPS:        &fps,
	}
	b.log.Info("promised shot hierarchy",
		logging.String("shot", resolution.ShotName),
		logging.String("folder", folderPath))
	return nil
}

func (b *Builder) buildProducts(preset config.ProductPreset, contents []clipContent,
	shot *instance.Instance, folderPath, shotName string, timing timeline.Timing, fps float64) ([]*instance.Instance, error) {

	grouped, order := groupByToken(contents, preset.ProductType)

	var instances []*instance.Instance
	for _, token := range order {
		product, err := resolveRepresentations(grouped[token], preset.Representations)
		if err != nil {
			return nil, err
		}
		if !product.publishable {
			b.log.Info("product has no publishable content, dropped",
				logging.String("shot", shotName), logging.String("token", token))
			continue
		}

		variant := sequence.ProductSuffix(preset.ProductType, token)
		if variant == "" {
			variant = preset.Variant
		}
		if variant == "" {
			variant = "Main"
		}
		productName := naming.ProductName(preset.ProductType, variant)

		inst, err := instance.New(preset.ProductType, productName, variant, folderPath, "")
		if err != nil {
			return nil, err
		}
		inst.Label = folderPath + " " + productName
		inst.ParentInstanceID = shot.ID
		inst.Creator.ParentInstance = shotName
		inst.Representations = product.representations
		applyTiming(inst, timing, fps, nil)

		version, err := naming.ResolveVersion(preset.VersioningType, preset.LockedVersion, product.fileNames)
		if err != nil {
			return nil, err
		}
		inst.Version = version

		if reviewableProductType(preset.ProductType) {
			reviewable := product.reviewable
			inst.Creator.AddReviewFamily = &reviewable
			if reviewable {
				inst.AddFamily("review")
			}
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// groupByToken splits matched content by its resolved product token while
// preserving discovery order. Thumbnail-marker suffixes do not open a
// product of their own; those files join the base product group.
func groupByToken(contents []clipContent, baseToken string) (map[string][]clipContent, []string) {
	grouped := make(map[string][]clipContent)
	var order []string
	for _, content := range contents {
		key := content.token
		if strings.Contains(strings.ToLower(content.suffix), "thumb") {
			key = baseToken
		}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], content)
	}
	return grouped, order
}

// reviewableProductType reports whether a product type may carry the
// review family. Model, workfile, and camera products never do.
func reviewableProductType(productType string) bool {
	switch productType {
	case "model", "workfile", "camera":
		return false
	}
	return true
}

func applyTiming(inst *instance.Instance, timing timeline.Timing, fps float64, workfileStart *int) {
	inst.FrameStart = timing.FrameStart
	inst.FrameEnd = timing.FrameEnd
	inst.FPS = fps

	frameStart, frameEnd := timing.FrameStart, timing.FrameEnd
	clipIn, clipOut := timing.ClipIn, timing.ClipOut
	clipDuration := timing.ClipDuration
	sourceIn, sourceOut := timing.SourceIn, timing.SourceOut

	inst.Creator.FrameStart = &frameStart
	inst.Creator.FrameEnd = &frameEnd
	inst.Creator.ClipIn = &clipIn
	inst.Creator.ClipOut = &clipOut
	inst.Creator.ClipDuration = &clipDuration
	inst.Creator.SourceIn = &sourceIn
	inst.Creator.SourceOut = &sourceOut
	inst.Creator.WorkfileStart = workfileStart
	inst.Creator.FPS = &fps
}
