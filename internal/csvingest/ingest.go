// Package csvingest derives creation instances from CSV manifests. Rows
// describing the same product group into one instance with one
// representation per row; the whole manifest commits or fails as a unit.
package csvingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sprocket/internal/assetdb"
	"sprocket/internal/config"
	"sprocket/internal/fileutil"
	"sprocket/internal/instance"
	"sprocket/internal/logging"
	"sprocket/internal/media"
	"sprocket/internal/media/ffprobe"
	"sprocket/internal/naming"
	"sprocket/internal/pipeline"
	"sprocket/internal/schema"
	"sprocket/internal/sequence"
)

// Manifest column names. The set is configuration-driven; these constants
// name the columns the default schema ships with.
const (
	colFilePath        = "File Path"
	colFolderPath      = "Folder Path"
	colTaskName        = "Task Name"
	colProductType     = "Product Type"
	colVariant         = "Variant"
	colVersion         = "Version"
	colFrameStart      = "Frame Start"
	colFrameEnd        = "Frame End"
	colHandleStart     = "Handle Start"
	colHandleEnd       = "Handle End"
	colFPS             = "FPS"
	colRepre           = "Representation"
	colRepreColorspace = "Representation Colorspace"
	colRepreTags       = "Representation Tags"
	colThumbnail       = "Version Thumbnail"
	colComment         = "Version Comment"
	colSlate           = "Slate Exists"
	colShotWidth       = "Shot Width"
	colShotHeight      = "Shot Height"
	colShotPixelAspect = "Shot Pixel Aspect"
)

// Ingestor turns CSV manifests into instances.
type Ingestor struct {
	cfg    *config.Config
	db     assetdb.Reader
	log    *slog.Logger
	schema *schema.Schema

	// Probe inspects media files. Tests replace it to avoid depending
	// on an ffprobe binary.
	Probe func(ctx context.Context, path string) (ffprobe.Result, error)

	// DefaultFolderPath and DefaultTaskName fill rows whose folder or task
	// cell is empty. They only take effect when the column schema marks
	// those columns optional.
	DefaultFolderPath string
	DefaultTaskName   string

	// IgnoreValidators skips per-column validation patterns. Required
	// values, type coercion, and entity resolution still apply.
	IgnoreValidators bool
}

// New compiles the configured column schema.
func New(cfg *config.Config, db assetdb.Reader, logger *slog.Logger) (*Ingestor, error) {
	compiled, err := schema.Compile(cfg.CSV.Columns)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{
		cfg:    cfg,
		db:     db,
		log:    logging.NewComponentLogger(logger, "csvingest"),
		schema: compiled,
		Probe: func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, cfg.FFprobeBinary(), path)
		},
	}, nil
}

type repreItem struct {
	row        int
	path       string
	name       string
	colorspace string
	tags       []string
	thumbnail  string
}

type productItem struct {
	row         int
	folderPath  string
	taskName    string
	productType string
	variant     string
	version     *int
	frameStart  *int
	frameEnd    *int
	handleStart *int
	handleEnd   *int
	fps         *float64
	width       *int
	height      *int
	pixelAspect *float64
	comment     string
	slate       bool
	repres      []repreItem
}

// Ingest parses the manifest at csvPath and returns the derived instances
// in row order. Any validation or resolution failure aborts the whole
// batch; no partial instance set is returned.
func (ing *Ingestor) Ingest(ctx context.Context, project, csvPath string) ([]*instance.Instance, error) {
	delimiter := rune(ing.cfg.CSV.Delimiter[0])
	header, records, err := readManifest(csvPath, delimiter)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "csv", "read", csvPath, err)
	}
	if err := ing.schema.ValidateHeader(header); err != nil {
		return nil, err
	}

	products, order, err := ing.groupRows(header, records, filepath.Dir(csvPath))
	if err != nil {
		return nil, err
	}
	ing.log.Info("manifest parsed", logging.Int("rows", len(records)), logging.Int("products", len(order)))

	registry := instance.NewRegistry()
	for _, key := range order {
		inst, err := ing.buildInstance(ctx, project, products[key])
		if err != nil {
			return nil, err
		}
		if err := registry.Add(inst); err != nil {
			return nil, err
		}
	}
	return registry.List(), nil
}

// groupRows coerces every record and groups representation rows by their
// product identity.
func (ing *Ingestor) groupRows(header []string, records [][]string, baseDir string) (map[string]*productItem, []string, error) {
	products := make(map[string]*productItem)
	var order []string

	for i, record := range records {
		rowNum := i + 2
		coerce := ing.schema.CoerceRow
		if ing.IgnoreValidators {
			coerce = ing.schema.CoerceRowLenient
		}
		row, err := coerce(header, record)
		if err != nil {
			return nil, nil, pipeline.Wrap(pipeline.ErrValidation, "csv", fmt.Sprintf("row %d", rowNum), "", err)
		}

		folderPath := row[colFolderPath].Text
		if folderPath == "" {
			folderPath = ing.DefaultFolderPath
		}
		taskName := row[colTaskName].Text
		if taskName == "" {
			taskName = ing.DefaultTaskName
		}
		productType := row[colProductType].Text
		variant := row[colVariant].Text
		versionText := row[colVersion].Text

		key := folderPath + "/" + taskName + "/" +
			strings.ToLower(strings.ReplaceAll(variant+productType+versionText, " ", ""))

		product, exists := products[key]
		if !exists {
			product = &productItem{
				row:         rowNum,
				folderPath:  folderPath,
				taskName:    taskName,
				productType: productType,
				variant:     variant,
				version:     intValue(row[colVersion]),
				frameStart:  intValue(row[colFrameStart]),
				frameEnd:    intValue(row[colFrameEnd]),
				handleStart: intValue(row[colHandleStart]),
				handleEnd:   intValue(row[colHandleEnd]),
				fps:         floatValue(row[colFPS]),
				width:       intValue(row[colShotWidth]),
				height:      intValue(row[colShotHeight]),
				pixelAspect: floatValue(row[colShotPixelAspect]),
				comment:     row[colComment].Text,
				slate:       row[colSlate].Bool,
			}
			products[key] = product
			order = append(order, key)
		}

		product.repres = append(product.repres, repreItem{
			row:        rowNum,
			path:       resolvePath(row[colFilePath].Text, baseDir),
			name:       row[colRepre].Text,
			colorspace: row[colRepreColorspace].Text,
			tags:       ing.splitTags(row[colRepreTags].Text),
			thumbnail:  resolveOptionalPath(row[colThumbnail].Text, baseDir),
		})
		if row[colSlate].Bool {
			product.slate = true
		}
	}
	return products, order, nil
}

func (ing *Ingestor) buildInstance(ctx context.Context, project string, product *productItem) (*instance.Instance, error) {
	if err := checkDuplicateFiles(product); err != nil {
		return nil, err
	}

	productName := naming.ProductName(product.productType, product.variant)
	inst, err := instance.New(product.productType, productName, product.variant, product.folderPath, product.taskName)
	if err != nil {
		return nil, err
	}
	inst.Version = product.version
	inst.Comment = product.comment
	inst.Label = productLabel(product.folderPath, productName, product.version)

	if err := ing.resolveEntities(ctx, project, product, inst); err != nil {
		return nil, err
	}
	if err := ing.buildRepresentations(ctx, product, inst); err != nil {
		return nil, err
	}

	applyFrameData(product, inst)
	if product.slate {
		inst.AddFamily("slate")
	}
	for _, repre := range inst.Representations {
		for _, tag := range repre.Tags {
			if tag == "review" {
				inst.AddFamily("review")
			}
		}
	}
	return inst, nil
}

// resolveEntities checks the folder and task against the asset database.
// A missing folder becomes a promised hierarchy when creation is enabled
// and a hard failure when it is not. A missing task on an existing folder
// is always a hard failure.
func (ing *Ingestor) resolveEntities(ctx context.Context, project string, product *productItem, inst *instance.Instance) error {
	folder, err := ing.db.GetFolderByPath(ctx, project, product.folderPath)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrMissingEntity, "csv", fmt.Sprintf("row %d", product.row), product.folderPath, err)
	}

	if folder == nil {
		if !ing.cfg.FolderCreation.Enabled {
			return pipeline.Wrap(pipeline.ErrMissingEntity, "csv", fmt.Sprintf("row %d", product.row),
				fmt.Sprintf("folder %q does not exist and folder creation is disabled", product.folderPath), nil)
		}
		return ing.promiseHierarchy(ctx, project, product, inst)
	}

	task, err := ing.db.GetTaskByName(ctx, project, folder.ID, product.taskName)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrMissingEntity, "csv", fmt.Sprintf("row %d", product.row), product.taskName, err)
	}
	if task == nil {
		return pipeline.Wrap(pipeline.ErrMissingEntity, "csv", fmt.Sprintf("row %d", product.row),
			fmt.Sprintf("task %q does not exist under %s", product.taskName, product.folderPath), nil)
	}

	// Folder attributes fill the gaps the manifest leaves.
	if product.fps == nil && folder.Attrib.FPS > 0 {
		fps := folder.Attrib.FPS
		product.fps = &fps
	}
	if product.frameStart == nil && folder.Attrib.FrameStart > 0 {
		start := folder.Attrib.FrameStart
		product.frameStart = &start
	}
	return nil
}

func (ing *Ingestor) promiseHierarchy(ctx context.Context, project string, product *productItem, inst *instance.Instance) error {
	rules := ing.cfg.FolderCreation.FolderTypeRegexes
	chain, err := naming.ComputeParentChain(ctx, ing.db, project, product.folderPath, rules, ing.cfg.FolderCreation.FolderCreateType)
	if err != nil {
		return err
	}

	inst.NewHierarchyIntegration = true
	for _, parent := range chain {
		inst.ParentChain = append(inst.ParentChain, instance.PromisedFolder{
			Path:       parent.Path,
			Name:       parent.Name,
			FolderType: parent.FolderType,
			Exists:     parent.Exists,
		})
	}

	leafName := filepath.Base(product.folderPath)
	inst.ParentChain = append(inst.ParentChain, instance.PromisedFolder{
		Path:       product.folderPath,
		Name:       leafName,
		FolderType: naming.TypeFromRules(leafName, rules, ing.cfg.FolderCreation.FolderCreateType),
	})

	if product.taskName != "" {
		inst.PromisedTasks = append(inst.PromisedTasks, instance.PromisedTask{
			Name: product.taskName,
			TaskType: naming.TaskTypeFor(product.taskName,
				ing.cfg.FolderCreation.TaskTypeRegexes, ing.cfg.FolderCreation.TaskCreateType),
		})
	}

	attrs := &instance.FolderAttributes{
		FrameStart:  product.frameStart,
		FrameEnd:    product.frameEnd,
		HandleStart: product.handleStart,
		HandleEnd:   product.handleEnd,
		FPS:         product.fps,
		PixelAspect: product.pixelAspect,
	}
	if product.width != nil && product.height != nil {
		attrs.ResolutionWidth = product.width
		attrs.ResolutionHeight = product.height
	} else if product.width != nil || product.height != nil {
		ing.log.Warn("ignoring incomplete resolution",
			logging.String("folder", product.folderPath))
	}
	inst.FolderAttributes = attrs
	ing.log.Info("promised folder hierarchy",
		logging.String("folder", product.folderPath),
		logging.Int("parents", len(inst.ParentChain)-1))
	return nil
}

func (ing *Ingestor) buildRepresentations(ctx context.Context, product *productItem, inst *instance.Instance) error {
	var thumbnails []repreItem
	for _, repre := range product.repres {
		if repre.thumbnail != "" {
			thumbnails = append(thumbnails, repre)
		}
	}

	for _, repre := range product.repres {
		built, err := ing.buildRepresentation(ctx, product, repre)
		if err != nil {
			return err
		}
		inst.Representations = append(inst.Representations, *built)
	}

	for _, repre := range thumbnails {
		thumb, err := buildThumbnail(repre, len(thumbnails) > 1)
		if err != nil {
			return err
		}
		inst.Representations = append(inst.Representations, *thumb)
		if inst.ThumbnailPath == "" {
			inst.ThumbnailPath = repre.thumbnail
		}
	}
	return nil
}

func (ing *Ingestor) buildRepresentation(ctx context.Context, product *productItem, repre repreItem) (*instance.Representation, error) {
	built := instance.Representation{
		Name:       repre.name,
		Colorspace: repre.colorspace,
		Tags:       append(append([]string(nil), ing.cfg.CSV.DefaultTags...), repre.tags...),
		StagingDir: filepath.Dir(repre.path),
	}

	if sequence.HasFramePlaceholder(repre.path) {
		files, frameStart, frameEnd, err := sequence.ExpandFrames(repre.path)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "csv", fmt.Sprintf("row %d", repre.row), repre.path, err)
		}
		for _, file := range files {
			built.Files = append(built.Files, filepath.Base(file))
		}
		built.Ext = strings.TrimPrefix(filepath.Ext(files[0]), ".")
		built.FrameStart = &frameStart
		built.FrameEnd = &frameEnd
		if product.frameStart == nil {
			product.frameStart = &frameStart
		}
		if product.frameEnd == nil {
			product.frameEnd = &frameEnd
		}
	} else {
		if _, err := os.Stat(repre.path); err != nil {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "csv", fmt.Sprintf("row %d", repre.row),
				fmt.Sprintf("file does not exist: %s", repre.path), nil)
		}
		built.Files = []string{filepath.Base(repre.path)}
		built.Ext = strings.TrimPrefix(filepath.Ext(repre.path), ".")
	}

	if err := ing.checkAllowedExtension(product, repre, built.Ext); err != nil {
		return nil, err
	}

	if media.IsVideo(built.Ext) {
		if err := ing.fillVideoData(ctx, product, repre, &built); err != nil {
			return nil, err
		}
	}
	return &built, nil
}

// checkAllowedExtension enforces the configured extension allow-list for
// named representations. Unconfigured representation names pass through.
func (ing *Ingestor) checkAllowedExtension(product *productItem, repre repreItem, ext string) error {
	for _, configured := range ing.cfg.CSV.Representations {
		if configured.Name != repre.name {
			continue
		}
		dotted := "." + ext
		for _, allowed := range configured.Extensions {
			if allowed == dotted {
				return nil
			}
		}
		return pipeline.Wrap(pipeline.ErrValidation, "csv", fmt.Sprintf("row %d", repre.row),
			fmt.Sprintf("extension %q is not allowed for representation %q", dotted, repre.name), nil)
	}
	return nil
}

// fillVideoData attaches fps to video representations and derives the
// product frame range from the container when the manifest left it out.
func (ing *Ingestor) fillVideoData(ctx context.Context, product *productItem, repre repreItem, built *instance.Representation) error {
	built.OutputName = repre.name

	needFPS := product.fps == nil
	needRange := product.frameEnd == nil
	if needFPS || needRange {
		result, err := ing.Probe(ctx, repre.path)
		if err != nil {
			return err
		}
		if needFPS {
			if fps := result.FrameRate(); fps > 0 {
				product.fps = &fps
			}
		}
		if needRange {
			if frames := result.FrameCount(); frames > 0 {
				start := 1
				if product.frameStart != nil {
					start = *product.frameStart
				}
				end := start + frames - 1
				product.frameStart = &start
				product.frameEnd = &end
			}
		}
	}
	built.FPS = product.fps
	return nil
}

func buildThumbnail(repre repreItem, multiple bool) (*instance.Representation, error) {
	if _, err := os.Stat(repre.thumbnail); err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "csv", fmt.Sprintf("row %d", repre.row),
			fmt.Sprintf("thumbnail does not exist: %s", repre.thumbnail), nil)
	}

	base := filepath.Base(repre.thumbnail)
	name := "thumbnail"
	outputName := ""
	if multiple {
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		name = "thumbnail_" + stem
		outputName = name
	}
	return &instance.Representation{
		Name:       name,
		Ext:        strings.TrimPrefix(filepath.Ext(base), "."),
		Files:      []string{base},
		StagingDir: filepath.Dir(repre.thumbnail),
		OutputName: outputName,
		Tags:       []string{"thumbnail", "delete"},
	}, nil
}

// checkDuplicateFiles rejects two representation rows of one product that
// resolve to the same absolute path.
func checkDuplicateFiles(product *productItem) error {
	seen := make(map[string]int, len(product.repres))
	for _, repre := range product.repres {
		if firstRow, exists := seen[repre.path]; exists {
			return pipeline.Wrap(pipeline.ErrDuplicateFile, "csv", fmt.Sprintf("row %d", repre.row),
				fmt.Sprintf("file %s already referenced by row %d", repre.path, firstRow), nil)
		}
		seen[repre.path] = repre.row
	}
	return nil
}

func applyFrameData(product *productItem, inst *instance.Instance) {
	if product.frameStart != nil {
		inst.FrameStart = *product.frameStart
	}
	if product.frameEnd != nil {
		inst.FrameEnd = *product.frameEnd
	}
	if product.handleStart != nil {
		inst.HandleStart = *product.handleStart
	}
	if product.handleEnd != nil {
		inst.HandleEnd = *product.handleEnd
	}
	if product.fps != nil {
		inst.FPS = *product.fps
	}
}

func productLabel(folderPath, productName string, version *int) string {
	if version == nil {
		return fmt.Sprintf("%s_%s_v[next]", folderPath, productName)
	}
	return fmt.Sprintf("%s_%s_v%03d", folderPath, productName, *version)
}

func (ing *Ingestor) splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ing.cfg.CSV.TagsDelimiter) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func resolvePath(path, baseDir string) string {
	path = fileutil.NormalizeSlashes(strings.TrimSpace(path))
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

func resolveOptionalPath(path, baseDir string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return resolvePath(path, baseDir)
}

func intValue(v schema.Value) *int {
	if v.Empty {
		return nil
	}
	n := v.Number
	return &n
}

func floatValue(v schema.Value) *float64 {
	if v.Empty {
		return nil
	}
	f := v.Decimal
	return &f
}
