package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"sprocket/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SessionDir string `toml:"session_dir"`
	LogDir     string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Column declares one typed CSV manifest column.
type Column struct {
	Name              string `toml:"name"`
	Type              string `toml:"type"`
	Default           string `toml:"default"`
	Required          bool   `toml:"required"`
	ValidationPattern string `toml:"validation_pattern"`
}

// CSVRepresentation restricts the file extensions accepted for a named
// representation referenced from the manifest's Representation column.
type CSVRepresentation struct {
	Name       string   `toml:"name"`
	Extensions []string `toml:"extensions"`
}

// CSV contains manifest parsing configuration.
type CSV struct {
	Delimiter       string              `toml:"delimiter"`
	TagsDelimiter   string              `toml:"tags_delimiter"`
	DefaultTags     []string            `toml:"default_tags"`
	Columns         []Column            `toml:"columns"`
	Representations []CSVRepresentation `toml:"representations"`
}

// TypeRegexRule maps a name regex to an entity type. First match wins.
type TypeRegexRule struct {
	Regex string `toml:"regex"`
	Type  string `toml:"type"`
}

// FolderCreation controls auto-creation of missing folder/task hierarchy.
type FolderCreation struct {
	Enabled           bool            `toml:"enabled"`
	FolderCreateType  string          `toml:"folder_create_type"`
	FolderTypeRegexes []TypeRegexRule `toml:"folder_type_regexes"`
	TaskCreateType    string          `toml:"task_create_type"`
	TaskTypeRegexes   []TypeRegexRule `toml:"task_type_regexes"`
}

// TokenizerRule extracts a named token from clip names via regex.
type TokenizerRule struct {
	Name  string `toml:"name"`
	Regex string `toml:"regex"`
}

// ShotRename controls renaming of discovered shots.
type ShotRename struct {
	Enabled  bool   `toml:"enabled"`
	Template string `toml:"template"`
}

// HierarchyParent maps a token used in the parents-path template to a folder
// type and a value template.
type HierarchyParent struct {
	ParentType string `toml:"parent_type"`
	Name       string `toml:"name"`
	Value      string `toml:"value"`
}

// ShotHierarchy defines where new shots land in the folder tree.
type ShotHierarchy struct {
	Enabled     bool              `toml:"enabled"`
	ParentsPath string            `toml:"parents_path"`
	Parents     []HierarchyParent `toml:"parents"`
}

// ShotTask is a task added to every created shot.
type ShotTask struct {
	Name     string `toml:"name"`
	TaskType string `toml:"task_type"`
}

// RepresentationRule classifies matched clip content into a named
// representation of a product preset.
type RepresentationRule struct {
	Name        string   `toml:"name"`
	ContentType string   `toml:"content_type"`
	Extensions  []string `toml:"extensions"`
	Patterns    []string `toml:"patterns"`
	Tags        []string `toml:"tags"`
	CustomTags  []string `toml:"custom_tags"`
}

// ProductPreset describes one product type derived per matched clip.
type ProductPreset struct {
	ProductType     string               `toml:"product_type"`
	Variant         string               `toml:"variant"`
	Enabled         bool                 `toml:"enabled"`
	VersioningType  string               `toml:"versioning_type"`
	LockedVersion   int                  `toml:"locked_version"`
	Representations []RepresentationRule `toml:"representations"`
}

// Editorial contains settings for the timeline ingest path.
type Editorial struct {
	DefaultVariants    []string        `toml:"default_variants"`
	ClipNameTokenizer  []TokenizerRule `toml:"clip_name_tokenizer"`
	ShotRename         ShotRename      `toml:"shot_rename"`
	ShotHierarchy      ShotHierarchy   `toml:"shot_hierarchy"`
	ShotAddTasks       []ShotTask      `toml:"shot_add_tasks"`
	ProductPresets     []ProductPreset `toml:"product_presets"`
	TimelineFrameStart int             `toml:"timeline_frame_start"`
}

// Batch contains settings for the loose-file ingest paths.
type Batch struct {
	TextureExtensions []string `toml:"texture_extensions"`
	MovieExtensions   []string `toml:"movie_extensions"`
	DefaultTasks      []string `toml:"default_tasks"`
	StripCommonAffix  bool     `toml:"strip_common_affix"`
}

// Config encapsulates all configuration values for sprocket.
//
// Configuration sections by subsystem:
//   - Paths: session store and log directories
//   - Logging: log format and level
//   - CSV: manifest column schema and representation allow-lists
//   - FolderCreation: missing-hierarchy auto-creation rules
//   - Editorial: timeline ingest presets and shot naming rules
//   - Batch: texture/movie batch ingest settings
type Config struct {
	Paths          Paths          `toml:"paths"`
	Logging        Logging        `toml:"logging"`
	CSV            CSV            `toml:"csv"`
	FolderCreation FolderCreation `toml:"folder_creation"`
	Editorial      Editorial      `toml:"editorial"`
	Batch          Batch          `toml:"batch"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return fileutil.ExpandPath("~/.config/sprocket/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := fileutil.ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sprocket.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories sprocket writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SessionDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := fileutil.ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}
