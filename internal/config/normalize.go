package config

import (
	"fmt"
	"strings"

	"sprocket/internal/fileutil"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeCSV()
	c.normalizeEditorial()
	c.normalizeBatch()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SessionDir) == "" {
		c.Paths.SessionDir = defaultSessionDir
	}
	if c.Paths.SessionDir, err = fileutil.ExpandPath(c.Paths.SessionDir); err != nil {
		return fmt.Errorf("paths.session_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = fileutil.ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeCSV() {
	if c.CSV.Delimiter == "" {
		c.CSV.Delimiter = defaultCSVDelimiter
	}
	if c.CSV.TagsDelimiter == "" {
		c.CSV.TagsDelimiter = defaultTagsDelimiter
	}
	for i := range c.CSV.Columns {
		c.CSV.Columns[i].Name = strings.TrimSpace(c.CSV.Columns[i].Name)
		c.CSV.Columns[i].Type = strings.ToLower(strings.TrimSpace(c.CSV.Columns[i].Type))
		if c.CSV.Columns[i].Type == "" {
			c.CSV.Columns[i].Type = "text"
		}
		if c.CSV.Columns[i].ValidationPattern == "" {
			c.CSV.Columns[i].ValidationPattern = `^(.*)$`
		}
	}
	for i := range c.CSV.Representations {
		c.CSV.Representations[i].Extensions = normalizeExtensions(c.CSV.Representations[i].Extensions)
	}
}

func (c *Config) normalizeEditorial() {
	if c.Editorial.TimelineFrameStart == 0 {
		c.Editorial.TimelineFrameStart = defaultTimelineFrameStart
	}
	if len(c.Editorial.DefaultVariants) == 0 {
		c.Editorial.DefaultVariants = []string{"Main"}
	}
	for i := range c.Editorial.ProductPresets {
		preset := &c.Editorial.ProductPresets[i]
		preset.ProductType = strings.TrimSpace(preset.ProductType)
		if preset.Variant == "" {
			preset.Variant = "Main"
		}
		if preset.VersioningType == "" {
			preset.VersioningType = "incremental"
		}
		for j := range preset.Representations {
			rule := &preset.Representations[j]
			rule.ContentType = strings.ToLower(strings.TrimSpace(rule.ContentType))
			rule.Extensions = normalizeExtensions(rule.Extensions)
		}
	}
}

func (c *Config) normalizeBatch() {
	c.Batch.TextureExtensions = normalizeExtensions(c.Batch.TextureExtensions)
	c.Batch.MovieExtensions = normalizeExtensions(c.Batch.MovieExtensions)
}

// normalizeExtensions lowercases extensions and guarantees a leading dot so
// both ".exr" and "exr" spellings are accepted from configuration.
func normalizeExtensions(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	return normalized
}
