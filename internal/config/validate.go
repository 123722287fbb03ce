package config

import (
	"fmt"
	"regexp"

	"sprocket/internal/pipeline"
)

var columnTypes = map[string]struct{}{
	"text":    {},
	"number":  {},
	"decimal": {},
	"bool":    {},
}

var contentTypes = map[string]struct{}{
	"thumbnail":      {},
	"image_single":   {},
	"image_sequence": {},
	"video":          {},
	"audio":          {},
	"geometry":       {},
	"workfile":       {},
}

var versioningTypes = map[string]struct{}{
	"incremental": {},
	"from_file":   {},
	"locked":      {},
}

// Validate ensures the configuration is usable. Every regex carried by the
// configuration is compiled here so malformed settings fail at load time and
// never while rows or clips are being processed.
func (c *Config) Validate() error {
	if err := c.validateCSV(); err != nil {
		return err
	}
	if err := c.validateFolderCreation(); err != nil {
		return err
	}
	if err := c.validateEditorial(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCSV() error {
	if len(c.CSV.Delimiter) != 1 {
		return pipeline.Wrap(pipeline.ErrSchema, "config", "csv", fmt.Sprintf("delimiter must be a single character, got %q", c.CSV.Delimiter), nil)
	}
	seen := map[string]struct{}{}
	for _, column := range c.CSV.Columns {
		if column.Name == "" {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "csv", "column with empty name", nil)
		}
		if _, ok := seen[column.Name]; ok {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "csv", fmt.Sprintf("duplicate column %q", column.Name), nil)
		}
		seen[column.Name] = struct{}{}
		if _, ok := columnTypes[column.Type]; !ok {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "csv", fmt.Sprintf("column %q has unknown type %q", column.Name, column.Type), nil)
		}
		if _, err := regexp.Compile(column.ValidationPattern); err != nil {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "csv", fmt.Sprintf("column %q validation pattern", column.Name), err)
		}
	}
	repreSeen := map[string]struct{}{}
	for _, repre := range c.CSV.Representations {
		if repre.Name == "" {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "csv", "representation with empty name", nil)
		}
		if _, ok := repreSeen[repre.Name]; ok {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "csv", fmt.Sprintf("duplicate representation %q", repre.Name), nil)
		}
		repreSeen[repre.Name] = struct{}{}
	}
	return nil
}

func (c *Config) validateFolderCreation() error {
	if c.FolderCreation.FolderCreateType == "" {
		return pipeline.Wrap(pipeline.ErrSchema, "config", "folder_creation", "folder_create_type must be set", nil)
	}
	for _, rule := range c.FolderCreation.FolderTypeRegexes {
		if _, err := regexp.Compile(rule.Regex); err != nil {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "folder_creation", fmt.Sprintf("folder type regex %q", rule.Regex), err)
		}
	}
	for _, rule := range c.FolderCreation.TaskTypeRegexes {
		if _, err := regexp.Compile(rule.Regex); err != nil {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "folder_creation", fmt.Sprintf("task type regex %q", rule.Regex), err)
		}
	}
	return nil
}

func (c *Config) validateEditorial() error {
	for _, rule := range c.Editorial.ClipNameTokenizer {
		if rule.Name == "" {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", "tokenizer rule with empty name", nil)
		}
		if _, err := regexp.Compile(rule.Regex); err != nil {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", fmt.Sprintf("tokenizer regex %q", rule.Regex), err)
		}
	}
	for _, preset := range c.Editorial.ProductPresets {
		if preset.ProductType == "" {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", "product preset with empty product_type", nil)
		}
		if _, ok := versioningTypes[preset.VersioningType]; !ok {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", fmt.Sprintf("preset %q has unknown versioning_type %q", preset.ProductType, preset.VersioningType), nil)
		}
		if preset.VersioningType == "locked" && preset.LockedVersion <= 0 {
			return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", fmt.Sprintf("preset %q locks version but locked_version is unset", preset.ProductType), nil)
		}
		for _, rule := range preset.Representations {
			if rule.Name == "" {
				return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", fmt.Sprintf("preset %q has representation with empty name", preset.ProductType), nil)
			}
			if _, ok := contentTypes[rule.ContentType]; !ok {
				return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", fmt.Sprintf("representation %q has unknown content_type %q", rule.Name, rule.ContentType), nil)
			}
			for _, pattern := range rule.Patterns {
				if _, err := regexp.Compile(pattern); err != nil {
					return pipeline.Wrap(pipeline.ErrSchema, "config", "editorial", fmt.Sprintf("representation %q pattern %q", rule.Name, pattern), err)
				}
			}
		}
	}
	return nil
}
