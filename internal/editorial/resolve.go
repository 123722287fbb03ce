package editorial

import (
	"path/filepath"
	"strings"

	"sprocket/internal/config"
	"sprocket/internal/instance"
	"sprocket/internal/sequence"
)

// ruleCompatibility maps a representation rule's declared content type to
// the detected content kinds it accepts.
var ruleCompatibility = map[string][]contentKind{
	"thumbnail":      {contentThumbnail},
	"video":          {contentSingle},
	"image_single":   {contentSingle},
	"image_sequence": {contentCollection},
	"audio":          {contentOther},
	"geometry":       {contentOther},
	"workfile":       {contentOther},
}

// resolvedProduct is the outcome of applying representation rules to the
// content matched for one product token.
type resolvedProduct struct {
	representations []instance.Representation
	reviewable      bool
	publishable     bool
	// fileNames feeds from_file version scanning.
	fileNames []string
}

// resolveRepresentations filters matched clip content through the preset's
// representation rules. Products with no matching representation, or with
// nothing but a thumbnail, are not publishable and are dropped by the
// caller.
func resolveRepresentations(contents []clipContent, rules []config.RepresentationRule) (*resolvedProduct, error) {
	product := &resolvedProduct{}
	thumbnailOnly := true

	for _, rule := range rules {
		for _, content := range contents {
			if !kindCompatible(rule.ContentType, content.kind) {
				continue
			}
			files, err := filterRuleFiles(content.files, rule)
			if err != nil {
				return nil, err
			}
			if len(files) == 0 {
				continue
			}

			repre := instance.Representation{
				Name:       rule.Name,
				Ext:        strings.TrimPrefix(filepath.Ext(files[0]), "."),
				Files:      files,
				StagingDir: content.dir,
				Tags:       append(append([]string(nil), rule.Tags...), rule.CustomTags...),
			}
			if content.kind == contentCollection {
				start, end := content.frameStart, content.frameEnd
				repre.FrameStart = &start
				repre.FrameEnd = &end
			}
			if content.suffix != "" && !strings.Contains(strings.ToLower(content.suffix), "thumb") {
				repre.Name = rule.Name + "_" + content.suffix
				repre.OutputName = repre.Name
			}

			product.representations = append(product.representations, repre)
			product.fileNames = append(product.fileNames, files...)
			if rule.ContentType != "thumbnail" {
				thumbnailOnly = false
			}
			if hasTag(rule.Tags, "review") {
				product.reviewable = true
			}
		}
	}

	product.publishable = len(product.representations) > 0 && !thumbnailOnly
	return product, nil
}

func kindCompatible(contentType string, kind contentKind) bool {
	for _, accepted := range ruleCompatibility[contentType] {
		if accepted == kind {
			return true
		}
	}
	return false
}

// filterRuleFiles keeps files whose extension is in the rule's allow-list
// (dotted or bare, case-insensitive) and, when patterns are declared,
// whose name matches at least one of them.
func filterRuleFiles(files []string, rule config.RepresentationRule) ([]string, error) {
	var kept []string
	for _, file := range files {
		if !extensionAllowed(filepath.Ext(file), rule.Extensions) {
			continue
		}
		ok, err := patternAllowed(file, rule.Patterns)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, file)
		}
	}
	return kept, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, candidate := range allowed {
		if strings.ToLower(strings.TrimPrefix(candidate, ".")) == ext {
			return true
		}
	}
	return false
}

func patternAllowed(name string, patterns []string) (bool, error) {
	if len(patterns) == 0 {
		return true, nil
	}
	for _, raw := range patterns {
		pattern, err := sequence.CompilePattern(raw)
		if err != nil {
			return false, err
		}
		if pattern.MatchString(name) {
			return true, nil
		}
	}
	return false, nil
}

func hasTag(tags []string, tag string) bool {
	for _, candidate := range tags {
		if candidate == tag {
			return true
		}
	}
	return false
}
