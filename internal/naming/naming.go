// Package naming turns configuration and clip names into the entity names
// instances carry: shot names from tokenizer and rename templates, folder
// hierarchies with typed parents, product names, and version numbers.
package naming

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sprocket/internal/assetdb"
	"sprocket/internal/config"
	"sprocket/internal/pipeline"
	"sprocket/internal/sequence"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// ProductName joins a product type with its capitalized variant, e.g.
// ("plate", "main") becomes "plateMain".
func ProductName(productType, variant string) string {
	variant = strings.TrimSpace(variant)
	if variant == "" {
		return productType
	}
	return productType + strings.ReplaceAll(titleCaser.String(variant), " ", "")
}

// VariantFromProductName recovers the variant part of a product name. When
// the product type is not a prefix of the name, "main" applies.
func VariantFromProductName(productName, productType string) string {
	if productType != "" {
		if _, after, ok := strings.Cut(productName, productType); ok {
			variant := strings.ToLower(strings.TrimSpace(after))
			if variant != "" {
				return variant
			}
		}
	}
	return "main"
}

// TypeFromRules returns the type of the first rule whose regex matches
// name, or fallback when none does.
func TypeFromRules(name string, rules []config.TypeRegexRule, fallback string) string {
	for _, rule := range rules {
		re, err := sequence.CompilePattern(rule.Regex)
		if err != nil {
			continue
		}
		if re.MatchString(name) {
			return rule.Type
		}
	}
	return fallback
}

// TaskTypeFor infers a task's type from the configured task rules. Rules
// match at the start of the task name; fallback applies when none do.
func TaskTypeFor(taskName string, rules []config.TypeRegexRule, fallback string) string {
	for _, rule := range rules {
		re, err := sequence.CompilePattern(`\A(?:` + rule.Regex + `)`)
		if err != nil {
			continue
		}
		if re.MatchString(taskName) {
			return rule.Type
		}
	}
	return fallback
}

// ResolveVersion applies a preset's versioning policy. A nil result means
// the downstream pipeline assigns the next version itself.
func ResolveVersion(versioningType string, lockedVersion int, fileNames []string) (*int, error) {
	switch versioningType {
	case "incremental":
		return nil, nil
	case "from_file":
		return VersionFromFiles(fileNames), nil
	case "locked":
		if lockedVersion <= 0 {
			return nil, fmt.Errorf("locked versioning without a locked version")
		}
		version := lockedVersion
		return &version, nil
	default:
		return nil, fmt.Errorf("unknown versioning type %q", versioningType)
	}
}

var versionInFile = regexp.MustCompile(`v(\d{2,4})`)

// VersionFromFiles scans file names for version tokens and returns the
// highest one found, or nil when no file carries one.
func VersionFromFiles(fileNames []string) *int {
	var best *int
	for _, name := range fileNames {
		for _, match := range versionInFile.FindAllStringSubmatch(name, -1) {
			version, err := strconv.Atoi(match[1])
			if err != nil {
				continue
			}
			if best == nil || version > *best {
				v := version
				best = &v
			}
		}
	}
	return best
}

// ParentFolder is one ancestor in a computed hierarchy chain, ordered
// root first.
type ParentFolder struct {
	Path       string
	Name       string
	FolderType string
	Exists     bool
}

// ComputeParentChain resolves every ancestor of folderPath against the
// asset database. Existing folders keep their stored type; missing ones
// get a type inferred from the rules, falling back to defaultType.
func ComputeParentChain(ctx context.Context, db assetdb.Reader, project, folderPath string, rules []config.TypeRegexRule, defaultType string) ([]ParentFolder, error) {
	segments := strings.Split(strings.Trim(path.Clean(folderPath), "/"), "/")
	if len(segments) <= 1 {
		return nil, nil
	}
	segments = segments[:len(segments)-1]

	chain := make([]ParentFolder, 0, len(segments))
	current := ""
	for _, segment := range segments {
		current = current + "/" + segment
		parent := ParentFolder{Path: current, Name: segment}

		existing, err := db.GetFolderByPath(ctx, project, current)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrMissingEntity, "naming", "parent chain", fmt.Sprintf("lookup %s", current), err)
		}
		if existing != nil {
			parent.Exists = true
			parent.FolderType = existing.FolderType
		} else {
			parent.FolderType = TypeFromRules(segment, rules, defaultType)
		}
		chain = append(chain, parent)
	}
	return chain, nil
}
