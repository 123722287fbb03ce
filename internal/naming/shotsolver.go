package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"sprocket/internal/assetdb"
	"sprocket/internal/config"
	"sprocket/internal/pipeline"
)

type tokenizer struct {
	name    string
	pattern *regexp.Regexp
}

// ShotSolver derives shot names and their folder hierarchy from clip
// names. One solver serves a whole editorial run; it is built once from
// project and configuration.
type ShotSolver struct {
	tokenizers []tokenizer
	rename     config.ShotRename
	hierarchy  config.ShotHierarchy
	tasks      []config.ShotTask
	namespace  map[string]string
}

// ShotResolution is the outcome for one clip.
type ShotResolution struct {
	ShotName string
	Tokens   map[string]string
	// Parents is the hierarchy above the shot, root first. Empty when
	// hierarchy resolution is disabled.
	Parents []ParentFolder
	Tasks   []config.ShotTask
}

// FolderPath joins the resolved hierarchy under basePath. With hierarchy
// disabled the shot lands directly under basePath. Folder paths are
// project-relative, so a parent of type Project never becomes a segment.
func (r *ShotResolution) FolderPath(basePath string) string {
	segments := []string{strings.TrimSuffix(basePath, "/")}
	for _, parent := range r.Parents {
		if parent.FolderType == "Project" {
			continue
		}
		segments = append(segments, parent.Name)
	}
	segments = append(segments, r.ShotName)
	return strings.Join(segments, "/")
}

// NewShotSolver compiles the tokenizer and template configuration.
func NewShotSolver(cfg config.Editorial, project *assetdb.Project) (*ShotSolver, error) {
	solver := &ShotSolver{
		rename:    cfg.ShotRename,
		hierarchy: cfg.ShotHierarchy,
		tasks:     cfg.ShotAddTasks,
		namespace: map[string]string{
			"project":       project.Name,
			"project[name]": project.Name,
			"project[code]": project.Code,
		},
	}
	for _, rule := range cfg.ClipNameTokenizer {
		pattern, err := regexp.Compile(rule.Regex)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrSchema, "naming", "tokenizer", rule.Name, err)
		}
		solver.tokenizers = append(solver.tokenizers, tokenizer{name: rule.Name, pattern: pattern})
	}
	return solver, nil
}

// Solve extracts tokens from the clip name, applies the rename template,
// and resolves the hierarchy parents.
func (s *ShotSolver) Solve(clipName string) (*ShotResolution, error) {
	base := strings.TrimSuffix(clipName, filepath.Ext(clipName))

	namespace := make(map[string]string, len(s.namespace)+len(s.tokenizers)+1)
	for key, value := range s.namespace {
		namespace[key] = value
	}
	namespace["clip_name"] = base

	tokens := make(map[string]string, len(s.tokenizers))
	for _, tok := range s.tokenizers {
		match := tok.pattern.FindStringSubmatch(base)
		if match == nil {
			continue
		}
		value := match[0]
		if len(match) > 1 {
			value = match[1]
		}
		tokens[tok.name] = value
		namespace[tok.name] = value
	}

	resolution := &ShotResolution{ShotName: base, Tokens: tokens, Tasks: s.tasks}

	if s.rename.Enabled {
		renamed, err := RenderTemplate(s.rename.Template, namespace)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "naming", "shot rename", fmt.Sprintf("clip %q", clipName), err)
		}
		resolution.ShotName = renamed
	}
	namespace["shot"] = resolution.ShotName

	if s.hierarchy.Enabled {
		parents, err := s.solveParents(namespace, clipName)
		if err != nil {
			return nil, err
		}
		resolution.Parents = parents
	}
	return resolution, nil
}

func (s *ShotSolver) solveParents(namespace map[string]string, clipName string) ([]ParentFolder, error) {
	byToken := make(map[string]config.HierarchyParent, len(s.hierarchy.Parents))
	for _, parent := range s.hierarchy.Parents {
		value, err := RenderTemplate(parent.Value, namespace)
		if err != nil {
			return nil, pipeline.Wrap(pipeline.ErrValidation, "naming", "shot hierarchy", fmt.Sprintf("clip %q parent %q", clipName, parent.Name), err)
		}
		resolved := parent
		resolved.Value = value
		byToken[parent.Name] = resolved
		namespace[parent.Name] = value
	}

	rendered, err := RenderTemplate(s.hierarchy.ParentsPath, namespace)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.ErrValidation, "naming", "shot hierarchy", fmt.Sprintf("clip %q", clipName), err)
	}

	var parents []ParentFolder
	for _, segment := range strings.Split(strings.Trim(rendered, "/"), "/") {
		if segment == "" {
			continue
		}
		parent := ParentFolder{Name: segment, FolderType: "Folder"}
		for _, candidate := range byToken {
			if candidate.Value == segment {
				parent.FolderType = candidate.ParentType
				break
			}
		}
		parents = append(parents, parent)
	}
	return parents, nil
}
