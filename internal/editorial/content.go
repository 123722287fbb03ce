// Package editorial derives creation instances from an editorial timeline
// paired with a media folder. Every valid clip becomes a shot instance;
// files found under the clip's folder become linked product instances
// according to the configured product presets.
package editorial

import (
	"os"
	"path/filepath"
	"strings"

	"sprocket/internal/fileutil"
	"sprocket/internal/media"
	"sprocket/internal/sequence"
)

type contentKind string

const (
	contentCollection contentKind = "collection"
	contentSingle     contentKind = "single"
	contentOther      contentKind = "other"
	contentThumbnail  contentKind = "thumbnail"
)

// clipContent is one group of on-disk files matched to a product token
// inside a clip folder, before representation rules are applied.
type clipContent struct {
	token      string
	suffix     string
	dir        string
	files      []string
	kind       contentKind
	frameStart int
	frameEnd   int
}

// clipFolder locates the media subfolder whose name equals the clip name.
// Matching is exact; a second attempt strips the clip's extension because
// EDL reels often carry one.
func clipFolder(mediaDir, clipName string) (string, error) {
	names, err := fileutil.ListDirNames(mediaDir)
	if err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(clipName, filepath.Ext(clipName))
	for _, name := range names {
		if name == clipName || name == stem {
			return filepath.Join(mediaDir, name), nil
		}
	}
	return "", nil
}

// collectContent walks the clip folder and matches every assembled file
// collection and every loose file against the product token. The clip root
// matches strictly; a subfolder whose own name carries the token claims
// everything inside it, so nested files need not repeat the token.
func collectContent(clipDir, productToken string) ([]clipContent, error) {
	var contents []clipContent
	err := filepath.WalkDir(clipDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}

		collectionMode := sequence.MatchStrict
		remainderMode := sequence.MatchLoose
		if path != clipDir {
			if _, ok := sequence.MatchProduct(productToken, entry.Name(), sequence.MatchStrict); ok {
				collectionMode = sequence.MatchAny
				remainderMode = sequence.MatchAny
			}
		}

		names, err := fileutil.ListFileNames(path)
		if err != nil {
			return err
		}
		collections, remainder := sequence.Assemble(names, 2)

		for _, collection := range collections {
			token, ok := sequence.MatchProduct(productToken, collection.Head, collectionMode)
			if !ok {
				continue
			}
			contents = append(contents, clipContent{
				token:      token,
				suffix:     sequence.ProductSuffix(productToken, token),
				dir:        path,
				files:      collection.FileNames(),
				kind:       classifyCollection(collection.FileNames()),
				frameStart: collection.FrameStart(),
				frameEnd:   collection.FrameEnd(),
			})
		}
		for _, name := range remainder {
			token, ok := sequence.MatchProduct(productToken, name, remainderMode)
			if !ok {
				continue
			}
			contents = append(contents, clipContent{
				token:  token,
				suffix: sequence.ProductSuffix(productToken, token),
				dir:    path,
				files:  []string{name},
				kind:   classifyLooseFile(name),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// classifyCollection types a frame-numbered set by its extension. Only
// image sets count as collections; audio or cache sets resolve through the
// rules that accept plain content.
func classifyCollection(fileNames []string) contentKind {
	if len(fileNames) == 0 {
		return contentOther
	}
	if media.IsImage(filepath.Ext(fileNames[0])) {
		return contentCollection
	}
	return contentOther
}

func classifyLooseFile(name string) contentKind {
	if strings.Contains(strings.ToLower(name), "thumb") {
		return contentThumbnail
	}
	ext := filepath.Ext(name)
	if media.IsVideo(ext) || media.IsImage(ext) {
		return contentSingle
	}
	return contentOther
}
