package sequence

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"sprocket/internal/fileutil"
)

var (
	printfToken = regexp.MustCompile(`%0(\d+)d`)
	hashRun     = regexp.MustCompile(`#+`)
)

// HasFramePlaceholder reports whether the file name in path carries a "#"
// run or a printf-style %0Nd frame token.
func HasFramePlaceholder(path string) bool {
	base := filepath.Base(path)
	return hashRun.MatchString(base) || printfToken.MatchString(base)
}

// ExpandFrames resolves a path whose file name contains a frame placeholder
// against the files actually on disk. It returns the matched file paths in
// frame order together with the first and last frame found.
func ExpandFrames(path string) ([]string, int, int, error) {
	dir, base := filepath.Split(path)
	matcher, err := placeholderMatcher(base)
	if err != nil {
		return nil, 0, 0, err
	}

	names, err := fileutil.ListFileNames(dir)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("list frame directory: %w", err)
	}

	type frameFile struct {
		frame int
		path  string
	}
	var matched []frameFile
	for _, name := range names {
		m := matcher.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		frame, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		matched = append(matched, frameFile{frame: frame, path: filepath.Join(dir, name)})
	}
	if len(matched) == 0 {
		return nil, 0, 0, fmt.Errorf("no files on disk match %s", base)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].frame < matched[j].frame })

	files := make([]string, len(matched))
	for i, f := range matched {
		files[i] = f.path
	}
	return files, matched[0].frame, matched[len(matched)-1].frame, nil
}

// placeholderMatcher turns a file name with one frame placeholder into an
// anchored regex capturing the frame number.
func placeholderMatcher(base string) (*regexp.Regexp, error) {
	var start, end, width int
	if loc := hashRun.FindStringIndex(base); loc != nil {
		start, end = loc[0], loc[1]
		width = end - start
	} else if m := printfToken.FindStringSubmatchIndex(base); m != nil {
		start, end = m[0], m[1]
		width, _ = strconv.Atoi(base[m[2]:m[3]])
	} else {
		return nil, fmt.Errorf("no frame placeholder in %s", base)
	}

	expr := `\A` + regexp.QuoteMeta(base[:start]) +
		fmt.Sprintf(`(\d{%d})`, width) +
		regexp.QuoteMeta(base[end:]) + `\z`
	return CompilePattern(expr)
}
