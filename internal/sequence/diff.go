package sequence

import (
	"path/filepath"
	"regexp"
	"strings"
)

var versionToken = regexp.MustCompile(`v\d+`)

// StringDifferences compares a set of file or collection names and returns,
// for each name, the part that distinguishes it from the others: the name
// with the common prefix, common suffix, extension, and any version token
// stripped. Names sharing everything come back with an empty difference.
func StringDifferences(names []string) map[string]string {
	stripped := make([]string, len(names))
	for i, name := range names {
		stripped[i] = strings.TrimSuffix(name, filepath.Ext(name))
	}

	prefix := commonPrefix(stripped)
	suffix := commonSuffix(stripped)

	differences := make(map[string]string, len(names))
	for i, name := range names {
		middle := stripped[i][len(prefix):]
		if len(middle) >= len(suffix) {
			middle = middle[:len(middle)-len(suffix)]
		}
		middle = versionToken.ReplaceAllString(middle, "")
		differences[name] = strings.Trim(middle, "._ ")
	}
	return differences
}

func commonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := names[0]
	for _, name := range names[1:] {
		max := len(prefix)
		if len(name) < max {
			max = len(name)
		}
		i := 0
		for i < max && prefix[i] == name[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return prefix
}

func commonSuffix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	suffix := names[0]
	for _, name := range names[1:] {
		max := len(suffix)
		if len(name) < max {
			max = len(name)
		}
		i := 0
		for i < max && suffix[len(suffix)-1-i] == name[len(name)-1-i] {
			i++
		}
		suffix = suffix[len(suffix)-i:]
	}
	return suffix
}
