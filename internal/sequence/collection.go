// Package sequence groups related file names into frame collections and
// provides the name arithmetic the ingest paths share: placeholder
// expansion against on-disk frames, common prefix/suffix discovery, and a
// process-wide compiled regex cache.
package sequence

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// Collection is a set of file names that differ only by a frame index.
// Member names are Head + zero-padded index + Tail.
type Collection struct {
	Head    string
	Tail    string
	Padding int
	Indexes []int
}

// FrameStart returns the lowest member index.
func (c *Collection) FrameStart() int {
	return c.Indexes[0]
}

// FrameEnd returns the highest member index.
func (c *Collection) FrameEnd() int {
	return c.Indexes[len(c.Indexes)-1]
}

// FileName formats the member name for index.
func (c *Collection) FileName(index int) string {
	return fmt.Sprintf("%s%0*d%s", c.Head, c.Padding, index, c.Tail)
}

// FileNames returns every member name in index order.
func (c *Collection) FileNames() []string {
	names := make([]string, len(c.Indexes))
	for i, index := range c.Indexes {
		names[i] = c.FileName(index)
	}
	return names
}

// Template returns the collection name with the index replaced by a
// printf-style token, e.g. "shot.%04d.exr".
func (c *Collection) Template() string {
	return fmt.Sprintf("%s%%0%dd%s", c.Head, c.Padding, c.Tail)
}

// IsUDIM reports whether the collection looks like a UDIM tile set:
// four-digit indexes in the 1001 to 1999 range.
func (c *Collection) IsUDIM() bool {
	return c.Padding == 4 && c.FrameStart() >= 1001 && c.FrameEnd() <= 1999
}

type member struct {
	name  string
	index int
	width int
	zero  bool
}

// Assemble groups names into frame collections keyed by the text around
// the last digit run before the extension. Groups smaller than
// minimumItems, and names without a digit run, come back as remainders.
// minimumItems defaults to 2.
func Assemble(names []string, minimumItems int) ([]Collection, []string) {
	if minimumItems <= 0 {
		minimumItems = 2
	}

	type key struct {
		head string
		tail string
	}
	groups := make(map[key][]member)
	var order []key
	var remainders []string

	for _, name := range names {
		ext := filepath.Ext(name)
		stem := name[:len(name)-len(ext)]
		runs := digitRun.FindAllStringIndex(stem, -1)
		if runs == nil {
			remainders = append(remainders, name)
			continue
		}
		run := runs[len(runs)-1]
		token := stem[run[0]:run[1]]
		index, err := strconv.Atoi(token)
		if err != nil {
			remainders = append(remainders, name)
			continue
		}
		k := key{head: stem[:run[0]], tail: stem[run[1]:] + ext}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], member{
			name:  name,
			index: index,
			width: len(token),
			zero:  strings.HasPrefix(token, "0") && len(token) > 1,
		})
	}

	var collections []Collection
	for _, k := range order {
		members := groups[k]
		if len(members) < minimumItems {
			for _, m := range members {
				remainders = append(remainders, m.name)
			}
			continue
		}

		padding := 0
		sharedWidth := members[0].width
		indexes := make([]int, 0, len(members))
		seen := make(map[int]struct{}, len(members))
		for _, m := range members {
			if m.zero && m.width > padding {
				padding = m.width
			}
			if m.width != sharedWidth {
				sharedWidth = -1
			}
			if _, ok := seen[m.index]; !ok {
				seen[m.index] = struct{}{}
				indexes = append(indexes, m.index)
			}
		}
		// UDIM tiles and similar fixed-width tokens carry no leading
		// zero; a width shared by every member still counts as padding.
		if padding == 0 && sharedWidth > 1 {
			padding = sharedWidth
		}
		sort.Ints(indexes)

		collections = append(collections, Collection{
			Head:    k.head,
			Tail:    k.tail,
			Padding: padding,
			Indexes: indexes,
		})
	}
	return collections, remainders
}
