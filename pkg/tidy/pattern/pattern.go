// Package pattern recognizes version markers such as "(1)", "_2" or "-3"
// appended to filenames by browsers and "save as" dialogs, and picks the
// canonical file among same-content name variants.
package pattern

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// markerPattern matches a base name followed by a trailing marker.
var markerPattern = regexp.MustCompile(`(?i)^(.+?)[(_-](\d+)\)?$`)

// Detect parses the version marker out of filename. Only a marker at the
// very end of the name (before the extension) counts.
func Detect(filename string) types.PatternInfo {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	plain := types.PatternInfo{BaseName: stem}

	if strings.TrimSpace(stem) == "" {
		return plain
	}

	m := markerPattern.FindStringSubmatch(stem)
	if m == nil {
		return plain
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return plain
	}

	return types.PatternInfo{HasPattern: true, Number: &n, BaseName: m[1]}
}

// StripMarker returns path with the version marker removed from its file
// name. Paths without a marker are returned unchanged.
func StripMarker(path string) string {
	name := filepath.Base(path)
	info := Detect(name)
	if !info.HasPattern {
		return path
	}
	return filepath.Join(filepath.Dir(path), info.BaseName+filepath.Ext(name))
}

// SelectCanonical chooses the file to keep among same-content paths:
//  1. the alphabetically lowest path without a marker, if any;
//  2. otherwise the path with the highest marker number, ties broken
//     alphabetically;
//  3. otherwise the alphabetically lowest path.
//
// It returns "" for an empty input.
func SelectCanonical(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	type candidate struct {
		path string
		info types.PatternInfo
	}
	candidates := make([]candidate, 0, len(paths))
	var plain []string
	allNumbered := true
	for _, p := range paths {
		info := Detect(filepath.Base(p))
		candidates = append(candidates, candidate{path: p, info: info})
		if !info.HasPattern {
			plain = append(plain, p)
		}
		if info.Number == nil {
			allNumbered = false
		}
	}

	if len(plain) > 0 {
		return lowest(plain)
	}

	if allNumbered {
		sort.SliceStable(candidates, func(i, j int) bool {
			ni, nj := *candidates[i].info.Number, *candidates[j].info.Number
			if ni != nj {
				return ni > nj
			}
			return lessFold(candidates[i].path, candidates[j].path)
		})
		return candidates[0].path
	}

	return lowest(paths)
}

// lowest returns the alphabetically lowest path, comparing file names
// case-insensitively first.
func lowest(paths []string) string {
	best := paths[0]
	for _, p := range paths[1:] {
		if lessFold(p, best) {
			best = p
		}
	}
	return best
}

func lessFold(a, b string) bool {
	na, nb := strings.ToLower(filepath.Base(a)), strings.ToLower(filepath.Base(b))
	if na != nb {
		return na < nb
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}
