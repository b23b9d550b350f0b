// Package hunkheader parses the "@@ -a,b +c,d @@" line unified diff
// uses to mark where a hunk starts in the old and new file.
package hunkheader

import "regexp"

var pattern = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// Range is the starting line number of one side of a hunk, as declared
// by its header. Line counts within the hunk body are not reported
// here: callers track their own position by counting Context/Removed/
// Added lines as they arrive.
type Range struct {
	OldStart int
	NewStart int
}

// Parse extracts the old and new starting line numbers from a hunk
// header line. ok is false if line does not match the expected shape,
// in which case Range is the zero value.
func Parse(line []byte) (Range, bool) {
	m := pattern.FindSubmatch(line)
	if m == nil {
		return Range{}, false
	}
	old := atoi(m[1])
	new := atoi(m[2])
	return Range{OldStart: old, NewStart: new}, true
}

func atoi(b []byte) int {
	n := 0
	for _, c := range b {
		n = n*10 + int(c-'0')
	}
	return n
}
