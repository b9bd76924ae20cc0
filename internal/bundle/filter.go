package bundle

import (
	"strings"
)

// Filter decides which header lines are dropped when headers are merged into
// one file. Implementation files never go through it.
type Filter struct {
	// VendorPrefix is the vendor folder name. Quoted includes that start with
	// "<VendorPrefix>/" stay in the bundle because the vendor directory ships
	// next to it. Empty means every quoted include is local.
	VendorPrefix string
}

// DropLine applies the single-line rules: quoted local includes and
// "#pragma once" markers are dropped, everything else is kept.
func (f Filter) DropLine(line string) bool {
	keyword, args, ok := parseDirective(line)
	if !ok {
		return false
	}
	switch keyword {
	case "include":
		return f.isLocalInclude(args)
	case "pragma":
		return stripComment(args) == "once"
	}
	return false
}

// Apply returns the lines of one header that survive filtering. Lines keep
// their original endings. On top of DropLine it removes the include-guard
// triple when the file is wrapped in one; other conditionals and defines
// are left alone.
func (f Filter) Apply(lines []string) []string {
	guard := f.findGuard(lines)
	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if guard[i] || f.DropLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

func (f Filter) isLocalInclude(args string) bool {
	if !strings.HasPrefix(args, `"`) {
		return false
	}
	if f.VendorPrefix == "" {
		return true
	}
	return !strings.HasPrefix(args, `"`+strings.Trim(f.VendorPrefix, "/")+"/")
}

// findGuard locates the classic guard: the first directive is
// "#ifndef NAME" (or "#if !defined(NAME)"), the next significant line is
// "#define NAME" with no value, and the "#endif" closing that conditional is
// the last significant line. Lines DropLine removes anyway, such as
// "#pragma once", are not counted. It returns the indexes to drop, or nil
// when the file is not guarded.
func (f Filter) findGuard(lines []string) map[int]bool {
	var significant []int
	for _, i := range significantLines(lines) {
		if !f.DropLine(lines[i]) {
			significant = append(significant, i)
		}
	}
	if len(significant) < 3 {
		return nil
	}
	first, second := significant[0], significant[1]

	name, ok := guardOpen(lines[first])
	if !ok {
		return nil
	}
	keyword, args, ok := parseDirective(lines[second])
	if !ok || keyword != "define" || stripComment(args) != name {
		return nil
	}
	closing := matchingEndif(lines, significant)
	if closing != len(significant)-1 {
		return nil
	}
	return map[int]bool{first: true, second: true, significant[closing]: true}
}

// matchingEndif returns the position in significant of the "#endif" that
// closes the conditional opened at significant[0], or -1 if it is never
// closed.
func matchingEndif(lines []string, significant []int) int {
	depth := 0
	for pos, i := range significant {
		keyword, _, ok := parseDirective(lines[i])
		if !ok {
			continue
		}
		switch keyword {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			depth--
			if depth == 0 {
				return pos
			}
		}
	}
	return -1
}

func guardOpen(line string) (string, bool) {
	keyword, args, ok := parseDirective(line)
	if !ok {
		return "", false
	}
	args = stripComment(args)
	switch keyword {
	case "ifndef":
		return args, isMacroName(args)
	case "if":
		rest, found := strings.CutPrefix(args, "!")
		if !found {
			return "", false
		}
		rest, found = strings.CutPrefix(strings.TrimSpace(rest), "defined")
		if !found {
			return "", false
		}
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
			rest = strings.TrimSpace(rest[1 : len(rest)-1])
		}
		return rest, isMacroName(rest)
	}
	return "", false
}

// significantLines returns the indexes of lines that are neither blank nor
// part of a comment.
func significantLines(lines []string) []int {
	var idx []int
	inBlock := false
	for i, line := range lines {
		text := strings.TrimSpace(line)
		if inBlock {
			if end := strings.Index(text, "*/"); end >= 0 {
				inBlock = false
				text = strings.TrimSpace(text[end+2:])
			} else {
				continue
			}
		}
		if strings.HasPrefix(text, "/*") {
			end := strings.Index(text[2:], "*/")
			if end < 0 {
				inBlock = true
				continue
			}
			text = strings.TrimSpace(text[end+4:])
		}
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// parseDirective splits a preprocessor line into its keyword and arguments.
// Whitespace before and after the '#' is allowed.
func parseDirective(line string) (string, string, bool) {
	text := strings.TrimRight(strings.TrimLeft(line, " \t"), "\r\n")
	if !strings.HasPrefix(text, "#") {
		return "", "", false
	}
	text = strings.TrimLeft(text[1:], " \t")
	end := 0
	for end < len(text) && isLetter(text[end]) {
		end++
	}
	if end == 0 {
		return "", "", false
	}
	return text[:end], strings.TrimSpace(text[end:]), true
}

func stripComment(args string) string {
	if i := strings.Index(args, "//"); i >= 0 {
		args = args[:i]
	}
	if i := strings.Index(args, "/*"); i >= 0 {
		args = args[:i]
	}
	return strings.TrimSpace(args)
}

func isMacroName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(isLetter(c) || c == '_' || (i > 0 && c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// SplitLines breaks data into lines, each keeping its terminator. A final
// line without a newline is returned as is.
func SplitLines(data string) []string {
	if data == "" {
		return nil
	}
	lines := strings.SplitAfter(data, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
