package retrieval

import (
	"regexp"
	"strings"
)

var (
	reGrade12    = regexp.MustCompile(`\b12\b`)
	reGrade11    = regexp.MustCompile(`\b11\b`)
	reGrade10    = regexp.MustCompile(`\b10\b`)
	reSeparators = regexp.MustCompile(`[.\-]`)
	reGradeDigit = regexp.MustCompile(`(XII|XI|X)(\d)`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// NormalizeClassName maps the many spellings of a class ("10.1", "x-1",
// "X1", "10 IPA 1") onto one form ("X 1", "X IPA 1").
func NormalizeClassName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return ""
	}
	n = reGrade12.ReplaceAllString(n, "XII")
	n = reGrade11.ReplaceAllString(n, "XI")
	n = reGrade10.ReplaceAllString(n, "X")
	n = reSeparators.ReplaceAllString(n, " ")
	n = reGradeDigit.ReplaceAllString(n, "$1 $2")
	n = reSpaces.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// isClassColumn reports whether a column holds class names.
func isClassColumn(column string) bool {
	c := strings.ToLower(column)
	return strings.Contains(c, "rombel") || strings.Contains(c, "kelas")
}

// matches reports whether want is a case-insensitive substring of cell,
// normalizing class names first for class columns.
func matches(column, cell, want string) bool {
	if isClassColumn(column) {
		return strings.Contains(NormalizeClassName(cell), NormalizeClassName(want))
	}
	return strings.Contains(strings.ToLower(cell), strings.ToLower(strings.TrimSpace(want)))
}
