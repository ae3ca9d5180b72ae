package application

import "unicode/utf16"

// PageLimit is the maximum length of one listing page.
const PageLimit = 4000

// PackPages groups lines, in order, into pages of at most limit characters.
// Characters are UTF-16 code units, the unit Discord measures embed text in,
// so an emoji outside the BMP counts twice.
// A line is appended while len(page)+len(line) <= limit; otherwise the page
// is flushed and the line starts a new one. A single line longer than limit
// gets a page of its own.
func PackPages(lines []string, limit int) []string {
	if limit <= 0 {
		limit = PageLimit
	}

	var (
		pages   []string
		current string
		size    int
	)
	for _, line := range lines {
		n := utf16Len(line)
		if size > 0 && size+n > limit {
			pages = append(pages, current)
			current, size = "", 0
		}
		current += line
		size += n
	}
	if size > 0 {
		pages = append(pages, current)
	}
	return pages
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r1 := utf16.RuneLen(r); r1 > 0 {
			n += r1
		} else {
			n++
		}
	}
	return n
}
