package markdown

import (
	"bytes"
	"strings"
)

// LinkSpan locates a markdown link destination inside the original source.
// DestStart/DestEnd delimit exactly the destination bytes so a rewrite can be
// expressed as a single Edit.
type LinkSpan struct {
	Text        string
	Destination string
	DestStart   int
	DestEnd     int
	IsImage     bool
	IsRefDef    bool
	Line        int
}

// ScanLinks walks source iteratively and returns the spans of inline link and
// image destinations, plus reference definition destinations.
//
// An iterative scan is used instead of a regex to avoid catastrophic
// backtracking on pathological link text, and instead of the AST because
// goldmark does not expose destination byte offsets. Destinations inside
// fenced code blocks are ignored.
func ScanLinks(source []byte) []LinkSpan {
	fences := FenceRanges(source)
	var spans []LinkSpan

	spans = append(spans, scanRefDefs(source, fences)...)

	i := 0
	for i < len(source) {
		if source[i] != '[' || InFence(fences, i) {
			i++
			continue
		}
		span, next, ok := tryScanLink(source, i)
		if !ok {
			i++
			continue
		}
		spans = append(spans, span)
		i = next
	}
	return spans
}

func tryScanLink(source []byte, start int) (LinkSpan, int, bool) {
	isImage := start > 0 && source[start-1] == '!'

	closeBracket := findClosingBracket(source, start+1)
	if closeBracket == -1 {
		return LinkSpan{}, 0, false
	}
	if closeBracket+1 >= len(source) || source[closeBracket+1] != '(' {
		return LinkSpan{}, 0, false
	}
	closeParen := findClosingParen(source, closeBracket+2)
	if closeParen == -1 {
		return LinkSpan{}, 0, false
	}

	destStart := closeBracket + 2
	destEnd := closeParen
	dest := string(source[destStart:destEnd])

	// Strip an optional title: [text](dest "title").
	if idx := strings.Index(dest, " \""); idx >= 0 {
		destEnd = destStart + idx
		dest = dest[:idx]
	}

	return LinkSpan{
		Text:        string(source[start+1 : closeBracket]),
		Destination: dest,
		DestStart:   destStart,
		DestEnd:     destEnd,
		IsImage:     isImage,
		Line:        LineAt(source, start),
	}, closeParen + 1, true
}

// findClosingBracket finds the next ] on the same or immediately following line.
// A blank line ends the candidate link text.
func findClosingBracket(source []byte, start int) int {
	for i := start; i < len(source); i++ {
		switch source[i] {
		case ']':
			return i
		case '\n':
			if i+1 < len(source) && source[i+1] == '\n' {
				return -1
			}
		}
	}
	return -1
}

// findClosingParen finds the next ) before a newline. Destinations containing
// spaces are accepted up to an optional quoted title.
func findClosingParen(source []byte, start int) int {
	for i := start; i < len(source); i++ {
		switch source[i] {
		case ')':
			return i
		case '\n':
			return -1
		}
	}
	return -1
}

// scanRefDefs locates destinations of reference definitions: [label]: dest
func scanRefDefs(source []byte, fences [][2]int) []LinkSpan {
	var spans []LinkSpan
	offset := 0
	for _, lineBytes := range bytes.SplitAfter(source, []byte("\n")) {
		lineStart := offset
		offset += len(lineBytes)
		if InFence(fences, lineStart) {
			continue
		}
		line := bytes.TrimRight(lineBytes, "\r\n")
		if len(line) == 0 || line[0] != '[' {
			continue
		}
		close := bytes.IndexByte(line, ']')
		if close < 1 || close+1 >= len(line) || line[close+1] != ':' {
			continue
		}
		rest := line[close+2:]
		trimmed := bytes.TrimLeft(rest, " \t")
		if len(trimmed) == 0 {
			continue
		}
		destStart := lineStart + close + 2 + (len(rest) - len(trimmed))
		dest := trimmed
		if idx := bytes.IndexAny(trimmed, " \t"); idx > 0 {
			dest = trimmed[:idx]
		}
		spans = append(spans, LinkSpan{
			Text:        string(line[1:close]),
			Destination: string(dest),
			DestStart:   destStart,
			DestEnd:     destStart + len(dest),
			IsRefDef:    true,
			Line:        LineAt(source, lineStart),
		})
	}
	return spans
}

// FenceRanges returns the byte ranges of fenced code blocks (``` or ~~~).
func FenceRanges(source []byte) [][2]int {
	var ranges [][2]int
	var open int
	inBlock := false
	var marker byte

	offset := 0
	for _, lineBytes := range bytes.SplitAfter(source, []byte("\n")) {
		lineStart := offset
		offset += len(lineBytes)
		trimmed := bytes.TrimLeft(lineBytes, " \t")
		isFence := bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~"))
		if !isFence {
			continue
		}
		if !inBlock {
			inBlock = true
			marker = trimmed[0]
			open = lineStart
		} else if trimmed[0] == marker {
			inBlock = false
			ranges = append(ranges, [2]int{open, offset})
		}
	}
	if inBlock {
		ranges = append(ranges, [2]int{open, len(source)})
	}
	return ranges
}

// InFence reports whether a byte offset falls inside any of the given ranges.
func InFence(ranges [][2]int, off int) bool {
	for _, r := range ranges {
		if off >= r[0] && off < r[1] {
			return true
		}
	}
	return false
}
