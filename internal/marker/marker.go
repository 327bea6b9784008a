// Package marker recognizes example regions in markdown documents.
//
// A region is delimited by HTML-comment markers, each alone on its own line:
//
//	<!-- example: Title Of Example -->
//	<!-- tags: tag-1, tag-2 -->
//	...content...
//	<!-- /example -->
//
// The tags line is optional and must immediately follow the start marker.
// Extraction captures the region content as an independent copy and produces
// the in-place body with the marker lines removed, so the original page
// renders exactly as if no marker were present.
package marker

import (
	"bytes"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docgallery/internal/docmodel"
	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/markdown"
	"git.home.luguber.info/inful/docgallery/internal/util/sets"
)

const (
	startPrefix = "<!-- example:"
	tagsPrefix  = "<!-- tags:"
	endMarker   = "<!-- /example -->"
	markerClose = "-->"

	// SourceAnchorPrefix prefixes the invisible anchor left on the original
	// page where the start marker stood; gallery pages link back to it.
	SourceAnchorPrefix = "example-src-"
)

// Example is a captured content block.
type Example struct {
	ID      string
	Title   string
	Tags    sets.Set[string]
	Docname string
	RelPath string
	// Line is the 1-based file line of the start marker.
	Line int
	// Content is an independent copy of the region's markdown content.
	Content []byte
	// ContentStart/ContentEnd delimit the captured content inside the
	// original body, for conflict analysis against the rest of the page.
	ContentStart int
	ContentEnd   int
	// ContentLine is the 1-based file line where the captured content begins.
	ContentLine int
}

// SourceAnchor returns the anchor ID emitted on the originating page.
func (e *Example) SourceAnchor() string {
	return SourceAnchorPrefix + e.ID
}

// Extraction is the result of scanning one document.
type Extraction struct {
	Examples []*Example
	// Body is the in-place body with marker lines stripped and source
	// anchors inserted.
	Body []byte
}

// ExtractDocument scans a parsed document for example regions.
//
// Structural authoring errors (nested markers, unclosed region, empty title)
// are fatal and identify the document and line. Title uniqueness is global
// state and is enforced by the registry, not here.
func ExtractDocument(doc *docmodel.Document) (*Extraction, error) {
	body := doc.Body()
	lineOffset := doc.BodyLineOffset()
	// Marker lines inside fenced code blocks are literal text (e.g. docs
	// describing the marker syntax itself), never region delimiters.
	fences := markdown.FenceRanges(body)

	var (
		examples []*Example
		edits    []markdown.Edit
		current  *Example
		startLn  int
	)

	offset := 0
	prevWasStart := false
	for _, lineBytes := range bytes.SplitAfter(body, []byte("\n")) {
		lineStart := offset
		offset += len(lineBytes)
		line := strings.TrimSpace(string(lineBytes))
		fileLine := markdown.LineAt(body, lineStart) + lineOffset

		if markdown.InFence(fences, lineStart) {
			if current != nil && current.ContentStart == 0 {
				current.ContentStart = lineStart
			}
			prevWasStart = false
			continue
		}

		switch {
		case strings.HasPrefix(line, startPrefix):
			if current != nil {
				return nil, authoringErr(doc, fileLine,
					fmt.Sprintf("example marker inside the example started at line %d; markers may not nest", startLn))
			}
			title, err := parseTitle(line)
			if err != nil {
				return nil, authoringErr(doc, fileLine, err.Error())
			}
			current = &Example{
				ID:      Slug(title),
				Title:   title,
				Tags:    sets.New[string](),
				Docname: doc.Docname,
				RelPath: doc.RelPath,
				Line:    fileLine,
			}
			startLn = fileLine
			prevWasStart = true
			// The start marker line becomes an invisible backlink anchor.
			anchor := fmt.Sprintf("<a id=%q></a>\n", current.SourceAnchor())
			edits = append(edits, markdown.Edit{
				Start:       lineStart,
				End:         lineStart + len(lineBytes),
				Replacement: []byte(anchor),
			})

		case strings.HasPrefix(line, tagsPrefix) && prevWasStart:
			for _, t := range strings.Split(strings.TrimSuffix(strings.TrimPrefix(line, tagsPrefix), markerClose), ",") {
				if tag := strings.TrimSpace(t); tag != "" {
					current.Tags.Add(tag)
				}
			}
			prevWasStart = false
			edits = append(edits, markdown.Edit{Start: lineStart, End: lineStart + len(lineBytes)})

		case line == endMarker:
			if current == nil {
				return nil, authoringErr(doc, fileLine, "closing example marker without a matching start marker")
			}
			if current.ContentStart == 0 {
				current.ContentStart = lineStart
			}
			current.ContentEnd = lineStart
			current.Content = append([]byte(nil), body[current.ContentStart:current.ContentEnd]...)
			current.ContentLine = markdown.LineAt(body, current.ContentStart) + lineOffset
			examples = append(examples, current)
			current = nil
			prevWasStart = false
			edits = append(edits, markdown.Edit{Start: lineStart, End: lineStart + len(lineBytes)})

		default:
			// Blank lines between the markers and the content belong to the
			// capture so the in-place and standalone renditions stay identical.
			if current != nil && current.ContentStart == 0 {
				current.ContentStart = lineStart
			}
			prevWasStart = false
		}
	}

	if current != nil {
		return nil, authoringErr(doc, startLn, "example region is never closed; missing <!-- /example -->")
	}

	stripped, err := markdown.ApplyEdits(body, edits)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to strip example markers").
			WithContext("document", doc.Docname).
			Build()
	}

	return &Extraction{Examples: examples, Body: stripped}, nil
}

func parseTitle(line string) (string, error) {
	if !strings.HasSuffix(line, markerClose) {
		return "", fmt.Errorf("malformed example marker %q", line)
	}
	title := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, startPrefix), markerClose))
	if title == "" {
		return "", fmt.Errorf("example marker requires a title")
	}
	return title, nil
}

func authoringErr(doc *docmodel.Document, line int, msg string) error {
	return errors.NewError(errors.CategoryAuthoring, msg).
		WithSeverity(errors.SeverityFatal).
		WithContext("document", doc.Docname).
		WithContext("line", line).
		Build()
}
