// Package markdown provides parsing and analysis of Markdown bodies
// (frontmatter already removed) for the gallery pipeline.
//
// Goldmark is used for structural analysis (headings, reference definitions).
// Rewriting is done with byte-range edits over the original source instead of
// re-rendering the AST, so untouched content stays byte-identical.
package markdown

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Heading is a markdown heading with its rendered anchor ID.
type Heading struct {
	Level int
	Text  string
	ID    string
	Line  int
}

// ReferenceDefinition is a link reference definition ("[label]: url").
type ReferenceDefinition struct {
	Label       string
	Destination string
}

// IDFunc derives an anchor ID from heading text. The caller supplies the same
// slug function used for example identifiers so fragment resolution matches
// the host engine's anchor generation.
type IDFunc func(text string) string

// ExtractHeadings parses body and returns its headings with anchor IDs.
func ExtractHeadings(body []byte, id IDFunc) []Heading {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var headings []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		txt := headingText(h, body)
		line := 1
		if h.Lines().Len() > 0 {
			line = LineAt(body, h.Lines().At(0).Start)
		}
		headings = append(headings, Heading{
			Level: h.Level,
			Text:  txt,
			ID:    id(txt),
			Line:  line,
		})
		return gmast.WalkSkipChildren, nil
	})
	return headings
}

// ExtractReferenceDefinitions returns the link reference definitions of body,
// sorted by label. Goldmark keeps these in the parse context rather than the AST.
func ExtractReferenceDefinitions(body []byte) []ReferenceDefinition {
	md := goldmark.New()
	ctx := parser.NewContext()
	md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	refs := ctx.References()
	out := make([]ReferenceDefinition, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ReferenceDefinition{
			Label:       string(ref.Label()),
			Destination: string(ref.Destination()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func headingText(h *gmast.Heading, body []byte) string {
	var b strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			b.Write(t.Segment.Value(body))
			continue
		}
		// Emphasis, code spans etc: fall back to the node's covering text.
		if c.Type() == gmast.TypeInline {
			for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
				if t, ok := gc.(*gmast.Text); ok {
					b.Write(t.Segment.Value(body))
				}
			}
		}
	}
	return strings.TrimSpace(b.String())
}
