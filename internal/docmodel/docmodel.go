// Package docmodel represents a markdown source document flowing through the
// gallery pipeline: its identity inside the docs tree, its frontmatter, and
// its body.
package docmodel

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/frontmatter"
)

// Document is a markdown source file split into frontmatter and body.
//
// Docname is the project-relative path without extension (forward slashes),
// e.g. "guides/install". It is the document identity used for example
// back-references and error reporting.
type Document struct {
	Docname  string
	FilePath string
	RelPath  string

	fmRaw []byte
	body  []byte
	hadFM bool
	style frontmatter.Style
}

// Parse splits raw file content into a Document.
func Parse(relPath string, content []byte) (*Document, error) {
	fmRaw, body, had, style, err := frontmatter.Split(content)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to split frontmatter").
			WithContext("path", relPath).
			Build()
	}

	rel := filepath.ToSlash(relPath)
	return &Document{
		Docname: strings.TrimSuffix(rel, filepath.Ext(rel)),
		RelPath: rel,
		fmRaw:   append([]byte(nil), fmRaw...),
		body:    append([]byte(nil), body...),
		hadFM:   had,
		style:   style,
	}, nil
}

// ParseFile reads a file from disk and parses it into a Document.
// relPath is the path relative to the docs root; root+relPath locates the file.
func ParseFile(root, relPath string) (*Document, error) {
	full := filepath.Join(root, relPath)
	// #nosec G304 -- paths come from walking the configured docs root.
	content, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read document").
			WithContext("path", full).
			Build()
	}

	doc, err := Parse(relPath, content)
	if err != nil {
		return nil, err
	}
	doc.FilePath = full
	return doc, nil
}

// Body returns a copy of the markdown body bytes (frontmatter removed).
func (d *Document) Body() []byte {
	return append([]byte(nil), d.body...)
}

// SetBody replaces the body, e.g. after marker stripping.
func (d *Document) SetBody(body []byte) {
	d.body = append([]byte(nil), body...)
}

// HadFrontmatter reports whether the source contained a YAML frontmatter block.
func (d *Document) HadFrontmatter() bool {
	return d.hadFM
}

// FrontmatterRaw returns the raw YAML frontmatter bytes (without delimiters),
// or nil when the document had none.
func (d *Document) FrontmatterRaw() []byte {
	if !d.hadFM {
		return nil
	}
	return append([]byte(nil), d.fmRaw...)
}

// Style returns the newline style detected when the document was split.
func (d *Document) Style() frontmatter.Style {
	return d.style
}

// Bytes re-joins frontmatter and the current body into full document bytes.
func (d *Document) Bytes() []byte {
	return frontmatter.Join(d.fmRaw, d.body, d.hadFM, d.style)
}

// BodyLineOffset returns the number of file lines preceding the body, so body
// line numbers can be reported as file line numbers in error messages.
func (d *Document) BodyLineOffset() int {
	if !d.hadFM {
		return 0
	}
	lines := 2 // the two --- delimiter lines
	for _, b := range d.fmRaw {
		if b == '\n' {
			lines++
		}
	}
	return lines
}

// Dir returns the document's directory relative to the docs root ("." for
// top-level documents).
func (d *Document) Dir() string {
	dir := filepath.ToSlash(filepath.Dir(d.RelPath))
	if dir == "" {
		return "."
	}
	return dir
}
