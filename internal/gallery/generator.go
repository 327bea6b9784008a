// Package gallery synthesizes the example gallery content tree from a sealed
// registry: one page per example, a landing page, and one page per tag.
//
// Generation is a pure function of the registry (plus the source commit
// stamp): re-running it against an unchanged registry yields byte-identical
// artifacts, and artifacts of removed or renamed examples are purged.
package gallery

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"path"

	"git.home.luguber.info/inful/docgallery/internal/clone"
	"git.home.luguber.info/inful/docgallery/internal/config"
	"git.home.luguber.info/inful/docgallery/internal/docmodel"
	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/frontmatter"
	"git.home.luguber.info/inful/docgallery/internal/logfields"
	"git.home.luguber.info/inful/docgallery/internal/marker"
	"git.home.luguber.info/inful/docgallery/internal/registry"
	"git.home.luguber.info/inful/docgallery/internal/util/sets"
)

// Artifact is one generated gallery file.
type Artifact struct {
	// RelPath is the file path relative to the gallery directory, slash-separated.
	RelPath string
	Content []byte
	// Fingerprint is the sha256 of Content, recorded in the build manifest.
	Fingerprint string
}

// Generator renders gallery artifacts in memory. Writing and purging are the
// coordinator's concern so a failed render never leaves a half-written gallery.
type Generator struct {
	rewriter *clone.Rewriter
	// SourceCommit, when known, is stamped into generated frontmatter.
	SourceCommit string
}

// NewGenerator creates a Generator for the given gallery configuration.
func NewGenerator(cfg config.GalleryConfig) *Generator {
	return &Generator{rewriter: clone.New(cfg)}
}

type tagRef struct {
	Name string
	Href string
}

type exampleRef struct {
	Title string
	Href  string
	Tags  []tagRef
}

// Generate renders every gallery artifact from the sealed registry. docs maps
// docname to the parsed source document of each example (pristine bodies, for
// reference-conflict analysis during cloning).
func (g *Generator) Generate(reg *registry.Registry, docs map[string]*docmodel.Document) ([]Artifact, error) {
	all, err := reg.All()
	if err != nil {
		return nil, err
	}
	tags, err := reg.Tags()
	if err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(all)+len(tags)+1)

	for _, ex := range all {
		doc, ok := docs[ex.Docname]
		if !ok {
			return nil, errors.NewError(errors.CategoryInternal, "example has no parsed source document").
				WithContext("example", ex.ID).
				WithContext("document", ex.Docname).
				Build()
		}
		page, err := g.examplePage(ex, doc)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, page)
		slog.Debug("rendered example page", logfields.Example(ex.ID), logfields.Path(page.RelPath))
	}

	landing, err := g.landingPage(all)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, landing)

	for _, tag := range tags {
		tagged, err := reg.ByTag(tag)
		if err != nil {
			return nil, err
		}
		page, err := g.tagPage(tag, tagged)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, page)
		slog.Debug("rendered tag page", logfields.Tag(tag), logfields.Path(page.RelPath))
	}

	return artifacts, nil
}

func (g *Generator) examplePage(ex *marker.Example, doc *docmodel.Document) (Artifact, error) {
	content, err := g.rewriter.Clone(ex, doc)
	if err != nil {
		return Artifact{}, err
	}

	fm := map[string]any{
		"title":      ex.Title,
		"example_id": ex.ID,
		"source":     ex.Docname,
	}
	if tags := sortedTags(ex); len(tags) > 0 {
		fm["tags"] = tags
	}
	if g.SourceCommit != "" {
		fm["source_commit"] = g.SourceCommit
	}

	body, err := renderTemplate("example", examplePageTemplate, map[string]any{
		"Title":        ex.Title,
		"SourceDoc":    ex.Docname,
		"Backlink":     g.rewriter.BacklinkPath(ex),
		"SourceAnchor": ex.SourceAnchor(),
		"Tags":         tagRefs(ex, "tags"),
		"Content":      string(content),
	})
	if err != nil {
		return Artifact{}, err
	}

	return g.artifact(ExamplePagePath(ex.ID), fm, body)
}

func (g *Generator) landingPage(all []*marker.Example) (Artifact, error) {
	refs := make([]exampleRef, 0, len(all))
	for _, ex := range all {
		refs = append(refs, exampleRef{
			Title: ex.Title,
			Href:  ExamplePagePath(ex.ID),
			Tags:  tagRefs(ex, "tags"),
		})
	}

	body, err := renderTemplate("landing", landingPageTemplate, map[string]any{"Examples": refs})
	if err != nil {
		return Artifact{}, err
	}
	return g.artifact(LandingPagePath, map[string]any{"title": "Example gallery"}, body)
}

func (g *Generator) tagPage(tag string, tagged []*marker.Example) (Artifact, error) {
	refs := make([]exampleRef, 0, len(tagged))
	for _, ex := range tagged {
		// Tag pages live one level down from example pages.
		refs = append(refs, exampleRef{Title: ex.Title, Href: path.Join("..", ExamplePagePath(ex.ID))})
	}

	body, err := renderTemplate("tag", tagPageTemplate, map[string]any{
		"Tag":      tag,
		"Examples": refs,
	})
	if err != nil {
		return Artifact{}, err
	}
	return g.artifact(TagPagePath(tag), map[string]any{"title": "Examples tagged " + tag}, body)
}

func (g *Generator) artifact(relPath string, fm map[string]any, body []byte) (Artifact, error) {
	fmBytes, err := frontmatter.SerializeYAML(fm)
	if err != nil {
		return Artifact{}, errors.WrapError(err, errors.CategoryGallery, "failed to serialize page frontmatter").
			WithContext("path", relPath).
			Build()
	}
	full := frontmatter.Join(fmBytes, body, true, frontmatter.Style{Newline: "\n"})
	sum := sha256.Sum256(full)
	return Artifact{
		RelPath:     relPath,
		Content:     full,
		Fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

// LandingPagePath is the gallery landing page, an index file so Hugo-style
// engines treat the gallery directory as a section.
const LandingPagePath = "_index.md"

// ExamplePagePath returns the gallery-relative path of an example page.
func ExamplePagePath(id string) string {
	return id + ".md"
}

// TagPagePath returns the gallery-relative path of a tag page.
func TagPagePath(tag string) string {
	return path.Join("tags", marker.Slug(tag)+".md")
}

func tagRefs(ex *marker.Example, tagDir string) []tagRef {
	tags := sortedTags(ex)
	refs := make([]tagRef, 0, len(tags))
	for _, t := range tags {
		refs = append(refs, tagRef{Name: t, Href: path.Join(tagDir, marker.Slug(t)+".md")})
	}
	return refs
}

func sortedTags(ex *marker.Example) []string {
	return sets.Sorted(ex.Tags)
}
