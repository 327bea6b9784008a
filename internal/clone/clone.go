// Package clone produces a standalone copy of a captured example region,
// rewritten so it stays valid when published under the gallery directory.
//
// The clone is an explicit deep copy followed by targeted byte-range rewrite
// passes; it never aliases the in-place rendition. Relative destinations are
// re-resolved for the gallery page's directory depth, absolute and external
// destinations are left untouched, and page-local reference targets are
// reconciled per the configured policy.
package clone

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/docgallery/internal/config"
	"git.home.luguber.info/inful/docgallery/internal/docmodel"
	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/logfields"
	"git.home.luguber.info/inful/docgallery/internal/marker"
	"git.home.luguber.info/inful/docgallery/internal/markdown"
	"git.home.luguber.info/inful/docgallery/internal/util/sets"
)

// Rewriter clones example regions for standalone publication.
type Rewriter struct {
	// GalleryDir is the gallery output directory relative to the content
	// root, slash-separated (e.g. "examples").
	GalleryDir string
	// Policy is config.RefPolicyBacklink or config.RefPolicyError.
	Policy string
}

// New creates a Rewriter from the gallery configuration.
func New(cfg config.GalleryConfig) *Rewriter {
	return &Rewriter{
		GalleryDir: path.Clean(strings.ReplaceAll(cfg.OutputDirectory, "\\", "/")),
		Policy:     cfg.UnresolvedReference,
	}
}

// Clone produces the standalone markdown for an example. doc must be the
// document the example was extracted from; its full body is consulted to
// detect reference conflicts between the region and the rest of the page.
//
// Clone is deterministic: the same inputs always yield byte-identical output.
func (rw *Rewriter) Clone(ex *marker.Example, doc *docmodel.Document) ([]byte, error) {
	if err := rw.checkAnchorConflicts(ex, doc); err != nil {
		return nil, err
	}

	content := append([]byte(nil), ex.Content...)

	localTargets := rw.localTargets(ex, content)
	edits, err := rw.rewriteEdits(ex, doc, content, localTargets)
	if err != nil {
		return nil, err
	}

	out, err := markdown.ApplyEdits(content, edits)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to rewrite cloned content").
			WithContext("example", ex.ID).
			Build()
	}

	out = rw.appendMissingRefDefs(ex, doc, out)
	return out, nil
}

// BacklinkPath returns the relative path from the gallery directory to the
// originating document.
func (rw *Rewriter) BacklinkPath(ex *marker.Example) string {
	return relativePath(rw.GalleryDir, ex.RelPath)
}

// localTargets returns the anchor IDs and heading IDs that remain resolvable
// inside the clone itself.
func (rw *Rewriter) localTargets(ex *marker.Example, content []byte) sets.Set[string] {
	targets := sets.New[string]()
	for _, h := range markdown.ExtractHeadings(content, marker.Slug) {
		targets.Add(h.ID)
	}
	anchors, _ := markdown.ScanHTML(content)
	fragRefs := fragmentRefs(content)
	for _, a := range anchors {
		// Anchors nothing in the region references are stripped from the
		// clone (see rewriteEdits), so they are not local targets.
		if fragRefs.Has(a.ID) {
			targets.Add(a.ID)
		}
	}
	return targets
}

// checkAnchorConflicts rejects regions that define a target which the rest of
// the original page depends on. The clone would have to either duplicate the
// target or strand the outside reference; both are authoring errors.
func (rw *Rewriter) checkAnchorConflicts(ex *marker.Example, doc *docmodel.Document) error {
	body := doc.Body()
	anchors, attrSpans := markdown.ScanHTML(body)

	inside := sets.New[string]()
	anchorLine := map[string]int{}
	for _, a := range anchors {
		if a.TagStart >= ex.ContentStart && a.TagStart < ex.ContentEnd {
			inside.Add(a.ID)
			anchorLine[a.ID] = a.Line
		}
	}
	if len(inside) == 0 {
		return nil
	}

	// Outside references come in both shapes: markdown links and raw-HTML hrefs.
	type ref struct {
		dest  string
		start int
		line  int
	}
	var refs []ref
	for _, span := range markdown.ScanLinks(body) {
		refs = append(refs, ref{dest: span.Destination, start: span.DestStart, line: span.Line})
	}
	for _, s := range attrSpans {
		refs = append(refs, ref{dest: s.Value, start: s.ValStart, line: s.Line})
	}

	for _, r := range refs {
		frag, ok := strings.CutPrefix(r.dest, "#")
		if !ok || !inside.Has(frag) {
			continue
		}
		if r.start >= ex.ContentStart && r.start < ex.ContentEnd {
			continue
		}
		return errors.NewError(errors.CategoryAuthoring,
			fmt.Sprintf("reference target %q is declared inside example %q but referenced outside it", frag, ex.Title)).
			WithSeverity(errors.SeverityFatal).
			WithContext("document", ex.Docname).
			WithContext("target_line", anchorLine[frag]+lineBase(doc)).
			WithContext("reference_line", r.line+lineBase(doc)).
			Build()
	}
	return nil
}

// rewriteEdits builds the byte-range edits for one clone: relative destination
// re-resolution, unreferenced anchor stripping, and fragment policy handling.
func (rw *Rewriter) rewriteEdits(ex *marker.Example, doc *docmodel.Document, content []byte, localTargets sets.Set[string]) ([]markdown.Edit, error) {
	var edits []markdown.Edit

	pageTargets := rw.pageTargets(doc)
	fragRefs := fragmentRefs(content)

	spans := markdown.ScanLinks(content)
	anchors, attrSpans := markdown.ScanHTML(content)

	for _, a := range anchors {
		if fragRefs.Has(a.ID) {
			continue
		}
		// An empty, link-free <a id>...</a> pair vanishes as a unit. A tag that
		// wraps content or doubles as a link must survive (its href may still be
		// rewritten below), so only the id attribute is dropped.
		if a.RemoveEnd > a.TagEnd && !a.HasHref {
			edits = append(edits, markdown.Edit{Start: a.TagStart, End: a.RemoveEnd})
			continue
		}
		if a.AttrStart >= 0 {
			edits = append(edits, markdown.Edit{Start: a.AttrStart, End: a.AttrEnd})
		}
	}

	for _, span := range spans {
		edit, err := rw.destinationEdit(ex, doc, span.Destination, span.DestStart, span.DestEnd, span.Line, localTargets, pageTargets)
		if err != nil {
			return nil, err
		}
		if edit != nil {
			edits = append(edits, *edit)
		}
	}

	for _, span := range attrSpans {
		edit, err := rw.destinationEdit(ex, doc, span.Value, span.ValStart, span.ValEnd, span.Line, localTargets, pageTargets)
		if err != nil {
			return nil, err
		}
		if edit != nil {
			edits = append(edits, *edit)
		}
	}

	return edits, nil
}

// destinationEdit computes the replacement for a single destination, or nil if
// it must stay untouched.
func (rw *Rewriter) destinationEdit(ex *marker.Example, doc *docmodel.Document, dest string, start, end, line int, localTargets, pageTargets sets.Set[string]) (*markdown.Edit, error) {
	switch {
	case dest == "" || isExternal(dest):
		return nil, nil

	case strings.HasPrefix(dest, "#"):
		frag := dest[1:]
		if localTargets.Has(frag) {
			return nil, nil
		}
		if !pageTargets.Has(frag) {
			// Broken before extraction; not this pipeline's conflict to resolve.
			slog.Warn("fragment link resolves nowhere on the originating page",
				logfields.Example(ex.ID), logfields.Document(ex.Docname), slog.String("fragment", frag))
			return nil, nil
		}
		if rw.Policy == config.RefPolicyError {
			return nil, errors.NewError(errors.CategoryAuthoring,
				fmt.Sprintf("example %q links to %q which only resolves on the originating page", ex.Title, dest)).
				WithSeverity(errors.SeverityFatal).
				WithContext("document", ex.Docname).
				WithContext("line", ex.ContentLine+line-1).
				Build()
		}
		backlink := rw.BacklinkPath(ex) + dest
		return &markdown.Edit{Start: start, End: end, Replacement: []byte(backlink)}, nil

	default:
		target, frag, _ := strings.Cut(dest, "#")
		resolved := path.Clean(path.Join(doc.Dir(), target))
		rewritten := relativePath(rw.GalleryDir, resolved)
		if frag != "" {
			rewritten += "#" + frag
		}
		return &markdown.Edit{Start: start, End: end, Replacement: []byte(rewritten)}, nil
	}
}

// pageTargets collects every fragment target the originating page defines:
// heading anchors and explicit HTML anchors, including the ones inside the
// region (the region stays in place on the original page).
func (rw *Rewriter) pageTargets(doc *docmodel.Document) sets.Set[string] {
	body := doc.Body()
	targets := sets.New[string]()
	for _, h := range markdown.ExtractHeadings(body, marker.Slug) {
		targets.Add(h.ID)
	}
	anchors, _ := markdown.ScanHTML(body)
	for _, a := range anchors {
		targets.Add(a.ID)
	}
	return targets
}

// appendMissingRefDefs copies reference definitions the region uses but does
// not itself define, with their destinations re-resolved. Without this a
// reference-style link in the clone would silently stop rendering as a link.
func (rw *Rewriter) appendMissingRefDefs(ex *marker.Example, doc *docmodel.Document, out []byte) []byte {
	regionDefs := sets.New[string]()
	for _, def := range markdown.ExtractReferenceDefinitions(ex.Content) {
		regionDefs.Add(strings.ToLower(def.Label))
	}

	var missing []string
	lower := strings.ToLower(string(ex.Content))
	for _, def := range markdown.ExtractReferenceDefinitions(doc.Body()) {
		label := strings.ToLower(def.Label)
		if regionDefs.Has(label) {
			continue
		}
		if !strings.Contains(lower, "["+label+"]") {
			continue
		}
		dest := def.Destination
		if !isExternal(dest) && !strings.HasPrefix(dest, "#") {
			target, frag, _ := strings.Cut(dest, "#")
			dest = relativePath(rw.GalleryDir, path.Clean(path.Join(doc.Dir(), target)))
			if frag != "" {
				dest += "#" + frag
			}
		}
		missing = append(missing, fmt.Sprintf("[%s]: %s", def.Label, dest))
	}

	if len(missing) == 0 {
		return out
	}
	var b strings.Builder
	b.Write(out)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	for _, line := range missing {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// isExternal reports whether a destination is location-independent: scheme
// URLs, protocol-relative URLs, and site-absolute paths resolve identically
// from the original and the cloned page.
func isExternal(dest string) bool {
	if strings.HasPrefix(dest, "//") || strings.HasPrefix(dest, "/") {
		return true
	}
	for i := 0; i < len(dest); i++ {
		c := dest[i]
		if c == ':' {
			return i > 0
		}
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '.' || c == '-') {
			return false
		}
	}
	return false
}

// relativePath computes the slash-separated relative path from fromDir to
// target, both relative to the content root.
func relativePath(fromDir, target string) string {
	from := path.Clean(fromDir)
	to := path.Clean(target)
	if from == "." {
		return to
	}

	fromParts := strings.Split(from, "/")
	toParts := strings.Split(to, "/")

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	var parts []string
	for i := common; i < len(fromParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return path.Join(parts...)
}

// fragmentRefs collects the fragments referenced from within content, from
// both markdown links and raw HTML hrefs.
func fragmentRefs(content []byte) sets.Set[string] {
	refs := sets.New[string]()
	for _, span := range markdown.ScanLinks(content) {
		if frag, ok := strings.CutPrefix(span.Destination, "#"); ok {
			refs.Add(frag)
		}
	}
	_, attrs := markdown.ScanHTML(content)
	for _, a := range attrs {
		if frag, ok := strings.CutPrefix(a.Value, "#"); ok {
			refs.Add(frag)
		}
	}
	return refs
}

func lineBase(doc *docmodel.Document) int {
	return doc.BodyLineOffset()
}
