package markdown

import (
	"bytes"

	"golang.org/x/net/html"
)

// HTMLAnchor is an explicit reference target declared in raw HTML, e.g.
// <a id="install-step"></a>. These are the page-local targets that must not be
// duplicated when an example is republished.
type HTMLAnchor struct {
	ID       string
	TagStart int
	TagEnd   int
	// RemoveEnd extends past an immediately following </a> so an empty anchor
	// can be deleted as a unit. Equal to TagEnd when the tag wraps content.
	RemoveEnd int
	// AttrStart/AttrEnd delimit the id (or name) attribute including its
	// leading whitespace, so the attribute alone can be removed from a tag
	// that must otherwise survive. AttrStart is -1 when the attribute could
	// not be located in the raw bytes.
	AttrStart int
	AttrEnd   int
	// HasHref reports whether the same tag also carries an href: such a tag is
	// a link, not just a target, and must never be deleted wholesale.
	HasHref bool
	Line    int
}

// HTMLAttrSpan locates a link-carrying attribute value (href/src) in a raw
// HTML tag embedded in the markdown source.
type HTMLAttrSpan struct {
	Tag      string
	Attr     string
	Value    string
	ValStart int
	ValEnd   int
	Line     int
}

// ScanHTML tokenizes the raw HTML embedded in a markdown body and returns
// explicit anchors plus href/src attribute spans. Content inside fenced code
// blocks is ignored.
func ScanHTML(source []byte) ([]HTMLAnchor, []HTMLAttrSpan) {
	fences := FenceRanges(source)

	var anchors []HTMLAnchor
	var attrs []HTMLAttrSpan

	tok := html.NewTokenizer(bytes.NewReader(source))
	offset := 0
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := tok.Raw()
		tagStart := offset
		offset += len(raw)

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		if InFence(fences, tagStart) {
			continue
		}

		name, hasAttr := tok.TagName()
		tag := string(name)
		var id, idKey string
		var idVal []byte
		hasHref := false
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = tok.TagAttr()
			switch string(key) {
			case "id", "name":
				if tag == "a" && id == "" {
					id = string(val)
					idKey = string(key)
					idVal = val
				}
			case "href", "src":
				if string(key) == "href" {
					hasHref = true
				}
				if span, ok := locateAttrValue(source, raw, tagStart, val); ok {
					attrs = append(attrs, HTMLAttrSpan{
						Tag:      tag,
						Attr:     string(key),
						Value:    string(val),
						ValStart: span[0],
						ValEnd:   span[1],
						Line:     LineAt(source, tagStart),
					})
				}
			}
		}

		if tag == "a" && id != "" {
			removeEnd := tagStart + len(raw)
			if bytes.HasPrefix(source[removeEnd:], []byte("</a>")) {
				removeEnd += len("</a>")
			}
			attrStart, attrEnd := locateAttr(raw, tagStart, idKey, idVal)
			anchors = append(anchors, HTMLAnchor{
				ID:        id,
				TagStart:  tagStart,
				TagEnd:    tagStart + len(raw),
				RemoveEnd: removeEnd,
				AttrStart: attrStart,
				AttrEnd:   attrEnd,
				HasHref:   hasHref,
				Line:      LineAt(source, tagStart),
			})
		}
	}
	return anchors, attrs
}

// locateAttr finds the byte span of a whole attribute (key="value") within the
// raw tag bytes, extended backwards over its leading whitespace. Returns -1, -1
// when the attribute cannot be matched, e.g. an entity-escaped value.
func locateAttr(raw []byte, tagStart int, key string, val []byte) (int, int) {
	if key == "" {
		return -1, -1
	}
	for _, quote := range []byte{'"', '\''} {
		needle := append([]byte(key+"="), quote)
		needle = append(needle, val...)
		needle = append(needle, quote)
		idx := bytes.Index(raw, needle)
		if idx < 0 {
			continue
		}
		start := idx
		for start > 0 && (raw[start-1] == ' ' || raw[start-1] == '\t') {
			start--
		}
		return tagStart + start, tagStart + idx + len(needle)
	}
	return -1, -1
}

// locateAttrValue finds the byte span of an attribute value within the raw tag
// bytes. Values containing HTML entities are skipped: the unescaped token value
// no longer matches the raw bytes, and rewriting such a value in place would
// corrupt the escaping.
func locateAttrValue(source, raw []byte, tagStart int, val []byte) ([2]int, bool) {
	if len(val) == 0 {
		return [2]int{}, false
	}
	for _, quote := range []byte{'"', '\''} {
		needle := append(append([]byte{quote}, val...), quote)
		if idx := bytes.Index(raw, needle); idx >= 0 {
			start := tagStart + idx + 1
			return [2]int{start, start + len(val)}, true
		}
	}
	return [2]int{}, false
}
