package gallery

import (
	"bytes"
	"fmt"
	"text/template"

	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
)

// Page skeletons for generated gallery content. Kept as markdown templates so
// site maintainers reading the output can map it back to a skeleton easily.
const examplePageTemplate = `# {{ .Title }}

From [{{ .SourceDoc }}]({{ .Backlink }}#{{ .SourceAnchor }}).
{{ if .Tags }}
Tagged:{{ range $i, $t := .Tags }}{{ if $i }},{{ end }} [{{ $t.Name }}]({{ $t.Href }}){{ end }}.
{{ end }}
{{ .Content }}`

const landingPageTemplate = `# Example gallery
{{ if not .Examples }}
No examples have been marked up yet.
{{ else }}{{ range .Examples }}
- [{{ .Title }}]({{ .Href }}){{ if .Tags }} ({{ range $i, $t := .Tags }}{{ if $i }}, {{ end }}[{{ $t.Name }}]({{ $t.Href }}){{ end }}){{ end }}
{{- end }}
{{ end }}`

const tagPageTemplate = `# Examples tagged "{{ .Tag }}"
{{ range .Examples }}
- [{{ .Title }}]({{ .Href }})
{{- end }}
`

func renderTemplate(name, text string, data any) ([]byte, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, fmt.Sprintf("bad %s template", name)).Build()
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryGallery, fmt.Sprintf("failed to render %s page", name)).Build()
	}
	return buf.Bytes(), nil
}
