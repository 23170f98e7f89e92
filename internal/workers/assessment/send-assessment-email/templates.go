// internal/workers/assessment/send-assessment-email/templates.go
package sendassessmentemail

import (
	"bytes"
	"fmt"
	"text/template"

	"insider-risk-index/internal/assessment"

	"github.com/Masterminds/sprig/v3"
)

const subjectTemplate = `{{ .SubjectPrefix }}: {{ .TotalScore }}/100 ({{ .LevelName }})`

const bodyTemplate = `Insider Risk Index results
{{ repeat 26 "=" }}

Score: {{ .TotalScore }}/100
Level {{ .Level }}: {{ .LevelName }}
{{- with .LevelDescription }}
{{ . }}
{{- end }}

Pillar breakdown
{{- range .PillarBreakdown }}
  - {{ .Name }}: {{ if .Answered }}{{ printf "%.0f" .RawScore }}{{ else }}not answered{{ end }}
{{- end }}

{{ with .Benchmark.Overall -}}
Compared with {{ .SampleSize }} organizations, your score is {{ signed .Delta }} points from the average of {{ printf "%.1f" .AverageScore }}.
{{- else -}}
There is not enough peer data yet to compare your score.
{{- end }}
{{- with .Benchmark.Industry }}
Industry ({{ $.Org.Industry | toString | replace "_" " " | title }}): average {{ printf "%.1f" .AverageScore }}, you are {{ signed .Delta }}.
{{- end }}
{{- with .Benchmark.CompanySize }}
Company size ({{ $.Org.CompanySize | toString | replace "_" " " }}): average {{ printf "%.1f" .AverageScore }}, you are {{ signed .Delta }}.
{{- end }}
{{- with .Benchmark.Region }}
Region ({{ $.Org.Region | toString | replace "_" " " | upper }}): average {{ printf "%.1f" .AverageScore }}, you are {{ signed .Delta }}.
{{- end }}
{{ if .Strengths }}
Strengths: {{ join ", " .Strengths }}
{{- end }}
{{- if .Weaknesses }}
Needs attention: {{ join ", " .Weaknesses }}
{{- end }}
{{ if .Recommendations }}
Recommendations
{{- range $i, $r := .Recommendations }}
{{ add1 $i }}. {{ $r }}
{{- end }}
{{ end }}
{{- with .AssessmentID }}
Reference: {{ . }}
{{- end }}
`

type emailData struct {
	*assessment.AssessmentResult
	AssessmentID  string
	SubjectPrefix string
}

type renderer struct {
	subject *template.Template
	body    *template.Template
}

func newRenderer() *renderer {
	funcs := sprig.TxtFuncMap()
	funcs["signed"] = func(v float64) string { return fmt.Sprintf("%+.1f", v) }

	return &renderer{
		subject: template.Must(template.New("subject").Funcs(funcs).Parse(subjectTemplate)),
		body:    template.Must(template.New("body").Funcs(funcs).Parse(bodyTemplate)),
	}
}

func (r *renderer) render(data emailData) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := r.subject.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = buf.String()

	buf.Reset()
	if err := r.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject, buf.String(), nil
}
