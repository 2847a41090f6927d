// Package export renders stories as standalone printable HTML pages.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"storyspark/internal/story"
)

var ErrNothingToExport = errors.New("export: nothing to export")

type chapterView struct {
	Number       int
	Title        string
	Body         template.HTML
	Illustration string
}

type bookView struct {
	Title    string
	Summary  template.HTML
	Chapters []chapterView
}

type proposalView struct {
	story.Proposal
}

var md = goldmark.New()

// markdown converts model text to HTML. Raw HTML in the source is dropped.
func markdown(s string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Result writes the printable page for whichever variant r holds.
func Result(w io.Writer, r story.Result) error {
	switch {
	case r.Kind == story.KindBook && r.Book != nil:
		return Book(w, *r.Book)
	case r.Kind == story.KindProposal && r.Proposal != nil:
		return Proposal(w, *r.Proposal)
	}
	return ErrNothingToExport
}

func Book(w io.Writer, b story.Book) error {
	summary, err := markdown(b.Summary)
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	v := bookView{Title: b.Title, Summary: summary}
	for _, ch := range b.Chapters {
		body, err := markdown(ch.Content)
		if err != nil {
			return fmt.Errorf("render chapter %d: %w", ch.ChapterNumber, err)
		}
		v.Chapters = append(v.Chapters, chapterView{
			Number:       ch.ChapterNumber,
			Title:        ch.Title,
			Body:         body,
			Illustration: ch.IllustrationPlaceholder,
		})
	}
	return pages.ExecuteTemplate(w, "book", v)
}

func Proposal(w io.Writer, p story.Proposal) error {
	return pages.ExecuteTemplate(w, "proposal", proposalView{p})
}

var pages = template.Must(template.New("pages").Parse(`
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.}}</title>
<style>
body { font-family: Georgia, serif; max-width: 42rem; margin: 2rem auto; line-height: 1.6; color: #1e293b; }
h1 { text-align: center; }
.chapter { page-break-before: always; }
.illustration { font-style: italic; color: #64748b; border-left: 3px solid #c7d2fe; padding-left: 1rem; }
@media print { body { margin: 0 auto; } }
</style>
</head>
<body>{{end}}

{{define "book"}}{{template "head" .Title}}
<h1>{{.Title}}</h1>
<section class="summary">{{.Summary}}</section>
{{range .Chapters}}<section class="chapter">
<h2>Chapter {{.Number}}: {{.Title}}</h2>
{{.Body}}
{{if .Illustration}}<p class="illustration">{{.Illustration}}</p>{{end}}
</section>
{{end}}</body>
</html>
{{end}}

{{define "proposal"}}{{template "head" .Title}}
<h1>{{.Title}}</h1>
<p><strong>Age group:</strong> {{.AgeGroup}}</p>
<p><strong>Setting:</strong> {{.Setting}}</p>
<p><strong>Theme:</strong> {{.Theme}}</p>
<h2>Characters</h2>
<ul>{{range .Characters}}<li><strong>{{.Name}}</strong>: {{.Description}}</li>{{end}}</ul>
<h2>Plot outline</h2>
<ol>
<li>{{.PlotOutline.Beginning}}</li>
<li>{{.PlotOutline.Middle}}</li>
<li>{{.PlotOutline.Ending}}</li>
</ol>
<p><strong>Moral:</strong> {{.Moral}}</p>
</body>
</html>
{{end}}
`))
