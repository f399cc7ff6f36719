package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	subjectQuoteFmt = "Votre devis %s"
)

type baseEmailData struct {
	Title   string
	Heading string
}

type messageReplyEmailData struct {
	baseEmailData
	ClientName string
	Body       string
}

type quoteEmailData struct {
	baseEmailData
	ClientName  string
	QuoteRef    string
	TotalAmount string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
