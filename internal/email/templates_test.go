package email

import (
	"strings"
	"testing"
)

func TestRenderMessageReplyTemplate(t *testing.T) {
	content, err := renderEmailTemplate("message_reply.html", messageReplyEmailData{
		baseEmailData: baseEmailData{
			Title:   "Renouvellement auto",
			Heading: "Renouvellement auto",
		},
		ClientName: "Jean Martin",
		Body:       "Votre contrat arrive à échéance le 15 octobre.",
	})
	if err != nil {
		t.Fatalf("renderEmailTemplate: %v", err)
	}

	for _, want := range []string{"Jean Martin", "Renouvellement auto", "15 octobre", "AssurDesk"} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
}

func TestRenderQuoteTemplate(t *testing.T) {
	content, err := renderEmailTemplate("quote.html", quoteEmailData{
		baseEmailData: baseEmailData{
			Title:   "Votre devis Q-20260901-3F2A81C4",
			Heading: "Votre devis Q-20260901-3F2A81C4",
		},
		ClientName:  "Marie Dubois",
		QuoteRef:    "Q-20260901-3F2A81C4",
		TotalAmount: "450,00 €",
	})
	if err != nil {
		t.Fatalf("renderEmailTemplate: %v", err)
	}

	for _, want := range []string{"Marie Dubois", "Q-20260901-3F2A81C4", "450,00 €"} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
}

func TestRenderEscapesHTMLInBody(t *testing.T) {
	content, err := renderEmailTemplate("message_reply.html", messageReplyEmailData{
		baseEmailData: baseEmailData{Title: "t", Heading: "t"},
		ClientName:    "Jean",
		Body:          "<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("renderEmailTemplate: %v", err)
	}
	if strings.Contains(content, "<script>") {
		t.Fatal("body must be HTML-escaped")
	}
}
