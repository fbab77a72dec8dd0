package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// HTMLEmailRenderer renders alerts as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default email template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

// Render produces an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(a Alert) (*RenderedMessage, error) {
	subject := fmt.Sprintf("DART 호재: %s - %s", a.Disclosure.CorpName, a.Disclosure.Title)
	if a.Test {
		subject = "[테스트] " + subject
	}

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, a); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Key:     a.Disclosure.ReceiptNo,
		Subject: subject,
		Text:    renderPlainText(a),
		HTML:    htmlBuf.String(),
	}, nil
}

// TextRenderer renders the plain text version only. Used for console output.
type TextRenderer struct{}

func (TextRenderer) Render(a Alert) (*RenderedMessage, error) {
	return &RenderedMessage{
		Key:     a.Disclosure.ReceiptNo,
		Subject: fmt.Sprintf("%s - %s", a.Disclosure.CorpName, a.Disclosure.Title),
		Text:    renderPlainText(a),
	}, nil
}

// renderPlainText produces a readable plain text version for clients that don't support HTML.
func renderPlainText(a Alert) string {
	d := a.Disclosure
	res := a.Result
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s - %s\n", d.CorpName, d.Title))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if a.High() {
		sb.WriteString("🚀 급등 가능성 HIGH\n\n")
	} else {
		sb.WriteString("⚠️ 단기 모멘텀\n\n")
	}

	if d.StockCode != "" {
		sb.WriteString(fmt.Sprintf("종목코드: %s\n", d.StockCode))
	}
	sb.WriteString(fmt.Sprintf("접수일자: %s\n", d.ReceiptDate))
	sb.WriteString(fmt.Sprintf("분류: %s", res.Tag.Label()))
	if res.Grade != "" {
		sb.WriteString(fmt.Sprintf(" · %s", res.Grade))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("키워드: %s\n", res.Keyword))
	sb.WriteString(fmt.Sprintf("점수: %d\n", res.Score))
	if res.Note != "" {
		sb.WriteString(fmt.Sprintf("비고: %s\n", res.Note))
	}
	sb.WriteString(fmt.Sprintf("URL: %s\n\n", a.Link()))

	if a.Snippet != "" {
		sb.WriteString("근거\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		sb.WriteString(a.Snippet + "\n\n")
	}

	if a.Body != "" {
		sb.WriteString("본문 요약\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		sb.WriteString(a.Body + "\n")
	}

	return sb.String()
}
