package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Telegram rejects messages longer than this many characters.
const telegramMaxRunes = 4096

const telegramTemplate = `🚨 <b>[DART 호재 감지]</b>{{if .Test}} <i>(테스트)</i>{{end}}

🏢 <b>기업명:</b> {{.Disclosure.CorpName}}{{with .Disclosure.StockCode}} ({{.}}){{end}}
📄 <b>공시제목:</b> {{.Disclosure.Title}}

🏷️ <b>분류:</b> {{.Result.Tag.Label}}{{with .Result.Grade}} · {{.}}{{end}}
🔑 <b>키워드:</b> {{.Result.Keyword}}
🔥 <b>점수:</b> <b>{{.Result.Score}}</b>
{{- with .Result.Note}}
📌 <b>비고:</b> {{.}}{{end}}
{{if .High}}🚀 <b>급등 가능성 HIGH</b>{{else}}⚠️ <b>단기 모멘텀</b>{{end}}
{{- with .Snippet}}

🔎 <b>근거:</b> {{.}}{{end}}
{{- with .Body}}

📝 <b>본문 요약:</b>
<pre>{{.}}</pre>{{end}}

🔗 <a href="{{.Link}}">공시 원문 바로가기</a>`

// TelegramRenderer produces the HTML subset accepted by the Bot API.
type TelegramRenderer struct {
	tmpl *template.Template
}

func NewTelegramRenderer() *TelegramRenderer {
	t := template.Must(template.New("telegram").Parse(telegramTemplate))
	return &TelegramRenderer{tmpl: t}
}

func (r *TelegramRenderer) Render(a Alert) (*RenderedMessage, error) {
	if len([]rune(a.Body)) > telegramBodyBudget {
		a.Body = string([]rune(a.Body)[:telegramBodyBudget]) + "..."
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, a); err != nil {
		return nil, fmt.Errorf("failed to render telegram template: %w", err)
	}

	return &RenderedMessage{
		Key:     a.Disclosure.ReceiptNo,
		Subject: fmt.Sprintf("%s - %s", a.Disclosure.CorpName, a.Disclosure.Title),
		Text:    renderPlainText(a),
		HTML:    strings.TrimSpace(buf.String()),
	}, nil
}

// Leaves room for the header and link around the body.
const telegramBodyBudget = telegramMaxRunes - 1000
