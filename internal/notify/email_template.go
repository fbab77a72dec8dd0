package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Disclosure.CorpName}} - {{.Disclosure.Title}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #1e3a8a 0%, #1f2937 100%);
      color: #ffffff;
    }

    .corp {
      font-size: 24px;
      font-weight: 700;
      letter-spacing: 0.05em;
      margin-bottom: 4px;
    }

    .title {
      font-size: 15px;
      opacity: 0.9;
    }

    .badge {
      display: inline-block;
      margin-top: 8px;
      padding: 4px 10px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      background: #f97316;
      color: #ffffff;
      text-transform: uppercase;
      letter-spacing: 0.05em;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    .meta-grid {
      display: table;
      width: 100%;
      font-size: 14px;
    }

    .meta-row {
      display: table-row;
    }

    .meta-label {
      display: table-cell;
      padding: 6px 16px 6px 0;
      color: #6b7280;
      font-weight: 500;
      white-space: nowrap;
      width: 100px;
    }

    .meta-value {
      display: table-cell;
      padding: 6px 0;
      color: #111827;
    }

    .tags-list {
      display: flex;
      flex-wrap: wrap;
      gap: 6px;
      margin: 0;
      padding: 0;
      list-style: none;
    }

    .tag {
      display: inline-block;
      padding: 3px 10px;
      font-size: 12px;
      font-weight: 500;
      background: #e0f2fe;
      color: #0369a1;
      border-radius: 4px;
    }

    .badge.high {
      background: #dc2626;
    }

    .badge.test {
      background: #6b7280;
    }

    .body-box {
      background: #f9fafb;
      border: 1px solid #e5e7eb;
      padding: 12px 16px;
      font-size: 13px;
      color: #374151;
      white-space: pre-wrap;
      font-family: inherit;
      margin: 0;
    }

    .context-box {
      background: #f9fafb;
      border-left: 3px solid #1e3a8a;
      padding: 12px 16px;
      font-size: 13px;
      color: #374151;
      border-radius: 0 4px 4px 0;
    }

    .cta-button {
      display: inline-block;
      margin-top: 12px;
      padding: 10px 20px;
      font-size: 14px;
      font-weight: 600;
      color: #ffffff !important;
      background: #1e3a8a;
      border-radius: 6px;
      text-decoration: none;
    }

    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
      border-top: 1px solid #f3f4f6;
    }

    a {
      color: #0b3d91;
      text-decoration: none;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="corp">{{.Disclosure.CorpName}}{{with .Disclosure.StockCode}} ({{.}}){{end}}</div>
      <div class="title">{{.Disclosure.Title}}</div>
      {{if .High}}
      <span class="badge high">🚀 급등 가능성 HIGH</span>
      {{else}}
      <span class="badge">⚠️ 단기 모멘텀</span>
      {{end}}
      {{if .Test}}<span class="badge test">테스트</span>{{end}}
    </div>

    <div class="section">
      <div class="section-title">공시 정보</div>
      <div class="meta-grid">
        <div class="meta-row">
          <div class="meta-label">접수일자</div>
          <div class="meta-value">{{.Disclosure.ReceiptDate}}</div>
        </div>
        <div class="meta-row">
          <div class="meta-label">분류</div>
          <div class="meta-value">
            <div class="tags-list">
              <span class="tag">{{.Result.Tag.Label}}</span>
              {{with .Result.Grade}}<span class="tag">{{.}}</span>{{end}}
              <span class="tag">{{.Result.Keyword}}</span>
            </div>
          </div>
        </div>
        <div class="meta-row">
          <div class="meta-label">점수</div>
          <div class="meta-value">{{.Result.Score}}</div>
        </div>
        {{with .Result.Note}}
        <div class="meta-row">
          <div class="meta-label">비고</div>
          <div class="meta-value">{{.}}</div>
        </div>
        {{end}}
      </div>
      <a href="{{.Link}}" class="cta-button" target="_blank" rel="noopener">
        공시 원문 바로가기 →
      </a>
    </div>

    {{if .Snippet}}
    <div class="section">
      <div class="section-title">근거</div>
      <div class="context-box">{{.Snippet}}</div>
    </div>
    {{end}}

    {{if .Body}}
    <div class="section">
      <div class="section-title">본문 요약</div>
      <pre class="body-box">{{.Body}}</pre>
    </div>
    {{end}}

    <div class="footer">
      Generated by dartalert
    </div>
  </div>
</body>
</html>`
