/*
Package document turns the zipped markup returned by the DART document
service into short, readable plain text.
*/
package document

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/korean"
)

const (
	DefaultLimit = 500

	// NoBodyText is shown when the archive holds no document at all.
	NoBodyText = "본문이 없는 공시입니다. 원문 링크를 확인해 주세요."
	// FailedText is shown when the payload could not be fetched or decoded.
	FailedText = "본문을 불러올 수 없습니다. 원문 링크를 확인해 주세요."

	ellipsis = "..."

	// Documents larger than this are cut before decoding.
	maxEntryBytes = 8 << 20
)

var errNoEntries = errors.New("archive has no entries")

// Document is a sanitized disclosure body. Text is the full cleaned text and
// is what the filter inspects; Summary is the capped version for display.
type Document struct {
	Text     string
	Summary  string
	Fallback bool
}

// Failed is the document used when the body could not be retrieved.
func Failed() Document {
	return Document{Summary: FailedText, Fallback: true}
}

func noBody() Document {
	return Document{Summary: NoBodyText, Fallback: true}
}

type Sanitizer struct {
	Limit int
}

func New(limit int) *Sanitizer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Sanitizer{Limit: limit}
}

// Sanitize never fails: malformed or empty payloads produce a fallback
// document instead of an error.
func (s *Sanitizer) Sanitize(payload []byte) Document {
	raw, err := firstEntry(payload)
	if errors.Is(err, errNoEntries) {
		return noBody()
	}
	if err != nil {
		return Failed()
	}

	text := Clean(decode(raw))
	if text == "" {
		return noBody()
	}

	return Document{
		Text:    text,
		Summary: Truncate(text, s.Limit),
	}
}

func firstEntry(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, errNoEntries
	}

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document archive: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, errNoEntries
	}

	f, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open archive entry %s: %w", zr.File[0].Name, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxEntryBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive entry %s: %w", zr.File[0].Name, err)
	}
	return raw, nil
}

var xmlEncodingPattern = regexp.MustCompile(`(?i)<\?xml[^>]*encoding\s*=\s*["']([\w\-]+)["']`)

// decode converts the entry to UTF-8. Older filings are stored as EUC-KR.
func decode(raw []byte) string {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return string(raw)
	}

	var enc encoding.Encoding = korean.EUCKR
	if m := xmlEncodingPattern.FindSubmatch(raw); len(m) == 2 {
		if e, _ := charset.Lookup(string(m[1])); e != nil {
			enc = e
		}
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), " ")
	}
	return string(out)
}

var (
	styleBlockPattern = regexp.MustCompile(`(?is)<style[^>]*>.*?</style\s*>`)
	cssRulePattern    = regexp.MustCompile(`[#.@]?[A-Za-z][\w\-.#:,*\s]*\{[^{}]*\}`)
	whitespacePattern = regexp.MustCompile(`[\s\x{00A0}\x{3000}]+`)

	listMarkerPattern   = regexp.MustCompile(`(^|\s)(\d{1,2}\.)\s`)
	labelPattern        = regexp.MustCompile(`(\S:)\s+`)
	sentenceEndPattern  = regexp.MustCompile(`([다요음함됨]\.)\s*`)
	closeBracketPattern = regexp.MustCompile(`([)\]】」』])\s`)

	docStartPattern = regexp.MustCompile(`(?i)제\s*목|회\s*사\s*명|title|name|(?:^|\n)\d{1,2}\.\s|\[[^\]\n]{1,40}\]|【`)
)

var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"\u00a0", " ",
)

// Brackets left after stripping are comparison signs, not markup.
var bracketReplacer = strings.NewReplacer("<", "＜", ">", "＞")

// Clean strips markup and styling from a document and restores a readable
// line structure.
func Clean(markup string) string {
	markup = styleBlockPattern.ReplaceAllString(markup, " ")
	markup = cssRulePattern.ReplaceAllString(markup, " ")

	text := stripTags(markup)
	text = entityReplacer.Replace(text)
	// Escaped markup decodes into real tags.
	text = bracketReplacer.Replace(stripTags(text))
	text = cssRulePattern.ReplaceAllString(text, " ")

	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if text == "" {
		return ""
	}

	text = listMarkerPattern.ReplaceAllString(text, "\n\n$2 ")
	text = labelPattern.ReplaceAllString(text, "$1\n")
	text = sentenceEndPattern.ReplaceAllString(text, "$1\n")
	text = closeBracketPattern.ReplaceAllString(text, "$1\n")

	if loc := docStartPattern.FindStringIndex(text); loc != nil && loc[0] > 0 {
		text = text[loc[0]:]
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// stripTags replaces every tag with a single space and drops the contents of
// style and script elements.
func stripTags(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var sb strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isHidden(name) {
				skip++
			}
			sb.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isHidden(name) && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		default:
			sb.WriteByte(' ')
		}
	}
}

func isHidden(tag []byte) bool {
	switch string(tag) {
	case "style", "script":
		return true
	}
	return false
}

// Truncate caps text at limit runes and appends an ellipsis when it cut
// anything.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:limit]), " \n") + ellipsis
}

// Snippet returns the text surrounding the first occurrence of phrase, with
// ellipses where the context was cut.
func Snippet(text, phrase string) string {
	const contextSize = 50

	if phrase == "" {
		return ""
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(phrase))
	if idx == -1 {
		return ""
	}

	runes := []rune(text)
	start := utf8.RuneCountInString(text[:idx]) - contextSize
	if start < 0 {
		start = 0
	}
	end := utf8.RuneCountInString(text[:idx]) + utf8.RuneCountInString(phrase) + contextSize
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "... " + snippet
	}
	if end < len(runes) {
		snippet = snippet + " ..."
	}
	return strings.ReplaceAll(snippet, "\n", " ")
}
