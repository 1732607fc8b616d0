package content

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

// DefaultPreviewRunes caps Preview output.
const DefaultPreviewRunes = 280

// Info describes a decoded payload.
type Info struct {
	MIME      string `json:"mime"`
	Extension string `json:"extension"`
	Charset   string `json:"charset,omitempty"`
	Text      bool   `json:"text"`
	Size      int    `json:"size"`
}

var namePolicy = bluemonday.StrictPolicy()

// Inspect decodes p and sniffs its type. name is only used for the
// extension reported when sniffing finds nothing more specific.
func Inspect(name string, p tree.Payload) Info {
	return InspectBytes(name, p.Bytes())
}

// InspectBytes sniffs raw content.
func InspectBytes(name string, data []byte) Info {
	m := mimetype.Detect(data)
	info := Info{
		MIME:      m.String(),
		Extension: m.Extension(),
		Text:      isText(m),
		Size:      len(data),
	}
	if info.Extension == "" || info.Extension == ".txt" {
		if _, ext := SplitName(name); ext != "" {
			info.Extension = strings.ToLower(ext)
		}
	}
	if info.Text {
		info.Charset = DetectCharset(data)
	}
	return info
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DetectCharset returns a lower-case charset label for data.
func DetectCharset(data []byte) string {
	if utf8.Valid(data) {
		return "utf-8"
	}
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// ToUTF8 converts data from the named charset to UTF-8.
func ToUTF8(data []byte, label string) ([]byte, error) {
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "utf8") {
		return data, nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	return io.ReadAll(r)
}

// Text decodes p and returns it as UTF-8 text, converting from the
// detected charset when needed.
func Text(p tree.Payload) string {
	data := p.Bytes()
	out, err := ToUTF8(data, DetectCharset(data))
	if err != nil {
		return string(data)
	}
	return string(out)
}

// Preview returns up to maxRunes of readable text from p. HTML is reduced
// to its visible text. Binary payloads yield an empty preview.
func Preview(name string, p tree.Payload, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultPreviewRunes
	}
	info := InspectBytes(name, p.Bytes())
	if !info.Text {
		return ""
	}

	text := Text(p)
	if strings.HasPrefix(info.MIME, "text/html") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) > maxRunes {
		runes := []rune(text)
		text = string(runes[:maxRunes]) + "…"
	}
	return text
}

// SplitName splits name at its last dot for display. A leading dot does
// not start an extension, so ".bashrc" has none.
func SplitName(name string) (base, ext string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// SanitizeName strips markup and path separators from a user-entered name
// and trims surrounding space. The result may be empty.
func SanitizeName(name string) string {
	clean := html.UnescapeString(namePolicy.Sanitize(name))
	clean = strings.NewReplacer("/", "-", "\\", "-").Replace(clean)
	return strings.TrimSpace(clean)
}
