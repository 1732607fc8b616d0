package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestInspect(t *testing.T) {
	info := Inspect("notes.txt", tree.TextPayload("hello world"))
	assert.True(t, strings.HasPrefix(info.MIME, "text/plain"))
	assert.True(t, info.Text)
	assert.Equal(t, "utf-8", info.Charset)
	assert.Equal(t, ".txt", info.Extension)
	assert.Equal(t, 11, info.Size)

	info = Inspect("image.png", tree.EncodePayload(pngHeader))
	assert.Equal(t, "image/png", info.MIME)
	assert.False(t, info.Text)
	assert.Empty(t, info.Charset)
}

func TestInspectRawTextPayload(t *testing.T) {
	info := Inspect("test_notes.txt", tree.Payload("Hello Test World!"))
	assert.True(t, info.Text)
	assert.Equal(t, 17, info.Size)
	assert.Equal(t, "Hello Test World!", Text(tree.Payload("Hello Test World!")))
	assert.Equal(t, "%%%", Preview("bad.txt", tree.Payload("%%%"), 0))
}

func TestInspectKeepsNameExtensionForPlainText(t *testing.T) {
	info := InspectBytes("main.go", []byte("package main\n"))
	assert.Equal(t, ".go", info.Extension)
}

func TestToUTF8(t *testing.T) {
	out, err := ToUTF8([]byte("caf\xe9"), "iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))

	same, err := ToUTF8([]byte("plain"), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(same))

	_, err = ToUTF8([]byte("x"), "no-such-charset")
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	assert.Equal(t, "héllo", Text(tree.TextPayload("héllo")))
	assert.Equal(t, "utf-8", DetectCharset([]byte("héllo")))
}

func TestPreview(t *testing.T) {
	page := `<!DOCTYPE html><html><body>
<h1>Title</h1>
<script>alert(1)</script>
<p>Body   text</p>
</body></html>`
	assert.Equal(t, "Title Body text", Preview("index.html", tree.TextPayload(page), 0))
	assert.Equal(t, strings.Repeat("a", 10)+"…", Preview("long.txt", tree.TextPayload(strings.Repeat("a", 50)), 10))
	assert.Empty(t, Preview("image.png", tree.EncodePayload(pngHeader), 0))
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name, base, ext string
	}{
		{"report.pdf", "report", ".pdf"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{".bashrc", ".bashrc", ""},
		{"Makefile", "Makefile", ""},
		{"trailing.", "trailing", "."},
	}
	for _, tt := range tests {
		base, ext := SplitName(tt.name)
		assert.Equal(t, tt.base, base, tt.name)
		assert.Equal(t, tt.ext, ext, tt.name)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Report.txt", SanitizeName("<b>Report</b>.txt"))
	assert.Equal(t, "Tom & Jerry", SanitizeName("  Tom & Jerry "))
	assert.Equal(t, "a-b-c", SanitizeName(`a/b\c`))
	assert.Empty(t, SanitizeName("<script>alert(1)</script>"))
	assert.Empty(t, SanitizeName("   "))
}
