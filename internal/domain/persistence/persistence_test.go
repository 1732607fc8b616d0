package persistence

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/storage"
	"github.com/GriffinCanCode/filedeck/internal/providers/fetch"
)

const publicURL = "http://localhost:8080/"

func sampleNodes() []tree.Node {
	work := tree.NewFolder(10, "Work")
	work.Children = append(work.Children, tree.NewFile(11, "plan.txt", tree.TextPayload("ship it")))
	return []tree.Node{work, tree.NewFile(12, "notes.txt", tree.TextPayload(""))}
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	args := m.Called(ctx, rawURL)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

type countingRecorder struct {
	loads   []string
	saves   int
	imports map[string]int
}

func (r *countingRecorder) RecordLoad(source string) { r.loads = append(r.loads, source) }
func (r *countingRecorder) RecordSave(ok bool) {
	if ok {
		r.saves++
	}
}
func (r *countingRecorder) RecordImport(kind string, ok bool) {
	if r.imports == nil {
		r.imports = map[string]int{}
	}
	if ok {
		r.imports[kind]++
	}
}

func newAdapter(t *testing.T, backend storage.Backend, fetcher Fetcher) *Adapter {
	t.Helper()
	a, err := NewAdapter(backend, Options{PublicURL: publicURL, Fetcher: fetcher})
	require.NoError(t, err)
	return a
}

// ============================================================================
// Document and migration
// ============================================================================

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		version int
		count   int
		wantErr bool
	}{
		{"current", `{"version":2,"data":[{"id":1,"name":"a","type":"folder","children":[]}]}`, 2, 1, false},
		{"explicit v1", `{"version":1,"data":[]}`, 1, 0, false},
		{"missing version", `{"data":[]}`, LegacyVersion, 0, false},
		{"legacy array", `[{"id":1,"name":"a.txt","type":"file","content":""}]`, LegacyVersion, 1, false},
		{"future version", `{"version":7,"data":[]}`, 7, 0, false},
		{"empty", "   ", 0, 0, true},
		{"missing data", `{"version":2}`, 0, 0, true},
		{"garbage", `not json`, 0, 0, true},
		{"bad node", `{"version":2,"data":[{"id":1,"type":"symlink"}]}`, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDocument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, doc.Version)
			assert.Len(t, doc.Data, tt.count)
			assert.NotNil(t, doc.Data)
		})
	}
}

func TestMigrate(t *testing.T) {
	legacy := Document{Version: 1, Data: sampleNodes()}

	once := Migrate(legacy)
	assert.Equal(t, CurrentVersion, once.Version)
	assert.Equal(t, sampleNodes(), once.Data)

	twice := Migrate(once)
	assert.Equal(t, once, twice)

	assert.Equal(t, CurrentVersion, Migrate(Document{}).Version)
	assert.Equal(t, 9, Migrate(Document{Version: 9}).Version)
}

func TestEncodeWireShape(t *testing.T) {
	data, err := Encode(Document{Version: CurrentVersion})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"data":[]}`, string(data))

	pretty, err := EncodeIndent(Versioned(sampleNodes()))
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"version\": 2")
}

func TestEncodeLargeTree(t *testing.T) {
	root := tree.NewFolder(1, "big")
	for i := 0; i < sonicEncodeThreshold+10; i++ {
		root.Children = append(root.Children, tree.NewFile(tree.ID(100+i), "f.txt", tree.TextPayload("x")))
	}

	data, err := Encode(Versioned([]tree.Node{root}))
	require.NoError(t, err)
	require.Greater(t, len(data), sonicDecodeThreshold)

	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []tree.Node{root}, doc.Data)
}

// ============================================================================
// Adapter
// ============================================================================

func TestImportJSONStampsVersion(t *testing.T) {
	a := newAdapter(t, storage.NewMemory(), nil)

	doc, err := a.ImportJSON([]byte(`{"version":1,"data":[]}`))
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Empty(t, doc.Data)
}

func TestImportJSONRejects(t *testing.T) {
	a := newAdapter(t, storage.NewMemory(), nil)

	_, err := a.ImportJSON([]byte(`{oops`))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	dup := `{"version":2,"data":[{"id":1,"name":"a","type":"file","content":""},{"id":1,"name":"b","type":"file","content":""}]}`
	_, err = a.ImportJSON([]byte(dup))
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorIs(t, err, tree.ErrDuplicateID)
}

func TestExportImportRoundTrip(t *testing.T) {
	a := newAdapter(t, storage.NewMemory(), nil)

	data, err := a.ExportJSON(sampleNodes())
	require.NoError(t, err)

	doc, err := a.ImportJSON(data)
	require.NoError(t, err)
	assert.Equal(t, sampleNodes(), doc.Data)
	assert.Equal(t, CurrentVersion, doc.Version)
}

func TestExportYAMLRoundTrip(t *testing.T) {
	a := newAdapter(t, storage.NewMemory(), nil)

	data, err := a.ExportYAML(sampleNodes())
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 2")
	assert.Contains(t, string(data), "plan.txt")

	doc, err := a.ImportYAML(data)
	require.NoError(t, err)
	assert.Equal(t, sampleNodes(), doc.Data)
}

func TestSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	rec := &countingRecorder{}
	a, err := NewAdapter(storage.NewMemory(), Options{PublicURL: publicURL, Recorder: rec})
	require.NoError(t, err)

	require.NoError(t, a.Save(ctx, sampleNodes()))

	doc, src := a.Load(ctx, "")
	assert.Equal(t, SourceStorage, src)
	assert.Equal(t, sampleNodes(), doc.Data)
	assert.Equal(t, 1, rec.saves)
	assert.Equal(t, []string{"storage"}, rec.loads)
}

func TestLoadSavesLegacyArray(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Put(ctx, DefaultKey, []byte(`[{"id":5,"name":"old.txt","type":"file","content":""}]`)))

	doc, src := newAdapter(t, backend, nil).Load(ctx, "")
	assert.Equal(t, SourceStorage, src)
	assert.Equal(t, CurrentVersion, doc.Version)
	require.Len(t, doc.Data, 1)
	assert.Equal(t, "old.txt", doc.Data[0].NodeName())
}

func TestLoadDefault(t *testing.T) {
	doc, src := newAdapter(t, storage.NewMemory(), nil).Load(context.Background(), "")
	assert.Equal(t, SourceDefault, src)
	assert.Equal(t, DefaultTree(), doc.Data)

	require.Len(t, doc.Data, 2)
	folder := doc.Data[0].(*tree.Folder)
	assert.Equal(t, "My Documents", folder.Name)
	assert.Empty(t, folder.Children)
	assert.Equal(t, tree.KindFile, doc.Data[1].Kind())
	assert.Equal(t, "welcome.txt", doc.Data[1].NodeName())
}

func TestLoadFallsThroughCorruptSources(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Put(ctx, DefaultKey, []byte("{broken")))

	doc, src := newAdapter(t, backend, nil).Load(ctx, "#data=!!!notbase64")
	assert.Equal(t, SourceDefault, src)
	assert.Equal(t, DefaultTree(), doc.Data)
}

func TestLoadPrefersLink(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t, storage.NewMemory(), nil)
	require.NoError(t, a.Save(ctx, DefaultTree()))

	link, err := a.ShareLink(sampleNodes())
	require.NoError(t, err)
	fragment := link[strings.Index(link, "#"):]

	doc, src := a.Load(ctx, fragment)
	assert.Equal(t, SourceLink, src)
	assert.Equal(t, sampleNodes(), doc.Data)
}

func TestShareLink(t *testing.T) {
	a := newAdapter(t, storage.NewMemory(), nil)

	link, err := a.ShareLink(sampleNodes())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, publicURL+"#data="))

	doc, err := a.ImportFromLink(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, sampleNodes(), doc.Data)
}

func TestDecodeFragmentForms(t *testing.T) {
	encoded := EncodeFragment([]byte(`{"version":1,"data":[]}`))

	for _, f := range []string{encoded, "#" + encoded, "#?" + encoded, "?" + encoded} {
		doc, err := DecodeFragment(f)
		require.NoError(t, err, f)
		assert.Equal(t, CurrentVersion, doc.Version)
	}

	_, err := DecodeFragment("#section-2")
	assert.ErrorIs(t, err, ErrNoFragmentData)
}

func TestImportFromLinkRawJSON(t *testing.T) {
	fetcher := &mockFetcher{}
	a := newAdapter(t, storage.NewMemory(), fetcher)

	doc, err := a.ImportFromLink(context.Background(), `  {"version":2,"data":[]}  `)
	require.NoError(t, err)
	assert.Empty(t, doc.Data)
	fetcher.AssertNotCalled(t, "FetchJSON", mock.Anything, mock.Anything)
}

func TestImportFromLinkFetchesRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":3,"name":"remote.txt","type":"file","content":""}]`))
	}))
	defer server.Close()

	opts := fetch.DefaultOptions()
	opts.RequestsPerSecond = 0
	a := newAdapter(t, storage.NewMemory(), fetch.NewClient(opts))

	doc, err := a.ImportFromLink(context.Background(), server.URL+"/tree.json")
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, doc.Version)
	require.Len(t, doc.Data, 1)
	assert.Equal(t, "remote.txt", doc.Data[0].NodeName())
}

func TestImportFromLinkFailures(t *testing.T) {
	ctx := context.Background()

	_, err := newAdapter(t, storage.NewMemory(), nil).ImportFromLink(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = newAdapter(t, storage.NewMemory(), nil).ImportFromLink(ctx, "just some words")
	assert.ErrorIs(t, err, ErrLinkImport)

	boom := errors.New("connection refused")
	failing := &mockFetcher{}
	failing.On("FetchJSON", mock.Anything, "https://example.com/tree.json").Return(nil, boom).Once()
	a := newAdapter(t, storage.NewMemory(), failing)
	_, err = a.ImportFromLink(ctx, "https://example.com/tree.json")
	assert.ErrorIs(t, err, ErrLinkImport)
	assert.ErrorIs(t, err, boom)
	failing.AssertExpectations(t)

	html := &mockFetcher{}
	html.On("FetchJSON", mock.Anything, "https://example.com/page").Return([]byte("<html></html>"), nil).Once()
	a = newAdapter(t, storage.NewMemory(), html)
	_, err = a.ImportFromLink(ctx, "https://example.com/page")
	assert.ErrorIs(t, err, ErrLinkImport)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	html.AssertExpectations(t)
}

func TestNewAdapterStripsFragment(t *testing.T) {
	a, err := NewAdapter(storage.NewMemory(), Options{PublicURL: "https://deck.example.com/app#old"})
	require.NoError(t, err)
	assert.Equal(t, "https://deck.example.com/app", a.PublicURL())
}
