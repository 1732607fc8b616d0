package persistence

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/storage"
)

// DefaultKey is the storage key the tree is saved under.
const DefaultKey = "fileSystem"

var (
	ErrLinkImport = errors.New("link import failed")
	ErrEmptyInput = errors.New("nothing to import")
)

// Source reports where Load found the tree.
type Source string

const (
	SourceLink    Source = "link"
	SourceStorage Source = "storage"
	SourceDefault Source = "default"
)

// Fetcher retrieves a remote JSON document.
type Fetcher interface {
	FetchJSON(ctx context.Context, rawURL string) ([]byte, error)
}

// Recorder receives persistence outcomes for metrics.
type Recorder interface {
	RecordLoad(source string)
	RecordSave(ok bool)
	RecordImport(kind string, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordLoad(string)         {}
func (nopRecorder) RecordSave(bool)           {}
func (nopRecorder) RecordImport(string, bool) {}

// Options configures an Adapter.
type Options struct {
	Key       string
	PublicURL string
	Fetcher   Fetcher
	Logger    *zap.Logger
	Recorder  Recorder
}

// Adapter converts between the in-memory tree and its persisted, exported
// and shared forms.
type Adapter struct {
	backend   storage.Backend
	key       string
	publicURL *url.URL
	fetcher   Fetcher
	logger    *zap.Logger
	recorder  Recorder
}

// NewAdapter creates an adapter over backend.
func NewAdapter(backend storage.Backend, opts Options) (*Adapter, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	public, err := url.Parse(opts.PublicURL)
	if err != nil {
		return nil, fmt.Errorf("invalid public url: %w", err)
	}
	public.Fragment = ""
	public.RawFragment = ""

	return &Adapter{
		backend:   backend,
		key:       opts.Key,
		publicURL: public,
		fetcher:   opts.Fetcher,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
	}, nil
}

// Load returns the tree to start from: a share-link fragment first, then the
// saved document, then DefaultTree. A source that fails to parse is logged
// and skipped.
func (a *Adapter) Load(ctx context.Context, fragment string) (Document, Source) {
	if fragment != "" {
		doc, err := DecodeFragment(fragment)
		if err == nil {
			a.recorder.RecordLoad(string(SourceLink))
			return doc, SourceLink
		}
		a.logger.Warn("Ignoring unreadable share link", zap.Error(err))
	}

	raw, ok, err := a.backend.Get(ctx, a.key)
	switch {
	case err != nil:
		a.logger.Warn("Failed to read saved tree", zap.String("key", a.key), zap.Error(err))
	case ok:
		doc, err := Decode(raw)
		if err == nil {
			a.recorder.RecordLoad(string(SourceStorage))
			return Migrate(doc), SourceStorage
		}
		a.logger.Warn("Ignoring unreadable saved tree", zap.String("key", a.key), zap.Error(err))
	}

	a.recorder.RecordLoad(string(SourceDefault))
	return Versioned(DefaultTree()), SourceDefault
}

// Save overwrites the saved document with nodes.
func (a *Adapter) Save(ctx context.Context, nodes []tree.Node) error {
	data, err := Encode(Versioned(nodes))
	if err != nil {
		a.recorder.RecordSave(false)
		return fmt.Errorf("encode tree: %w", err)
	}
	if err := a.backend.Put(ctx, a.key, data); err != nil {
		a.recorder.RecordSave(false)
		return fmt.Errorf("save tree: %w", err)
	}
	a.recorder.RecordSave(true)
	a.logger.Debug("Tree saved", zap.String("key", a.key), zap.Int("bytes", len(data)))
	return nil
}

// ExportJSON renders nodes as an indented, versioned document.
func (a *Adapter) ExportJSON(nodes []tree.Node) ([]byte, error) {
	return EncodeIndent(Versioned(nodes))
}

// ExportYAML renders the same document as ExportJSON in YAML.
func (a *Adapter) ExportYAML(nodes []tree.Node) ([]byte, error) {
	data, err := Encode(Versioned(nodes))
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(data)
}

// ImportJSON parses and migrates a serialized document.
func (a *Adapter) ImportJSON(data []byte) (Document, error) {
	doc, err := Decode(data)
	if err != nil {
		a.recorder.RecordImport("json", false)
		return Document{}, err
	}
	doc = Migrate(doc)
	if err := tree.Validate(doc.Data); err != nil {
		a.recorder.RecordImport("json", false)
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	a.recorder.RecordImport("json", true)
	return doc, nil
}

// ImportYAML accepts the output of ExportYAML.
func (a *Adapter) ImportYAML(data []byte) (Document, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		a.recorder.RecordImport("yaml", false)
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return a.ImportJSON(js)
}

// ImportFromLink interprets text as raw JSON, then as one of this
// deployment's share links, then as a remote URL to fetch. If every
// interpretation fails the errors are joined under ErrLinkImport.
func (a *Adapter) ImportFromLink(ctx context.Context, text string) (Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, ErrEmptyInput
	}

	doc, jsonErr := a.ImportJSON([]byte(text))
	if jsonErr == nil {
		return doc, nil
	}
	errs := []error{fmt.Errorf("as json: %w", jsonErr)}

	u, err := url.Parse(text)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		if err == nil {
			err = fmt.Errorf("not an http(s) url")
		}
		errs = append(errs, fmt.Errorf("as url: %w", err))
		return Document{}, a.linkFailure(errs)
	}

	if a.isOwnLink(u) {
		doc, err := DecodeFragment(u.EscapedFragment())
		if err == nil {
			a.recorder.RecordImport("share", true)
			return doc, nil
		}
		errs = append(errs, fmt.Errorf("as share link: %w", err))
	}

	if a.fetcher == nil {
		errs = append(errs, errors.New("as remote url: fetching disabled"))
		return Document{}, a.linkFailure(errs)
	}

	body, err := a.fetcher.FetchJSON(ctx, u.String())
	if err != nil {
		errs = append(errs, fmt.Errorf("as remote url: %w", err))
		return Document{}, a.linkFailure(errs)
	}
	doc, err = a.ImportJSON(body)
	if err != nil {
		errs = append(errs, fmt.Errorf("as remote document: %w", err))
		return Document{}, a.linkFailure(errs)
	}

	a.recorder.RecordImport("url", true)
	a.logger.Info("Imported tree from URL", zap.String("url", u.Redacted()))
	return doc, nil
}

// ShareLink encodes nodes into a URL fragment on the public URL. Long trees
// produce long links; no length limit is enforced.
func (a *Adapter) ShareLink(nodes []tree.Node) (string, error) {
	data, err := Encode(Versioned(nodes))
	if err != nil {
		return "", fmt.Errorf("encode tree: %w", err)
	}
	link := a.publicURL.String() + "#" + EncodeFragment(data)
	a.logger.Debug("Share link built", zap.Int("length", len(link)))
	return link, nil
}

// PublicURL is the base URL share links are built on.
func (a *Adapter) PublicURL() string {
	return a.publicURL.String()
}

func (a *Adapter) isOwnLink(u *url.URL) bool {
	if a.publicURL.Host == "" || !strings.EqualFold(u.Host, a.publicURL.Host) {
		return false
	}
	_, ok := fragmentPayload(u.EscapedFragment())
	return ok
}

func (a *Adapter) linkFailure(errs []error) error {
	a.recorder.RecordImport("link", false)
	return fmt.Errorf("%w: %w", ErrLinkImport, errors.Join(errs...))
}
