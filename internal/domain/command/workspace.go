package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/history"
	"github.com/GriffinCanCode/filedeck/internal/domain/persistence"
	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/providers/archive"
	"github.com/GriffinCanCode/filedeck/internal/providers/content"
	"github.com/GriffinCanCode/filedeck/internal/providers/importer"
	"github.com/GriffinCanCode/filedeck/internal/shared/id"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNotInView     = errors.New("node is not in the current folder")
	ErrNotFile       = errors.New("node is not a file")
	ErrUnknownExport = errors.New("unknown export format")
	ErrNodeNotFound  = errors.New("node not found")
	ErrNothingChosen = errors.New("nothing selected")
	ErrMissingDest   = errors.New("destination required")
)

// Recorder receives workspace activity for metrics.
type Recorder interface {
	RecordAction(action string, success bool, elapsed time.Duration)
	RecordTree(stats tree.Stats)
}

type nopRecorder struct{}

func (nopRecorder) RecordAction(string, bool, time.Duration) {}
func (nopRecorder) RecordTree(tree.Stats)                    {}

// Options configures a Workspace.
type Options struct {
	Logger   *zap.Logger
	Recorder Recorder
	Notifier *Notifier
	IDs      tree.IDSource
	Importer importer.Options
}

// Workspace is the single thread of control over the tree. Every public
// method runs under one mutex, and every change is saved and published
// before the method returns.
type Workspace struct {
	mu sync.Mutex

	store     *tree.Store
	history   *history.History
	selection *Selection
	mode      Mode

	adapter  *persistence.Adapter
	archiver *archive.Archiver
	importer *importer.Importer
	notifier *Notifier
	recorder Recorder
	logger   *zap.Logger
}

// Open loads the starting tree through adapter and returns a workspace
// positioned at the root, along with where the tree came from. fragment is
// the share-link fragment of the opening URL, if any.
func Open(ctx context.Context, adapter *persistence.Adapter, fragment string, opts Options) (*Workspace, persistence.Source, error) {
	if adapter == nil {
		return nil, "", errors.New("workspace requires a persistence adapter")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Notifier == nil {
		opts.Notifier = NewNotifier()
	}
	if opts.IDs == nil {
		opts.IDs = id.NewSequence()
	}
	if opts.Importer.Logger == nil {
		opts.Importer.Logger = logger
	}

	doc, source := adapter.Load(ctx, fragment)
	if err := tree.Validate(doc.Data); err != nil {
		logger.Warn("Loaded tree is inconsistent, starting from defaults",
			zap.String("source", string(source)),
			zap.Error(err))
		doc, source = persistence.Versioned(persistence.DefaultTree()), persistence.SourceDefault
	}

	store := tree.NewStore(doc.Data, tree.WithIDSource(opts.IDs), tree.WithLogger(logger))
	w := &Workspace{
		store:     store,
		history:   history.New(),
		selection: NewSelection(),
		mode:      ModeSingle,
		adapter:   adapter,
		archiver:  archive.New(store.IDs(), logger),
		importer:  importer.New(store.IDs(), opts.Importer),
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		logger:    logger,
	}

	w.mu.Lock()
	w.commit(ctx, "load")
	w.mu.Unlock()

	logger.Info("Workspace opened",
		zap.String("source", string(source)),
		zap.Int("root_entries", store.Len()))
	return w, source, nil
}

// ============================================================================
// View
// ============================================================================

// Item is one entry of the current folder listing.
type Item struct {
	ID       tree.ID   `json:"id"`
	Name     string    `json:"name"`
	Kind     tree.Kind `json:"type"`
	Base     string    `json:"base"`
	Ext      string    `json:"ext,omitempty"`
	Size     int       `json:"size,omitempty"`
	Children int       `json:"children,omitempty"`
	Selected bool      `json:"selected"`
}

// View is everything a client needs to render the current folder.
type View struct {
	Path       tree.Path `json:"path"`
	Breadcrumb string    `json:"breadcrumb"`
	Items      []Item    `json:"items"`
	CanBack    bool      `json:"can_back"`
	CanForward bool      `json:"can_forward"`
	Mode       Mode      `json:"mode"`
	Selected   []tree.ID `json:"selected"`
}

// View renders the current folder.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view()
}

func (w *Workspace) view() View {
	path := w.history.Current()
	nodes := w.store.Resolve(path)

	items := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		item := Item{
			ID:       n.NodeID(),
			Name:     n.NodeName(),
			Kind:     n.Kind(),
			Base:     n.NodeName(),
			Selected: w.selection.Contains(n.NodeID()),
		}
		switch v := n.(type) {
		case *tree.File:
			item.Base, item.Ext = content.SplitName(v.Name)
			item.Size = len(v.Content.Bytes())
		case *tree.Folder:
			item.Children = len(v.Children)
		}
		items = append(items, item)
	}

	return View{
		Path:       path,
		Breadcrumb: w.store.Breadcrumb(path),
		Items:      items,
		CanBack:    w.history.CanBack(),
		CanForward: w.history.CanForward(),
		Mode:       w.mode,
		Selected:   w.selection.IDs(),
	}
}

// ============================================================================
// Navigation
// ============================================================================

// Navigate moves to the folder at path, recording it in history.
func (w *Workspace) Navigate(ctx context.Context, path tree.Path) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.navigate(ctx, path)
}

func (w *Workspace) navigate(ctx context.Context, path tree.Path) error {
	if !w.store.Exists(path) {
		return fmt.Errorf("%w: %s", tree.ErrFolderNotFound, path)
	}
	w.history.NavigateTo(path)
	w.selection.Clear()
	w.commit(ctx, "navigate")
	return nil
}

// Back moves one entry back in history. It reports false at the first entry.
func (w *Workspace) Back(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.history.Back(); !ok {
		return false
	}
	w.selection.Clear()
	w.commit(ctx, "back")
	return true
}

// Forward moves one entry forward in history. It reports false at the end.
func (w *Workspace) Forward(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.history.Forward(); !ok {
		return false
	}
	w.selection.Clear()
	w.commit(ctx, "forward")
	return true
}

// ============================================================================
// Selection
// ============================================================================

// Mode returns the current click mode.
func (w *Workspace) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// ToggleMultiSelect flips between single and multi mode and clears the
// selection.
func (w *Workspace) ToggleMultiSelect() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode == ModeSingle {
		w.mode = ModeMulti
	} else {
		w.mode = ModeSingle
	}
	w.selection.Clear()
	w.notifier.Publish("mode", w.history.Current())
	return w.mode
}

// Click handles a click on an item of the current folder and returns the
// scope of the context menu it opens. In multi mode the click toggles the
// item; the menu is bulk when two or more items are selected and the
// clicked item is one of them.
func (w *Workspace) Click(nodeID tree.ID) (Scope, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	node, ok := w.inView(nodeID)
	if !ok {
		return Scope{}, fmt.Errorf("%w: %d", ErrNotInView, nodeID)
	}

	if w.mode == ModeSingle {
		w.selection.Set(nodeID)
		return Scope{Kind: ScopeSingle, IDs: []tree.ID{nodeID}, Actions: menuFor(ScopeSingle, node)}, nil
	}

	w.selection.Toggle(nodeID)
	if w.selection.Len() >= 2 && w.selection.Contains(nodeID) {
		ids := w.selectedInView()
		return Scope{Kind: ScopeBulk, IDs: ids, Actions: menuFor(ScopeBulk, nil)}, nil
	}
	return Scope{Kind: ScopeSingle, IDs: []tree.ID{nodeID}, Actions: menuFor(ScopeSingle, node)}, nil
}

// Selected returns the selected ids in display order.
func (w *Workspace) Selected() []tree.ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedInView()
}

// ClearSelection empties the selection.
func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.Clear()
}

func (w *Workspace) inView(nodeID tree.ID) (tree.Node, bool) {
	for _, n := range w.store.Resolve(w.history.Current()) {
		if n.NodeID() == nodeID {
			return n, true
		}
	}
	return nil, false
}

// selectedInView lists selected ids in the order the current folder shows
// them. Selected ids no longer in the folder are dropped.
func (w *Workspace) selectedInView() []tree.ID {
	var ids []tree.ID
	for _, n := range w.store.Resolve(w.history.Current()) {
		if w.selection.Contains(n.NodeID()) {
			ids = append(ids, n.NodeID())
		}
	}
	w.selection.Retain(ids)
	return ids
}

// ============================================================================
// Imports, exports and sharing
// ============================================================================

// ImportJSON replaces the tree with a serialized document and returns to
// the root.
func (w *Workspace) ImportJSON(ctx context.Context, data []byte) error {
	doc, err := w.adapter.ImportJSON(data)
	if err != nil {
		return err
	}
	return w.replace(ctx, doc, "import")
}

// ImportYAML replaces the tree with a YAML export.
func (w *Workspace) ImportYAML(ctx context.Context, data []byte) error {
	doc, err := w.adapter.ImportYAML(data)
	if err != nil {
		return err
	}
	return w.replace(ctx, doc, "import")
}

// ImportLink replaces the tree with whatever input resolves to: raw JSON,
// a share link or a remote document. The remote fetch runs outside the
// workspace lock.
func (w *Workspace) ImportLink(ctx context.Context, input string) error {
	doc, err := w.adapter.ImportFromLink(ctx, input)
	if err != nil {
		return err
	}
	return w.replace(ctx, doc, "import-link")
}

// OpenLink consumes a share-link fragment that arrives after startup, as
// when a client opens a shared URL. It reports false when the fragment
// carries no data. An unreadable payload leaves the tree untouched.
func (w *Workspace) OpenLink(ctx context.Context, fragment string) (bool, error) {
	doc, err := persistence.DecodeFragment(fragment)
	if errors.Is(err, persistence.ErrNoFragmentData) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := tree.Validate(doc.Data); err != nil {
		return false, fmt.Errorf("%w: %w", persistence.ErrInvalidDocument, err)
	}
	return true, w.replace(ctx, doc, "link")
}

func (w *Workspace) replace(ctx context.Context, doc persistence.Document, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Replace(doc.Data); err != nil {
		return err
	}
	w.selection.Clear()
	w.history.NavigateTo(tree.Root)
	w.commit(ctx, reason)
	return nil
}

// ImportFiles reads host files into the current folder.
func (w *Workspace) ImportFiles(ctx context.Context, paths []string) ([]*tree.File, error) {
	files, err := w.importer.Files(ctx, paths)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	cur := w.history.Current()
	for _, f := range files {
		if err := w.store.Insert(cur, f); err != nil {
			return nil, err
		}
	}
	w.commit(ctx, "import-files")
	return files, nil
}

// ImportDir reads a host directory into a new folder in the current folder.
func (w *Workspace) ImportDir(ctx context.Context, root string, ignore []string) (*tree.Folder, error) {
	folder, err := w.importer.Dir(ctx, root, ignore)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Insert(w.history.Current(), folder); err != nil {
		return nil, err
	}
	w.commit(ctx, "import-dir")
	return folder, nil
}

// Upload stores raw bytes as a new file in the current folder.
func (w *Workspace) Upload(ctx context.Context, name string, data []byte) (*tree.File, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.store.CreateFile(w.history.Current(), content.SanitizeName(name), tree.EncodePayload(data))
	if err != nil {
		return nil, err
	}
	w.commit(ctx, "upload")
	return f, nil
}

// ShareLink encodes the whole tree into a link.
func (w *Workspace) ShareLink() (string, error) {
	return w.adapter.ShareLink(w.store.Snapshot())
}

// Export is a downloadable artifact.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportTree serializes the whole tree as "json" (the default) or "yaml".
func (w *Workspace) ExportTree(format string) (Export, error) {
	nodes := w.store.Snapshot()
	switch strings.ToLower(format) {
	case "", "json":
		data, err := w.adapter.ExportJSON(nodes)
		return Export{Filename: "filesystem.json", ContentType: "application/json", Data: data}, err
	case "yaml", "yml":
		data, err := w.adapter.ExportYAML(nodes)
		return Export{Filename: "filesystem.yaml", ContentType: "application/yaml", Data: data}, err
	default:
		return Export{}, fmt.Errorf("%w: %q", ErrUnknownExport, format)
	}
}

// ExportArchive packs the given nodes, or the selection when ids is empty,
// without adding anything to the tree.
func (w *Workspace) ExportArchive(ids []tree.ID, format string) (Export, error) {
	f, err := archive.ParseFormat(format)
	if err != nil {
		return Export{}, err
	}

	w.mu.Lock()
	if len(ids) == 0 {
		ids = w.selectedInView()
	}
	nodes := w.findAll(ids)
	w.mu.Unlock()

	if len(nodes) == 0 {
		return Export{}, ErrNothingChosen
	}
	data, err := w.archiver.Pack(nodes, f)
	if err != nil {
		return Export{}, err
	}
	return Export{Filename: archiveName(nodes, f), ContentType: archiveContentType(f), Data: data}, nil
}

// Download returns a file's decoded content.
func (w *Workspace) Download(nodeID tree.ID) (Export, error) {
	n, ok := w.store.Find(nodeID)
	if !ok {
		return Export{}, fmt.Errorf("%w: %d", ErrNodeNotFound, nodeID)
	}
	f, ok := n.(*tree.File)
	if !ok {
		return Export{}, fmt.Errorf("%w: %d", ErrNotFile, nodeID)
	}
	data := f.Content.Bytes()
	info := content.InspectBytes(f.Name, data)
	return Export{Filename: f.Name, ContentType: info.MIME, Data: data}, nil
}

// Search matches names across the whole tree with a doublestar pattern.
func (w *Workspace) Search(pattern string) ([]tree.Match, error) {
	return w.store.Search(pattern)
}

// Stats summarises the tree.
func (w *Workspace) Stats() tree.Stats {
	return w.store.Stats()
}

// Snapshot returns a deep copy of the tree.
func (w *Workspace) Snapshot() []tree.Node {
	return w.store.Snapshot()
}

// Notifier exposes the change stream.
func (w *Workspace) Notifier() *Notifier {
	return w.notifier
}

// ============================================================================
// Internal helpers (callers hold w.mu)
// ============================================================================

// commit saves the tree and tells subscribers to re-render. Save failures
// are logged; the in-memory tree stays authoritative.
func (w *Workspace) commit(ctx context.Context, reason string) {
	if err := w.adapter.Save(ctx, w.store.Snapshot()); err != nil {
		w.logger.Error("Failed to save tree", zap.String("reason", reason), zap.Error(err))
	}
	w.recorder.RecordTree(w.store.Stats())
	w.notifier.Publish(reason, w.history.Current())
}

func (w *Workspace) findAll(ids []tree.ID) []tree.Node {
	nodes := make([]tree.Node, 0, len(ids))
	for _, nid := range ids {
		if n, ok := w.store.Find(nid); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func archiveName(nodes []tree.Node, f archive.Format) string {
	if len(nodes) == 1 {
		base, _ := content.SplitName(nodes[0].NodeName())
		if _, isFolder := nodes[0].(*tree.Folder); isFolder {
			base = nodes[0].NodeName()
		}
		return base + f.Extension()
	}
	return "archive" + f.Extension()
}

func archiveContentType(f archive.Format) string {
	switch f {
	case archive.FormatTarGzip:
		return "application/gzip"
	case archive.FormatTarZstd:
		return "application/zstd"
	default:
		return "application/zip"
	}
}
