package command

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/providers/archive"
	"github.com/GriffinCanCode/filedeck/internal/providers/content"
	"github.com/GriffinCanCode/filedeck/internal/shared/types"
)

// handler runs one action with w.mu held.
type handler func(w *Workspace, ctx context.Context, p Params) (*types.Result, error)

type route struct {
	run     handler
	mutates bool
}

var routes = map[Action]route{
	ActionOpen:         {run: (*Workspace).open},
	ActionRename:       {run: (*Workspace).rename, mutates: true},
	ActionDelete:       {run: (*Workspace).remove, mutates: true},
	ActionMoveTo:       {run: (*Workspace).moveTo, mutates: true},
	ActionDestinations: {run: (*Workspace).destinations},
	ActionEdit:         {run: (*Workspace).edit, mutates: true},
	ActionZip:          {run: (*Workspace).zip, mutates: true},
	ActionUnzip:        {run: (*Workspace).unzip, mutates: true},
	ActionCreateFile:   {run: (*Workspace).createFile, mutates: true},
	ActionCreateFolder: {run: (*Workspace).createFolder, mutates: true},
}

// Execute runs action. User-facing failures come back as an unsuccessful
// Result with a nil error; an unknown action returns both. Successful
// mutating actions are saved and published before Execute returns.
func (w *Workspace) Execute(ctx context.Context, action Action, p Params) (*types.Result, error) {
	r, ok := routes[action]
	if !ok {
		res, _ := types.Failure(fmt.Sprintf("unknown action: %s", action))
		return res, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	start := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	res, err := r.run(w, ctx, p)
	success := err == nil && res != nil && res.Success
	w.recorder.RecordAction(string(action), success, time.Since(start))

	if err != nil {
		w.logger.Error("Action failed", zap.String("action", string(action)), zap.Error(err))
		return res, err
	}
	if !success {
		w.logger.Debug("Action rejected", zap.String("action", string(action)), zap.Stringp("reason", res.Error))
		return res, nil
	}
	if r.mutates {
		w.commit(ctx, string(action))
	}
	return res, nil
}

// one resolves the single target of an action.
func (w *Workspace) one(p Params) (tree.Location, string) {
	ids := p.targets()
	if len(ids) == 0 {
		ids = w.selectedInView()
	}
	if len(ids) != 1 {
		return tree.Location{}, fmt.Sprintf("expected one item, got %d", len(ids))
	}
	loc, ok := w.store.FindWithParent(ids[0])
	if !ok {
		return tree.Location{}, fmt.Sprintf("item %d not found", ids[0])
	}
	return loc, ""
}

// many resolves the targets of a bulk-capable action.
func (w *Workspace) many(p Params) []tree.ID {
	if ids := p.targets(); len(ids) > 0 {
		return ids
	}
	return w.selectedInView()
}

func (w *Workspace) open(ctx context.Context, p Params) (*types.Result, error) {
	loc, msg := w.one(p)
	if msg != "" {
		return types.Failure(msg)
	}

	switch n := loc.Node.(type) {
	case *tree.Folder:
		path := loc.Parent.Child(n.ID)
		if err := w.navigate(ctx, path); err != nil {
			return types.Failure(err.Error())
		}
		return types.Success(map[string]interface{}{
			"id":   n.ID,
			"type": tree.KindFolder,
			"path": path.String(),
		})
	case *tree.File:
		info := content.Inspect(n.Name, n.Content)
		data := map[string]interface{}{
			"id":   n.ID,
			"type": tree.KindFile,
			"name": n.Name,
			"info": info,
		}
		if info.Text {
			data["text"] = content.Text(n.Content)
			data["preview"] = content.Preview(n.Name, n.Content, 0)
		}
		return types.Success(data)
	}
	return types.Failure("unsupported node")
}

func (w *Workspace) rename(ctx context.Context, p Params) (*types.Result, error) {
	loc, msg := w.one(p)
	if msg != "" {
		return types.Failure(msg)
	}
	name := content.SanitizeName(p.Name)
	renamed := w.store.Rename(loc.Node.NodeID(), name)
	return types.Success(map[string]interface{}{
		"id":      loc.Node.NodeID(),
		"renamed": renamed,
		"name":    name,
	})
}

func (w *Workspace) remove(ctx context.Context, p Params) (*types.Result, error) {
	ids := w.many(p)
	if len(ids) == 0 {
		return types.Failure(ErrNothingChosen.Error())
	}
	deleted := w.store.Delete(ids...)
	w.selection.Remove(ids...)
	return types.Success(map[string]interface{}{"deleted": deleted})
}

func (w *Workspace) moveTo(ctx context.Context, p Params) (*types.Result, error) {
	ids := w.many(p)
	if len(ids) == 0 {
		return types.Failure(ErrNothingChosen.Error())
	}
	if !w.store.Exists(p.Dest) {
		return types.Failure(fmt.Sprintf("destination %q not found", p.Dest.String()))
	}

	moved := 0
	for _, nid := range ids {
		if w.store.Move(nid, p.Dest) {
			moved++
			w.selection.Remove(nid)
		}
	}
	return types.Success(map[string]interface{}{
		"moved": moved,
		"dest":  p.Dest.String(),
	})
}

func (w *Workspace) destinations(ctx context.Context, p Params) (*types.Result, error) {
	loc, msg := w.one(p)
	if msg != "" {
		return types.Failure(msg)
	}

	dests := w.store.ListDestinations(loc.Node.NodeID())
	out := make([]map[string]interface{}, 0, len(dests)+1)
	out = append(out, map[string]interface{}{"id": 0, "name": "Home", "target": ""})
	for _, d := range dests {
		out = append(out, map[string]interface{}{
			"id":     d.ID,
			"name":   d.Name,
			"path":   d.Path.String(),
			"target": d.Target().String(),
		})
	}
	return types.Success(map[string]interface{}{"destinations": out})
}

func (w *Workspace) edit(ctx context.Context, p Params) (*types.Result, error) {
	loc, msg := w.one(p)
	if msg != "" {
		return types.Failure(msg)
	}
	if _, ok := loc.Node.(*tree.File); !ok {
		return types.Failure(ErrNotFile.Error())
	}
	w.store.SetContent(loc.Node.NodeID(), tree.TextPayload(p.Text))
	return types.Success(map[string]interface{}{
		"id":   loc.Node.NodeID(),
		"size": len(p.Text),
	})
}

func (w *Workspace) zip(ctx context.Context, p Params) (*types.Result, error) {
	format, err := archive.ParseFormat(p.Format)
	if err != nil {
		return types.Failure(err.Error())
	}

	ids := w.many(p)
	nodes := w.findAll(ids)
	if len(nodes) == 0 {
		return types.Failure(ErrNothingChosen.Error())
	}

	data, err := w.archiver.Pack(nodes, format)
	if err != nil {
		return types.Failure(err.Error())
	}

	parent := w.history.Current()
	if loc, ok := w.store.FindWithParent(nodes[0].NodeID()); ok {
		parent = loc.Parent
	}
	f, err := w.store.CreateFile(parent, archiveName(nodes, format), tree.EncodePayload(data))
	if err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{
		"id":      f.ID,
		"name":    f.Name,
		"size":    len(data),
		"entries": len(nodes),
	})
}

func (w *Workspace) unzip(ctx context.Context, p Params) (*types.Result, error) {
	loc, msg := w.one(p)
	if msg != "" {
		return types.Failure(msg)
	}
	f, ok := loc.Node.(*tree.File)
	if !ok {
		return types.Failure(ErrNotFile.Error())
	}

	folder, err := w.archiver.Unpack(f.Content.Bytes(), f.Name)
	if err != nil {
		w.logger.Warn("Unzip failed", zap.String("name", f.Name), zap.Error(err))
		return types.Failure(err.Error())
	}
	if err := w.store.Insert(loc.Parent, folder); err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{
		"id":    folder.ID,
		"name":  folder.Name,
		"items": len(tree.IDs(folder.Children)),
	})
}

func (w *Workspace) createFile(ctx context.Context, p Params) (*types.Result, error) {
	f, err := w.store.CreateFile(w.history.Current(), content.SanitizeName(p.Name), tree.TextPayload(p.Text))
	if err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{"id": f.ID, "name": f.Name})
}

func (w *Workspace) createFolder(ctx context.Context, p Params) (*types.Result, error) {
	f, err := w.store.CreateFolder(w.history.Current(), content.SanitizeName(p.Name))
	if err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{"id": f.ID, "name": f.Name})
}
