package command

import (
	"fmt"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/providers/archive"
	"github.com/GriffinCanCode/filedeck/internal/shared/types"
)

// Action identifies a context-menu or toolbar command.
type Action string

const (
	ActionOpen         Action = "open"
	ActionRename       Action = "rename"
	ActionDelete       Action = "delete"
	ActionMoveTo       Action = "move-to"
	ActionDestinations Action = "destinations"
	ActionEdit         Action = "edit"
	ActionZip          Action = "zip"
	ActionUnzip        Action = "unzip"
	ActionCreateFile   Action = "create-file"
	ActionCreateFolder Action = "create-folder"
)

// Mode controls how clicks affect the selection.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// ScopeKind distinguishes single-item menus from bulk menus.
type ScopeKind string

const (
	ScopeSingle ScopeKind = "single"
	ScopeBulk   ScopeKind = "bulk"
)

// Scope is the target set a context menu acts on.
type Scope struct {
	Kind    ScopeKind `json:"kind"`
	IDs     []tree.ID `json:"ids"`
	Actions []Action  `json:"actions"`
}

// Params carries the arguments of an action. Zero ID and empty IDs mean
// "use the current selection".
type Params struct {
	ID     tree.ID
	IDs    []tree.ID
	Name   string
	Text   string
	Dest   tree.Path
	Format string
}

// ParamsFromRequest converts a transport request into Params.
func ParamsFromRequest(req types.ActionRequest) (Params, error) {
	p := Params{
		ID:     tree.ID(req.ID),
		Name:   req.Name,
		Text:   req.Text,
		Format: req.Format,
	}
	if req.Dest == nil {
		if Action(req.Action) == ActionMoveTo {
			return Params{}, fmt.Errorf("%s: %w", req.Action, ErrMissingDest)
		}
	} else {
		dest, err := tree.ParsePath(*req.Dest)
		if err != nil {
			return Params{}, err
		}
		p.Dest = dest
	}
	for _, v := range req.IDs {
		p.IDs = append(p.IDs, tree.ID(v))
	}
	return p, nil
}

// targets lists the ids an action applies to.
func (p Params) targets() []tree.ID {
	if len(p.IDs) > 0 {
		return p.IDs
	}
	if p.ID != 0 {
		return []tree.ID{p.ID}
	}
	return nil
}

// menuFor returns the menu entries for a scope over node n (nil for bulk).
func menuFor(kind ScopeKind, n tree.Node) []Action {
	if kind == ScopeBulk {
		return []Action{ActionZip, ActionDelete, ActionMoveTo}
	}
	actions := []Action{ActionOpen, ActionRename, ActionDelete, ActionMoveTo, ActionZip}
	if f, ok := n.(*tree.File); ok && isArchiveName(f.Name) {
		actions = append(actions, ActionUnzip)
	}
	return actions
}

func isArchiveName(name string) bool {
	return archive.FolderName(name) != name
}

// Catalog describes every action for clients building menus and docs.
func Catalog() []types.Tool {
	return []types.Tool{
		{
			ID:          string(ActionOpen),
			Name:        "Open",
			Description: "Enter a folder or read a file's text",
			Parameters: []types.Parameter{
				{Name: "id", Type: "number", Description: "Node id", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          string(ActionRename),
			Name:        "Rename",
			Description: "Rename a node; blank names are ignored",
			Parameters: []types.Parameter{
				{Name: "id", Type: "number", Description: "Node id", Required: true},
				{Name: "name", Type: "string", Description: "New name", Required: true},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          string(ActionDelete),
			Name:        "Delete",
			Description: "Delete nodes and their subtrees",
			Parameters: []types.Parameter{
				{Name: "ids", Type: "array", Description: "Node ids (default: selection)", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          string(ActionMoveTo),
			Name:        "Move to",
			Description: "Move nodes into another folder",
			Parameters: []types.Parameter{
				{Name: "ids", Type: "array", Description: "Node ids (default: selection)", Required: false},
				{Name: "dest", Type: "string", Description: "Destination folder path, \"\" for Home", Required: true},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          string(ActionDestinations),
			Name:        "Destinations",
			Description: "List folders a node can be moved into",
			Parameters: []types.Parameter{
				{Name: "id", Type: "number", Description: "Node id", Required: true},
			},
			Returns: "array",
		},
		{
			ID:          string(ActionEdit),
			Name:        "Edit",
			Description: "Replace a file's content with text",
			Parameters: []types.Parameter{
				{Name: "id", Type: "number", Description: "File id", Required: true},
				{Name: "text", Type: "string", Description: "New content", Required: true},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          string(ActionZip),
			Name:        "Zip",
			Description: "Archive nodes into a new file in the current folder",
			Parameters: []types.Parameter{
				{Name: "ids", Type: "array", Description: "Node ids (default: selection)", Required: false},
				{Name: "format", Type: "string", Description: "zip, tar.gz or tar.zst", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          string(ActionUnzip),
			Name:        "Unzip",
			Description: "Extract an archive file into a sibling folder",
			Parameters: []types.Parameter{
				{Name: "id", Type: "number", Description: "Archive file id", Required: true},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          string(ActionCreateFile),
			Name:        "New file",
			Description: "Create an empty file in the current folder",
			Parameters: []types.Parameter{
				{Name: "name", Type: "string", Description: "File name", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
		{
			ID:          string(ActionCreateFolder),
			Name:        "New folder",
			Description: "Create a folder in the current folder",
			Parameters: []types.Parameter{
				{Name: "name", Type: "string", Description: "Folder name", Required: false},
			},
			Returns: "object",
			Mutates: true,
		},
	}
}
