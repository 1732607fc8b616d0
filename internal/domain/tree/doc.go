// Package tree implements the in-memory folder/file tree behind FileDeck.
//
// The tree is a sequence of root nodes. Every node is either a *Folder or a
// *File; traversal code switches over those two variants and nothing else.
//
// Store Operations:
//   - Resolve: walk a Path of folder ids and return that folder's contents
//   - FindWithParent: depth-first lookup returning the node and its container
//   - Insert / Delete / Move / Rename / SetContent: in-place mutation
//   - ListDestinations: candidate folders for a move, with their paths
//   - Search: doublestar globbing over slash-joined name paths
//
// Missing entities are not errors: an unresolvable path yields empty
// contents, unknown ids are skipped, and a move with a bad source or
// destination is a no-op.
//
// The Store owns its nodes exclusively. Everything it hands out is a deep
// copy, and everything handed in is copied before it is attached.
//
// Example Usage:
//
//	store := tree.NewStore(nil)
//	folder, _ := store.CreateFolder(tree.Root, "Docs")
//	file, _ := store.CreateFile(tree.Root, "notes.txt", tree.TextPayload("hi"))
//	store.Move(file.ID, tree.Root.Child(folder.ID))
package tree
