// Package types provides shared data structures for the FileDeck backend.
//
// Core Types:
//   - Result: standard outcome of a workspace action
//   - Tool, Parameter: self-describing action catalog entries
//
// Request Types:
//   - ActionRequest: execute a context-menu action
//   - NavigateRequest, ClickRequest: browsing and selection
//   - ImportLinkRequest: import from pasted text or a URL
//   - WSMessage: change-stream frames
//
// Example Usage:
//
//	res, err := ws.Execute(ctx, command.ActionRename, command.Params{
//	    ID:   42,
//	    Name: "report.txt",
//	})
//	if !res.Success {
//	    log.Println(*res.Error)
//	}
package types
