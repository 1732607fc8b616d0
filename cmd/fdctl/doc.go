// Command fdctl inspects and edits a FileDeck store without the server.
//
// It opens the same bolt file the server uses, so stop the server first;
// bolt holds an exclusive lock on the file.
//
// Usage:
//
//	fdctl -db ./filedeck.db tree
//	fdctl export -format yaml -o backup.yaml
//	fdctl import backup.yaml
//	fdctl import-dir -ignore "*.log,tmp/**" ~/notes
//	fdctl share
package main
