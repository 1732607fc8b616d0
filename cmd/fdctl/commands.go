package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/filedeck/internal/domain/command"
	"github.com/GriffinCanCode/filedeck/internal/domain/persistence"
	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/config"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/logging"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/storage"
	"github.com/GriffinCanCode/filedeck/internal/providers/fetch"
)

const usage = `usage: fdctl [-config file] [-db path] <command> [args]

commands:
  tree                      print the saved tree
  export [-format f] [-o f] write the tree as json (default) or yaml
  import <file|->           replace the tree with a json or yaml export
  import-link <input>       replace the tree from raw json, a share link or a url
  add <file>...             copy host files into the root folder
  import-dir [-ignore p] <dir>
                            copy a host directory into the root folder
  share                     print a share link for the tree
  search <pattern>          find nodes by glob, e.g. "**/*.txt"
`

var errUsage = errors.New("invalid usage")

// session is an open workspace plus the store it must close.
type session struct {
	ws      *command.Workspace
	backend storage.Backend
}

func (s *session) Close() error { return s.backend.Close() }

type globals struct {
	configPath string
	dbPath     string
	memory     bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var g globals
	fs := flag.NewFlagSet("fdctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&g.configPath, "config", os.Getenv("FILEDECK_CONFIG"), "TOML config file")
	fs.StringVar(&g.dbPath, "db", "", "storage path (overrides config)")
	fs.BoolVar(&g.memory, "memory", false, "use a throwaway in-memory store")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stdout, usage)
		return errUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprint(stdout, usage)
		return errUsage
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	sess, err := open(ctx, g)
	if err != nil {
		return err
	}
	defer sess.Close()

	return cmd(ctx, sess.ws, rest, stdin, stdout)
}

type commandFunc func(ctx context.Context, ws *command.Workspace, args []string, stdin io.Reader, stdout io.Writer) error

var commands = map[string]commandFunc{
	"tree":        cmdTree,
	"export":      cmdExport,
	"import":      cmdImport,
	"import-link": cmdImportLink,
	"add":         cmdAdd,
	"import-dir":  cmdImportDir,
	"share":       cmdShare,
	"search":      cmdSearch,
}

func open(ctx context.Context, g globals) (*session, error) {
	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dbPath != "" {
		cfg.Storage.Path = g.dbPath
	}
	if g.memory {
		cfg.Storage.Driver = string(storage.DriverMemory)
	}

	logger, err := logging.New(logging.CLIConfig())
	if err != nil {
		logger = logging.NewNop()
	}

	backend, err := storage.Open(storage.Options{Driver: storage.Driver(cfg.Storage.Driver), Path: cfg.Storage.Path})
	if err != nil {
		return nil, err
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = cfg.Fetch.Timeout.Std()
	fetchOpts.Retries = cfg.Fetch.Retries
	fetchOpts.MaxBytes = cfg.Fetch.MaxBytes

	adapter, err := persistence.NewAdapter(backend, persistence.Options{
		Key:       cfg.Storage.Key,
		PublicURL: cfg.Server.PublicURL,
		Fetcher:   fetch.NewClient(fetchOpts),
		Logger:    logger.Logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	ws, _, err := command.Open(ctx, adapter, "", command.Options{Logger: logger.Logger})
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &session{ws: ws, backend: backend}, nil
}

// ============================================================================
// Commands
// ============================================================================

func cmdTree(ctx context.Context, ws *command.Workspace, args []string, _ io.Reader, stdout io.Writer) error {
	printTree(stdout, ws.Snapshot(), "")
	stats := ws.Stats()
	fmt.Fprintf(stdout, "\n%d folders, %d files\n", stats.Folders, stats.Files)
	return nil
}

func printTree(w io.Writer, nodes []tree.Node, indent string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		switch v := n.(type) {
		case *tree.Folder:
			fmt.Fprintf(w, "%s%s%s/\n", indent, branch, v.Name)
			printTree(w, v.Children, indent+next)
		case *tree.File:
			fmt.Fprintf(w, "%s%s%s (%d B)\n", indent, branch, v.Name, len(v.Content.Bytes()))
		}
	}
}

func cmdExport(ctx context.Context, ws *command.Workspace, args []string, _ io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", "json", "json or yaml")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	exp, err := ws.ExportTree(*format)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = stdout.Write(exp.Data)
		return err
	}
	if err := os.WriteFile(*out, exp.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", *out, len(exp.Data))
	return nil
}

func cmdImport(ctx context.Context, ws *command.Workspace, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import takes one file argument", errUsage)
	}

	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(args[0])) {
	case ".yaml", ".yml":
		err = ws.ImportYAML(ctx, data)
	default:
		err = ws.ImportJSON(ctx, data)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %d top-level entries\n", len(ws.Snapshot()))
	return nil
}

func cmdImportLink(ctx context.Context, ws *command.Workspace, args []string, _ io.Reader, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import-link takes one argument", errUsage)
	}
	if err := ws.ImportLink(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %d top-level entries\n", len(ws.Snapshot()))
	return nil
}

func cmdAdd(ctx context.Context, ws *command.Workspace, args []string, _ io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: add takes one or more files", errUsage)
	}
	files, err := ws.ImportFiles(ctx, args)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(stdout, "%d\t%s\n", f.ID, f.Name)
	}
	return nil
}

func cmdImportDir(ctx context.Context, ws *command.Workspace, args []string, _ io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("import-dir", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	ignore := fs.String("ignore", "", "comma-separated glob patterns to skip")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return fmt.Errorf("%w: import-dir [-ignore patterns] <dir>", errUsage)
	}

	var patterns []string
	for _, p := range strings.Split(*ignore, ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	folder, err := ws.ImportDir(ctx, fs.Arg(0), patterns)
	if err != nil {
		return err
	}
	stats := tree.NewStore([]tree.Node{folder}).Stats()
	fmt.Fprintf(stdout, "imported %s: %d folders, %d files\n", folder.Name, stats.Folders, stats.Files)
	return nil
}

func cmdShare(ctx context.Context, ws *command.Workspace, args []string, _ io.Reader, stdout io.Writer) error {
	link, err := ws.ShareLink()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, link)
	return nil
}

func cmdSearch(ctx context.Context, ws *command.Workspace, args []string, _ io.Reader, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: search takes one pattern", errUsage)
	}
	matches, err := ws.Search(args[0])
	if err != nil {
		return err
	}
	for _, m := range matches {
		suffix := ""
		if m.Node.Kind() == tree.KindFolder {
			suffix = "/"
		}
		fmt.Fprintf(stdout, "%d\t%s%s\n", m.Node.NodeID(), m.NamePath, suffix)
	}
	return nil
}
