// Package cli wires the language server and its helper commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mcncl/ansible-ls/internal/config"
	"github.com/mcncl/ansible-ls/internal/docs"
	"github.com/mcncl/ansible-ls/internal/lsp"
	"github.com/mcncl/ansible-ls/internal/modules"
	"github.com/mcncl/ansible-ls/internal/parser"
	"github.com/mcncl/ansible-ls/internal/semantic"
)

// BuildInfo is set at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type app struct {
	info     BuildInfo
	fs       afero.Fs
	v        *viper.Viper
	logger   *zap.SugaredLogger
	settings *config.Settings

	configFile string
	debug      bool
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute(info BuildInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(info).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Without a subcommand it serves
// the language server on stdio.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(info, afero.NewOsFs())
}

func newRootCommand(info BuildInfo, fs afero.Fs) *cobra.Command {
	a := &app{info: info, fs: fs, v: config.New()}

	root := &cobra.Command{
		Use:           "ansible-ls",
		Short:         "Language server for Ansible playbooks, roles and task files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "settings file (YAML, JSON or TOML)")
	flags.BoolVar(&a.debug, "debug", false, "log at debug level")
	flags.StringSlice("docs-path", nil, "directory of module documentation index files (repeatable)")
	_ = a.v.BindPFlag("docs.paths", flags.Lookup("docs-path"))

	root.AddCommand(a.versionCommand(), a.tokensCommand(), a.docsCommand())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(a.debug)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.configFile != "" {
		a.settings, err = config.LoadFile(a.v, a.configFile)
	} else {
		a.settings, err = config.Load(a.v)
	}
	if err != nil {
		return err
	}
	a.logger.Debugw("Settings loaded", "config", a.configFile, "docsPaths", a.settings.Docs.Paths)
	return nil
}

// newLogger logs JSON to stderr; stdout carries the protocol.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}
	return logger.Sugar(), nil
}

type stdio struct{}

func (stdio) Read(p []byte) (n int, err error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (n int, err error) { return os.Stdout.Write(p) }
func (stdio) Close() error                      { return nil }

func (a *app) serve(ctx context.Context) error {
	server := lsp.NewServer(
		lsp.WithLogger(a.logger),
		lsp.WithFs(a.fs),
		lsp.WithConfig(a.v),
		lsp.WithContext(ctx),
		lsp.WithVersion(a.info.Version),
	)
	defer server.Close()

	if err := server.LoadDocumentation(ctx); err != nil {
		a.logger.Warnw("Documentation loaded with errors", "error", err)
	}

	var rw io.ReadWriteCloser = stdio{}
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rw))
	server.SetConnection(conn)

	a.logger.Infow("Serving on stdio", "version", a.info.Version)
	conn.Go(ctx, server.Handler())

	select {
	case <-conn.Done():
	case <-ctx.Done():
		_ = conn.Close()
	}
	if err := conn.Err(); err != nil && !errors.Is(err, io.EOF) {
		a.logger.Debugw("Connection closed", "error", err)
	}
	return nil
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ansible-ls %s\n", a.info.Version)
			fmt.Fprintf(out, "Commit: %s\n", a.info.Commit)
			fmt.Fprintf(out, "Built: %s\n", a.info.Date)
			return nil
		},
	}
}

func (a *app) loadLibrary(ctx context.Context) (*docs.Library, error) {
	library := docs.NewLibrary(a.logger)
	idx, err := docs.NewLoader(a.fs, nil, a.logger).Load(ctx, a.settings.Docs.Paths)
	if idx != nil {
		library.Replace(idx)
	}
	return library, err
}

// tokensCommand prints the semantic tokens of a file, one per line as
// line:character, length, type and modifiers.
func (a *app) tokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the semantic tokens of an Ansible file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to resolve %s", args[0])
			}
			content, err := afero.ReadFile(a.fs, path)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", args[0])
			}

			library, err := a.loadLibrary(cmd.Context())
			if err != nil {
				a.logger.Warnw("Documentation loaded with errors", "error", err)
			}

			f := parser.Parse(string(content))
			if f.Err != nil {
				a.logger.Warnw("File has YAML errors", "file", path, "error", f.Err)
			}
			classifier := semantic.NewClassifier(modules.NewResolver(library), a.settings.FileHints())
			tokens := classifier.Classify(f, string(uri.File(path)))
			lookups, misses := library.GetCacheStats()
			a.logger.Debugw("Classified file", "file", path, "tokens", len(tokens), "moduleLookups", lookups, "unresolved", misses)

			out := cmd.OutOrStdout()
			for _, t := range semantic.Decode(semantic.Encode(tokens, f.Lines)) {
				fmt.Fprintf(out, "%d:%d\t%d\t%s\t%s\n", t.Line, t.Character, t.Length, t.Type, modifierNames(t.Modifiers))
			}
			return nil
		},
	}
}

func modifierNames(m semantic.Modifiers) string {
	var names []string
	for i, name := range semantic.TokenModifiers() {
		if m&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

// docsCommand lists the documented modules and fails when an index file
// could not be loaded.
func (a *app) docsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List documented modules and report invalid documentation files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(a.settings.Docs.Paths) == 0 {
				return errors.New("no documentation paths configured; use --docs-path or docs.paths")
			}
			library, loadErr := a.loadLibrary(cmd.Context())

			out := cmd.OutOrStdout()
			for _, fqcn := range library.ModuleFQCNs() {
				if route, ok := library.Route(fqcn); ok && route.Redirect != "" {
					fmt.Fprintf(out, "%s -> %s\n", fqcn, route.Redirect)
					continue
				}
				fmt.Fprintln(out, fqcn)
			}
			if loadErr != nil {
				return errors.Wrap(loadErr, "invalid documentation")
			}
			return nil
		},
	}
}
