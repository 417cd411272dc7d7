// Package runtime wires together the repository, review client, and output
// for one command invocation. This avoids passing multiple parameters through
// every command.
package runtime

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"gcl.dev/gcl/internal/config"
	"gcl.dev/gcl/internal/gerrit"
	"gcl.dev/gcl/internal/git"
	"gcl.dev/gcl/internal/output"
)

// Context provides the collaborators commands work with. It is built once per
// invocation; nothing in it outlives the command.
type Context struct {
	Settings *config.Settings
	Client   gerrit.Client
	Repo     *git.Repository
	Ops      *git.Operations
	Splog    *output.Splog
	Log      *zap.Logger
}

// Options control context construction
type Options struct {
	Verbose bool
	Remote  string // git remote of the review server, default "origin"
}

// NewContext builds a Context for the repository containing the working
// directory. Settings are loaded once here and passed into the client
// explicitly; no collaborator reads configuration on its own.
func NewContext(opts Options) (*Context, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	repo, err := git.OpenRepository(wd)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	log := newLogger(repo.Root(), opts.Verbose)
	ops := git.NewOperations(repo, opts.Remote)

	settings, err := config.Load(repo.Root())
	if err != nil {
		return nil, err
	}

	client, err := gerrit.NewRESTClient(settings, ops, log)
	if err != nil {
		return nil, err
	}

	return &Context{
		Settings: settings,
		Client:   client,
		Repo:     repo,
		Ops:      ops,
		Splog:    output.NewSplog(),
		Log:      log,
	}, nil
}

// newLogger builds the diagnostic logger. Debug output always lands in a
// rotated log file inside the checkout's .git directory; verbose runs mirror
// it to stderr.
func newLogger(repoRoot string, verbose bool) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(repoRoot, ".git", "gcl.log"),
			MaxSize:    5, // megabytes
			MaxBackups: 2,
		}), zapcore.DebugLevel),
	}
	if verbose {
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// Close flushes the diagnostic logger
func (c *Context) Close() {
	_ = c.Log.Sync()
}
