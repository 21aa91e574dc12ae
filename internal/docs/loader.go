package docs

import (
	"context"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mcncl/ansible-ls/internal/schema"
)

// maxConcurrentRoots caps how many documentation roots are walked at once.
const maxConcurrentRoots = 4

// Loader reads documentation index files from a filesystem.
type Loader struct {
	fs        afero.Fs
	validator *schema.Validator
	logger    *zap.SugaredLogger
}

func NewLoader(fs afero.Fs, validator *schema.Validator, logger *zap.SugaredLogger) *Loader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if validator == nil {
		validator = schema.NewValidator()
	}
	return &Loader{fs: fs, validator: validator, logger: logger}
}

// Load reads every index file under roots. Roots are walked concurrently and
// merged in the order given, so earlier roots win on conflicts. Files that
// fail to parse or validate are skipped; their errors are combined into the
// returned error next to a usable index.
func (l *Loader) Load(ctx context.Context, roots []string) (*Index, error) {
	results := make([]*Index, len(roots))

	var (
		mu   sync.Mutex
		errs error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = multierr.Append(errs, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRoots)
	for i, root := range roots {
		g.Go(func() error {
			idx, err := l.loadRoot(ctx, root)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				record(err)
			}
			results[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := NewIndex()
	for _, idx := range results {
		merged.Merge(idx)
	}

	l.logger.Debugw("Loaded documentation roots", "roots", len(roots), "modules", len(merged.Modules))
	return merged, errs
}

func (l *Loader) loadRoot(ctx context.Context, root string) (*Index, error) {
	idx := NewIndex()
	var errs error

	walkErr := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := FormatOf(path); !ok {
			return nil
		}

		fileIdx, err := l.LoadFile(path)
		if err != nil {
			l.logger.Warnw("Skipping documentation file", "path", path, "error", err)
			errs = multierr.Append(errs, err)
			return nil
		}
		idx.Merge(fileIdx)
		return nil
	})
	if walkErr != nil {
		errs = multierr.Append(errs, errors.Wrapf(walkErr, "failed to read documentation root %s", root))
	}
	return idx, errs
}

// LoadFile reads, validates and decodes a single index file.
func (l *Loader) LoadFile(path string) (*Index, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, errors.Newf("%s: not a documentation index file", path)
	}

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	jsonData, err := ToJSON(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	invalid, err := l.validator.ValidateJSON(jsonData)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	if invalid != nil {
		return nil, errors.Wrapf(invalid, "%s", path)
	}

	idx, err := ParseIndex(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return idx, nil
}
