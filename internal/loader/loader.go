package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/chunklink/internal/parser"
	"github.com/dshills/chunklink/pkg/types"
)

// ErrParseFailed is returned when at least one manifest has parse errors
var ErrParseFailed = errors.New("module manifest has errors")

// manifestSuffixes are the recognized manifest file name endings
var manifestSuffixes = []string{".module.yaml", ".module.yml", ".module.json"}

// Loader discovers and parses module manifests with bounded parallelism
type Loader struct {
	parser *parser.Parser
	logger *zap.Logger
}

// Config contains configuration for a load
type Config struct {
	// MaxParallelFileOps bounds files parsed at once (0: one per file)
	MaxParallelFileOps int

	// ModuleSideEffects classifies modules whose manifest omits sideEffects
	// (nil: always)
	ModuleSideEffects func(id string, external bool) bool
}

// Statistics contains statistics about the load
type Statistics struct {
	FilesParsed   int
	FilesFailed   int
	PeakParallel  int
	Duration      time.Duration
	ErrorMessages []string
}

// New creates a new Loader instance. A nil logger disables debug output.
func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		parser: parser.New(),
		logger: logger,
	}
}

// Load parses every manifest under rootPath. Modules are returned in file
// path order, independent of scheduling. The returned modules form the
// frozen input of one build.
func (l *Loader) Load(ctx context.Context, rootPath string, config *Config) ([]*types.Module, *Statistics, error) {
	if config == nil {
		config = &Config{}
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access graph directory: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("graph path %s is not a directory", rootPath)
	}

	// Discover manifest files
	files, err := l.discoverFiles(rootPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to discover files: %w", err)
	}
	l.logger.Debug("discovered manifests", zap.String("root", rootPath), zap.Int("count", len(files)))

	// Parse files concurrently
	results, err := l.parseFiles(ctx, files, config, stats)
	if err != nil {
		return nil, nil, err
	}

	if stats.FilesFailed > 0 {
		stats.Duration = time.Since(startTime)
		return nil, stats, fmt.Errorf("%w: %s", ErrParseFailed, stats.ErrorMessages[0])
	}

	modules, err := l.collect(results, config)
	if err != nil {
		return nil, stats, err
	}

	stats.Duration = time.Since(startTime)
	l.logger.Debug("load complete",
		zap.Int("modules", len(modules)),
		zap.Int("peak_parallel", stats.PeakParallel),
		zap.Duration("duration", stats.Duration))

	return modules, stats, nil
}

// discoverFiles finds all manifest files, skipping hidden directories.
// filepath.Walk visits entries in lexical order.
func (l *Loader) discoverFiles(rootPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			// Skip hidden directories
			if path != rootPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if isManifest(info.Name()) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func isManifest(name string) bool {
	for _, suffix := range manifestSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// parseFiles parses files concurrently; results keep the files' order
func (l *Loader) parseFiles(ctx context.Context, files []string, config *Config, stats *Statistics) ([]*types.ParseResult, error) {
	workers := config.MaxParallelFileOps
	if workers <= 0 || workers > len(files) {
		workers = len(files)
	}
	if workers == 0 {
		return nil, nil
	}

	// Create worker pool with semaphore
	semaphore := make(chan struct{}, workers)
	results := make([]*types.ParseResult, len(files))

	var (
		parsed   int32
		failed   int32
		inFlight int32
		peak     int32
		mu       sync.Mutex // Protect stats.ErrorMessages
	)

	g, gctx := errgroup.WithContext(ctx)

	for i, filePath := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
				// Acquire semaphore
			}
			defer func() { <-semaphore }()

			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			defer atomic.AddInt32(&inFlight, -1)

			result, err := l.parser.ParseFile(filePath)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
				mu.Unlock()
				return nil
			}

			if result.HasErrors() {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				for i := range result.Errors {
					stats.ErrorMessages = append(stats.ErrorMessages, result.Errors[i].Error())
				}
				mu.Unlock()
				return nil
			}

			results[i] = result
			atomic.AddInt32(&parsed, 1)
			return nil
		})
	}

	// Wait for all goroutines to complete
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.FilesParsed = int(parsed)
	stats.FilesFailed = int(failed)
	stats.PeakParallel = int(peak)

	// Error messages arrive in completion order; report the earliest file first
	if failed > 0 {
		sortMessagesByFile(stats.ErrorMessages, files)
	}

	return results, nil
}

// collect freezes parse results into modules, rejecting duplicate ids
func (l *Loader) collect(results []*types.ParseResult, config *Config) ([]*types.Module, error) {
	modules := make([]*types.Module, 0, len(results))
	seen := make(map[string]bool, len(results))

	for _, result := range results {
		if result == nil {
			continue
		}
		mod := result.Module
		if seen[mod.ID] {
			return nil, types.ConfigError(types.CodeDuplicateModule, "module %q is declared by more than one manifest", mod.ID)
		}
		seen[mod.ID] = true

		if mod.SideEffects == types.SideEffectsUnknown {
			mod.SideEffects = types.SideEffectsAlways
			if config.ModuleSideEffects != nil && !config.ModuleSideEffects(mod.ID, false) {
				mod.SideEffects = types.SideEffectsNever
			}
		}

		modules = append(modules, &mod)
	}

	return modules, nil
}

// sortMessagesByFile orders messages by the position of their file in files
func sortMessagesByFile(messages []string, files []string) {
	rank := func(msg string) int {
		for i, f := range files {
			if strings.HasPrefix(msg, f+":") {
				return i
			}
		}
		return len(files)
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return rank(messages[i]) < rank(messages[j])
	})
}
