// Package loader discovers module manifests and parses them with bounded
// parallelism.
//
// Parsing is the only concurrent stage of a build. At most
// MaxParallelFileOps manifests are parsed at once; results are ordered by
// file path so the frozen module list never depends on scheduling.
//
// # Basic Usage
//
//	l := loader.New(logger)
//	modules, stats, err := l.Load(ctx, "./graph", &loader.Config{
//	    MaxParallelFileOps: 20,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("parsed %d manifests in %v\n", stats.FilesParsed, stats.Duration)
//
// # File Discovery
//
// Files ending in .module.yaml, .module.yml or .module.json are manifests.
// Hidden directories are skipped.
//
// # Failures
//
// A manifest with parse errors fails the whole load with ErrParseFailed,
// naming the first failing file. Two manifests declaring the same id fail
// with a DUPLICATE_MODULE configuration error.
//
// # Side Effects
//
// Modules whose manifest omits sideEffects are classified with the
// configured ModuleSideEffects predicate.
//
// # Build Lock
//
// BuildLock is a non-blocking try-lock for servers that must reject a
// second build while one is running:
//
//	if !lock.TryAcquire() {
//	    return errBuildInProgress
//	}
//	defer lock.Release()
package loader
