package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	lesspipe "github.com/alnah/go-lesspipe"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// StylesheetRenderer is the interface for the rendering service.
type StylesheetRenderer interface {
	Render(ctx context.Context, source string, opts lesspipe.Options) (*lesspipe.Result, error)
}

// Compile-time interface implementation check.
var _ StylesheetRenderer = (*lesspipe.Renderer)(nil)

// RenderResult holds the outcome of a single render.
type RenderResult struct {
	InputPath  string
	OutputPath string
	Sources    []string // absolute paths of every file the map references
	Embedded   bool     // the failure was written as a banner stylesheet
	Err        error
	Duration   time.Duration
}

// renderBatch processes files concurrently with a bounded number of workers.
// Results are returned in the order of files.
func renderBatch(ctx context.Context, r StylesheetRenderer, workers int, files []FileToRender, params *renderParams, env *Environment) []RenderResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := workers
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]RenderResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = RenderResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = renderFile(ctx, r, files[idx], params, env)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// renderFile renders a single file and writes the CSS and its map.
func renderFile(ctx context.Context, r StylesheetRenderer, f FileToRender, params *renderParams, env *Environment) RenderResult {
	start := env.Now()
	result := RenderResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	done := func(err error) RenderResult {
		result.Err = err
		result.Duration = env.Now().Sub(start)
		return result
	}

	content, err := afero.ReadFile(env.Fs, f.InputPath)
	if err != nil {
		return done(fmt.Errorf("%w: %w", ErrReadLess, err))
	}

	res, err := r.Render(ctx, string(content), buildOptions(params, f))
	if err != nil {
		return done(err)
	}

	if err := env.Fs.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return done(fmt.Errorf("%w: %w", ErrCreateOutputDir, err))
	}
	if err := afero.WriteFile(env.Fs, f.OutputPath, []byte(res.CSS), filePermissions); err != nil {
		return done(fmt.Errorf("%w: %w", ErrWriteCSS, err))
	}

	mapPath := f.OutputPath + ".map"
	if res.Map == "" {
		// Embedded error: the banner has no map, drop the one from the last good build.
		result.Embedded = true
		if err := env.Fs.Remove(mapPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return done(fmt.Errorf("%w: removing stale map: %w", ErrWriteCSS, err))
		}
		return done(nil)
	}
	if err := afero.WriteFile(env.Fs, mapPath, []byte(res.Map), filePermissions); err != nil {
		return done(fmt.Errorf("%w: %w", ErrWriteCSS, err))
	}

	for _, s := range res.Sources() {
		result.Sources = append(result.Sources, filepath.Join(params.base, filepath.FromSlash(s)))
	}
	return done(nil)
}

// ResultSummary holds the count of succeeded, embedded and failed renders.
type ResultSummary struct {
	Succeeded int
	Embedded  int
	Failed    int
}

// countResults tallies render outcomes.
func countResults(results []RenderResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case r.Embedded:
			summary.Embedded++
		default:
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs render results using the environment writers.
// Returns the number of failed renders.
func printResults(results []RenderResult, common commonFlags, env *Environment) int {
	summary := countResults(results)
	failed := color.New(color.FgRed, color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	ok := color.New(color.FgGreen).SprintFunc()

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "%s %s\n", failed("FAILED"), r.InputPath)
			printDiagnostic(env, r.Err)
			continue
		}

		if common.quiet {
			continue
		}

		switch {
		case r.Embedded:
			fmt.Fprintf(env.Stdout, "%s %s (error embedded)\n", warn("Embedded"), r.OutputPath)
		case common.verbose:
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(env.Stdout, "%s %s\n", ok("Created"), r.OutputPath)
		}
	}

	if !common.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d embedded, %d failed\n", summary.Succeeded, summary.Embedded, summary.Failed)
	}

	return summary.Failed
}

// batchFailure reports that some renders of a batch failed. The individual
// errors were already printed; Unwrap exposes them for exit code mapping.
type batchFailure struct {
	failed, total int
	err           error
}

func (e *batchFailure) Error() string {
	if e.total == 1 {
		return "render failed"
	}
	return fmt.Sprintf("%d of %d render(s) failed", e.failed, e.total)
}

func (e *batchFailure) Unwrap() error { return e.err }

// batchError combines the errors of results, nil when every render succeeded.
func batchError(results []RenderResult) error {
	var err error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.InputPath, r.Err))
		}
	}
	if err == nil {
		return nil
	}
	return &batchFailure{failed: failed, total: len(results), err: err}
}
