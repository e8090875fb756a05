// Package tools runs the native converters the pipeline depends on: the
// addressables catalog bin-to-json converter and the Unity bundle extractor.
package tools

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/jmagar/rift-cli/internal/helpers"
	"github.com/jmagar/rift-cli/internal/logger"
	"github.com/jmagar/rift-cli/internal/metrics"
)

// ErrToolFailed is returned when a tool cannot start, exits non-zero or
// does not produce its output.
var ErrToolFailed = errors.New("external tool failed")

// CatalogConverter turns a catalog.bin into its JSON form.
type CatalogConverter interface {
	Convert(ctx context.Context, binPath, jsonPath string) error
}

// BundleExtractor unpacks every bundle in bundlesDir into outDir.
type BundleExtractor interface {
	Extract(ctx context.Context, bundlesDir, outDir string) error
}

// runner holds what both tools share. commandContext is injected for tests.
type runner struct {
	path           string
	log            logger.Logger
	metrics        *metrics.Recorder
	commandContext func(ctx context.Context, name string, args ...string) *exec.Cmd
}

func newRunner(path string, log logger.Logger, rec *metrics.Recorder) runner {
	if log == nil {
		log = logger.Nop()
	}
	return runner{
		path:           helpers.ResolveToolPath(path),
		log:            log,
		metrics:        rec,
		commandContext: exec.CommandContext,
	}
}

// run starts the tool and hands every non-empty stderr line to onStderr.
func (r runner) run(ctx context.Context, tool string, onStderr func(string), args ...string) error {
	cmd := r.commandContext(ctx, r.path, args...)
	cmd.Stdout = io.Discard
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolFailed, tool, err)
	}
	if err := cmd.Start(); err != nil {
		r.metrics.ToolRun(tool, err)
		return fmt.Errorf("%w: start %s: %w", ErrToolFailed, tool, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				onStderr(line)
			}
		}
	}()
	// Pipe readers must finish before Wait.
	wg.Wait()

	err = cmd.Wait()
	r.metrics.ToolRun(tool, err)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrToolFailed, tool, err)
	}
	return nil
}

// Converter runs `<path> convert <in> <out>`.
type Converter struct {
	runner
}

// NewConverter builds a Converter for the executable at path.
func NewConverter(path string, log logger.Logger, rec *metrics.Recorder) *Converter {
	return &Converter{runner: newRunner(path, log, rec)}
}

// Convert implements CatalogConverter. Stderr is folded into the error.
func (c *Converter) Convert(ctx context.Context, binPath, jsonPath string) error {
	var diagnostics bytes.Buffer
	err := c.run(ctx, "converter", func(line string) {
		diagnostics.WriteString(line)
		diagnostics.WriteString("\n")
	}, "convert", binPath, jsonPath)
	if err != nil {
		if diagnostics.Len() > 0 {
			return fmt.Errorf("%w\n%s", err, strings.TrimSpace(diagnostics.String()))
		}
		return err
	}
	if _, statErr := os.Stat(jsonPath); statErr != nil {
		return fmt.Errorf("%w: converter produced no output at %s", ErrToolFailed, jsonPath)
	}
	return nil
}

// Extractor runs `<path> <bundles> -o <out>`.
type Extractor struct {
	runner
}

// NewExtractor builds an Extractor for the executable at path.
func NewExtractor(path string, log logger.Logger, rec *metrics.Recorder) *Extractor {
	return &Extractor{runner: newRunner(path, log, rec)}
}

// Extract implements BundleExtractor. Each stderr line is logged as an error
// as it arrives.
func (e *Extractor) Extract(ctx context.Context, bundlesDir, outDir string) error {
	if err := helpers.MakeDirs(outDir); err != nil {
		return err
	}
	log := e.log.Named("extractor")
	return e.run(ctx, "extractor", func(line string) {
		log.Error(ctx, "extractor stderr", logger.String("line", line), logger.String("bundles", bundlesDir))
	}, bundlesDir, "-o", outDir)
}
