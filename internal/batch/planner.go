package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ogrtools/ogr2bq/internal/columns"
	"github.com/ogrtools/ogr2bq/internal/convert"
	"github.com/ogrtools/ogr2bq/internal/schema"
)

var (
	// ErrInvalidArguments reports a batch-wide misconfiguration detected
	// before any job starts.
	ErrInvalidArguments = errors.New("invalid argument combination")
	// ErrMissingOutputDir reports a target directory that does not exist and
	// was not allowed to be created. Fatal for one job only.
	ErrMissingOutputDir = errors.New("output directory does not exist")
)

// Request describes one batch run.
type Request struct {
	Source     string // file, or directory when Extension is set
	Extension  string // extension filter, required for directory sources
	OutputPath string // explicit output file, single-file sources only
	OutputDir  string

	CreateParents    bool
	Force            bool
	KeepIntermediate bool
	SkipSchema       bool

	Strategy    convert.Strategy
	Passthrough []string
	Plan        *columns.Plan
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Succeeded []Result
	Failed    int
}

// Result is one successfully converted source.
type Result struct {
	Source     string
	OutputPath string
	Schema     *schema.Schema
}

// Run validates the request, enumerates the source files and converts each
// in sequence. Per-source failures are logged and counted, they do not abort
// the remaining jobs. Validation failures abort before any I/O.
func Run(ctx context.Context, req Request, engine convert.Engine) (*Summary, error) {
	sources, err := enumerate(req)
	if err != nil {
		return nil, err
	}
	if err := convert.ValidatePassthrough(req.Passthrough); err != nil {
		return nil, err
	}

	namer := NewNamer()
	summary := &Summary{}

	for _, source := range sources {
		job, err := buildJob(req, source, namer, engine)
		if err == nil {
			var sch *schema.Schema
			if sch, err = job.Run(ctx); err == nil {
				summary.Succeeded = append(summary.Succeeded, Result{
					Source:     source,
					OutputPath: job.OutputPath,
					Schema:     sch,
				})
				continue
			}
		}

		summary.Failed++
		log.Error().Err(err).Str("source", source).Msg("Conversion failed")
	}

	return summary, nil
}

// enumerate validates the source/extension/output combination and returns the
// list of files to convert.
func enumerate(req Request) ([]string, error) {
	if req.Source == "" {
		return nil, fmt.Errorf("%w: source cannot be empty", ErrInvalidArguments)
	}

	info, err := os.Stat(req.Source)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", req.Source, err)
	}

	if !info.IsDir() {
		if req.Extension != "" {
			return nil, fmt.Errorf("%w: extension filter cannot be used when the source is a file", ErrInvalidArguments)
		}
		return []string{req.Source}, nil
	}

	if req.Extension == "" {
		return nil, fmt.Errorf("%w: extension filter is required when the source is a directory", ErrInvalidArguments)
	}
	if req.OutputPath != "" {
		return nil, fmt.Errorf("%w: output filepath cannot be used when the source is a directory", ErrInvalidArguments)
	}

	ext := strings.ToLower(req.Extension)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	entries, err := os.ReadDir(req.Source)
	if err != nil {
		return nil, fmt.Errorf("read source directory %q: %w", req.Source, err)
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) == ext {
			sources = append(sources, filepath.Join(req.Source, entry.Name()))
		}
	}

	log.Info().
		Str("directory", req.Source).
		Str("extension", ext).
		Int("matched", len(sources)).
		Msg("Enumerated source directory")

	return sources, nil
}

// buildJob resolves and claims every path the job will write, so sibling
// jobs in the same run cannot collide.
func buildJob(req Request, source string, namer *Namer, engine convert.Engine) (*convert.Job, error) {
	dir, err := targetDir(req, source)
	if err != nil {
		return nil, err
	}

	wanted := req.OutputPath
	if wanted == "" {
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		wanted = filepath.Join(dir, base+".json")
	}

	outputPath := namer.Claim(wanted, req.Force)
	root := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))

	job := &convert.Job{
		Source:     source,
		OutputPath: outputPath,
		Engine:     engine,
		Options: convert.Options{
			Force:            req.Force,
			KeepIntermediate: req.KeepIntermediate,
			SkipSchema:       req.SkipSchema,
			Strategy:         req.Strategy,
			Passthrough:      req.Passthrough,
			Plan:             req.Plan,
		},
	}
	// Only claim an intermediate when the job will actually convert; a
	// normalized source is read directly. Never overwritten, regardless of
	// force.
	if len(req.Passthrough) > 0 || !convert.IsNormalized(source) {
		job.IntermediatePath = namer.Claim(root+"_GeoJSONSeq.geojson", false)
	}
	if !req.SkipSchema {
		job.SchemaJSONPath = namer.Claim(root+"_SCHEMA.json", req.Force)
		job.SchemaTextPath = namer.Claim(root+"_SCHEMA.txt", req.Force)
	}

	return job, nil
}

// targetDir picks the output directory: the explicit output path's directory,
// the requested output directory, or the source's own directory, in that
// order. It is created with create-parents, otherwise it must already exist.
func targetDir(req Request, source string) (string, error) {
	var dir string
	switch {
	case req.OutputPath != "":
		dir = filepath.Dir(req.OutputPath)
	case req.OutputDir != "":
		dir = req.OutputDir
	default:
		dir = filepath.Dir(source)
	}

	if req.CreateParents {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output directory %q: %w", dir, err)
		}
		return dir, nil
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q, use create-parents to create missing directories", ErrMissingOutputDir, dir)
	}
	return dir, nil
}
