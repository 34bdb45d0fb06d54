package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ogrtools/ogr2bq/internal/columns"
	"github.com/ogrtools/ogr2bq/internal/geo"
	"github.com/ogrtools/ogr2bq/internal/schema"
)

// Options carries the per-job conversion settings.
type Options struct {
	Force            bool
	KeepIntermediate bool
	SkipSchema       bool
	Strategy         Strategy
	Passthrough      []string
	Plan             *columns.Plan
}

// Job converts one source file: normalize, infer the schema over one pass,
// transcode over a second, persist the schema files.
type Job struct {
	Source           string
	OutputPath       string
	IntermediatePath string
	SchemaJSONPath   string
	SchemaTextPath   string
	Options          Options
	Engine           Engine
}

// Run executes the job and returns the finalized schema.
func (j *Job) Run(ctx context.Context) (*schema.Schema, error) {
	if err := ValidatePassthrough(j.Options.Passthrough); err != nil {
		return nil, err
	}

	plan := j.Options.Plan
	if plan == nil {
		var err error
		if plan, err = columns.Resolve(columns.DefaultSpec); err != nil {
			return nil, err
		}
	}

	streamPath := j.Source
	if len(j.Options.Passthrough) > 0 || !IsNormalized(j.Source) {
		dest := j.IntermediatePath
		if dest == "" {
			dest = outputRoot(j.OutputPath) + "_GeoJSONSeq.geojson"
		}
		log.Info().
			Str("source", j.Source).
			Str("dest", dest).
			Msg("Converting source to GeoJSONSeq")
		if err := j.Engine.Normalize(ctx, j.Source, dest, j.Options.Passthrough); err != nil {
			removeIntermediate(dest)
			return nil, err
		}
		streamPath = dest
		if !j.Options.KeepIntermediate {
			// Deletion waits until the transcoding pass is done with the file.
			defer removeIntermediate(dest)
		}
	}

	inf := schema.NewInference()
	var buffered []*geo.Feature

	first, err := OpenFileSource(streamPath)
	if err != nil {
		return nil, err
	}
	if err := forEach(first, func(f *geo.Feature) {
		inf.Observe(f)
		if j.Options.Strategy == StrategyMemory {
			buffered = append(buffered, f)
		}
	}); err != nil {
		_ = first.Close()
		return nil, fmt.Errorf("inference pass over %s: %w", streamPath, err)
	}
	if err := first.Close(); err != nil {
		return nil, err
	}

	sch := inf.Finalize(plan)

	var second Source
	if j.Options.Strategy == StrategyMemory {
		second = NewBufferSource(buffered)
	} else {
		if second, err = OpenFileSource(streamPath); err != nil {
			return nil, err
		}
	}
	defer func() { _ = second.Close() }()

	out, err := os.Create(j.OutputPath)
	if err != nil {
		return nil, err
	}
	lines, err := Transcode(second, out, sch)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("transcode to %s: %w", j.OutputPath, err)
	}

	log.Info().
		Str("source", j.Source).
		Str("output", j.OutputPath).
		Int("features", lines).
		Msg("Converted source to newline-delimited JSON")

	if !j.Options.SkipSchema {
		if err := j.saveSchema(sch); err != nil {
			return nil, err
		}
	}

	return sch, nil
}

func (j *Job) saveSchema(sch *schema.Schema) error {
	jsonPath := j.SchemaJSONPath
	if jsonPath == "" {
		jsonPath = outputRoot(j.OutputPath) + "_SCHEMA.json"
	}
	textPath := j.SchemaTextPath
	if textPath == "" {
		textPath = outputRoot(j.OutputPath) + "_SCHEMA.txt"
	}

	if err := writeSchemaFile(jsonPath, sch.WriteJSON); err != nil {
		return err
	}
	if err := writeSchemaFile(textPath, sch.WriteText); err != nil {
		return err
	}

	log.Info().
		Str("json", jsonPath).
		Str("text", textPath).
		Msg("Saved schema files")

	if unknown := sch.UnknownColumns(); len(unknown) > 0 {
		log.Warn().
			Strs("columns", unknown).
			Msg("Schema has columns whose type could not be determined, edit the schema files and enter the proper datatypes before using them")
	}

	return nil
}

func writeSchemaFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func forEach(src Source, fn func(*geo.Feature)) error {
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(f)
	}
}

func removeIntermediate(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("Failed to delete intermediate GeoJSONSeq file")
	}
}

func outputRoot(path string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndexAny(path, `/\`) {
		return path[:i]
	}
	return path
}
