// Command ogr2bq converts files with simple features data (shp, geojson,
// etc.) to newline-delimited JSON files that can be imported into BigQuery,
// along with schema files describing the output columns.
package main

import (
	"context"
	"os"

	"github.com/ogrtools/ogr2bq/internal/batch"
	"github.com/ogrtools/ogr2bq/internal/columns"
	"github.com/ogrtools/ogr2bq/internal/config"
	"github.com/ogrtools/ogr2bq/internal/convert"
	"github.com/ogrtools/ogr2bq/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile      string `long:"config"                env:"CONFIG_FILE"      description:"Path to configuration file with defaults (default: ogr2bq.yaml)"`
	ForceOverwrite  bool   `short:"f" long:"force-overwrite"  description:"Overwrite output files if they already exist, otherwise \"_01\", \"_02\", ... is appended to the name"`
	KeepGeoJSONSeq  bool   `short:"k" long:"keep-geojsonseq"  description:"Do not delete the intermediate GeoJSONSeq files created during conversion"`
	Columns         string `short:"c" long:"columns"          description:"JSON string to limit or rename the geographic columns: array literal to restrict, object literal to restrict and rename"`
	OutputDirectory string `short:"d" long:"output-directory" description:"Directory to save converted files to, defaults to the source directory"`
	Extension       string `short:"e" long:"extension"        description:"Extension of the files to convert when the source is a directory"`
	OutputFilepath  string `short:"o" long:"output-filepath"  description:"Full filepath for the converted file, single-file sources only"`
	CreateParents   bool   `short:"p" long:"create-parents"   description:"Create missing output directories and their parents"`
	SkipSchemas     bool   `short:"s" long:"skip-schemas"     description:"Skip generating schema files"`
	ConvertOptions  string `short:"v" long:"convert-options"  description:"Options passed through to ogr2ogr, -f/-of/-t_srs are reserved"`
	Buffer          bool   `long:"buffer"                     description:"Buffer features in memory between the inference and transcoding passes instead of re-reading the intermediate file"`
	OGR2OGR         string `long:"ogr2ogr"               env:"OGR2OGR_BIN"      description:"Path to the ogr2ogr binary" default:"ogr2ogr"`

	Args struct {
		Source string `positional-arg-name:"source" description:"Path to the source file or directory to convert"`
	} `positional-args:"true" required:"true"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	applyConfig(&opts)

	columnSpec := opts.Columns
	if columnSpec == "" {
		columnSpec = columns.DefaultSpec
	}
	plan, err := columns.Resolve(columnSpec)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid column specification")
	}

	strategy := convert.StrategyFile
	if opts.Buffer {
		strategy = convert.StrategyMemory
	}

	passthrough, err := convert.SplitOptions(opts.ConvertOptions)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid conversion options")
	}

	req := batch.Request{
		Source:           opts.Args.Source,
		Extension:        opts.Extension,
		OutputPath:       opts.OutputFilepath,
		OutputDir:        opts.OutputDirectory,
		CreateParents:    opts.CreateParents,
		Force:            opts.ForceOverwrite,
		KeepIntermediate: opts.KeepGeoJSONSeq,
		SkipSchema:       opts.SkipSchemas,
		Strategy:         strategy,
		Passthrough:      passthrough,
		Plan:             plan,
	}

	engine := convert.NewOGREngine(opts.OGR2OGR)

	summary, err := batch.Run(context.Background(), req, engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Conversion aborted")
	}

	for _, res := range summary.Succeeded {
		log.Info().Str("output", res.OutputPath).Msg("Schema")
		res.Schema.RenderTable(os.Stderr)
	}

	log.Info().
		Int("succeeded", len(summary.Succeeded)).
		Int("failed", summary.Failed).
		Msg("Run finished")

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

const defaultConfigFile = "ogr2bq.yaml"

// applyConfig fills unset CLI options from the configuration file. A missing
// file at the default location is fine, an explicitly requested one is not.
func applyConfig(opts *Options) {
	path := opts.ConfigFile
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg, err := config.Resolve(path, explicit)
	if err != nil {
		log.Fatal().Err(err).Str("config", path).Msg("Failed to load configuration")
	}

	if opts.Columns == "" {
		opts.Columns = cfg.Columns
	}
	if opts.ConvertOptions == "" {
		opts.ConvertOptions = cfg.ConvertOptions
	}
	if opts.OutputDirectory == "" {
		opts.OutputDirectory = cfg.OutputDirectory
	}
	if cfg.Strategy == "memory" {
		opts.Buffer = true
	}
	if opts.OGR2OGR == "ogr2ogr" && cfg.OGR2OGR != "" {
		opts.OGR2OGR = cfg.OGR2OGR
	}
}
