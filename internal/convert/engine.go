// Package convert turns one source file into newline-delimited JSON plus a
// schema, going through a normalized WGS84 GeoJSONSeq intermediate produced
// by an external conversion engine.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode"
)

// Options owned by the adapter: the caller may not override the output
// format or the target reference system.
var reservedOptions = []string{"-f", "-of", "-t_srs"}

var (
	// ErrReservedOption reports a pass-through option the adapter owns.
	ErrReservedOption = errors.New("reserved conversion option")
	// ErrEngine wraps failures surfaced by the underlying conversion engine.
	ErrEngine = errors.New("conversion engine error")
)

// Engine converts an arbitrary source file into a WGS84 GeoJSONSeq file with
// one feature per line.
type Engine interface {
	Normalize(ctx context.Context, sourcePath, destPath string, passthrough []string) error
}

// SplitOptions tokenizes a raw pass-through option string the way a shell
// would: whitespace separates tokens, single or double quotes group them, so
// -sql "SELECT attr1 AS foo FROM src" stays one statement.
func SplitOptions(raw string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	var quote rune
	inToken := false

	for _, r := range raw {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote in conversion options: %s", quote, raw)
	}
	if inToken {
		tokens = append(tokens, cur.String())
	}

	return tokens, nil
}

// ValidatePassthrough rejects pass-through options that collide with the
// options the adapter itself sets.
func ValidatePassthrough(opts []string) error {
	for _, opt := range opts {
		for _, reserved := range reservedOptions {
			if opt == reserved {
				return fmt.Errorf("%w: %q cannot be used in pass-through conversion options", ErrReservedOption, reserved)
			}
		}
	}
	return nil
}

// OGREngine shells out to the ogr2ogr binary.
type OGREngine struct {
	Binary string
}

// NewOGREngine returns an engine using the given ogr2ogr binary, or the one
// found on PATH when empty.
func NewOGREngine(binary string) *OGREngine {
	if binary == "" {
		binary = "ogr2ogr"
	}
	return &OGREngine{Binary: binary}
}

// Normalize runs ogr2ogr with the fixed output format and reference system,
// appending the caller's pass-through options.
func (e *OGREngine) Normalize(ctx context.Context, sourcePath, destPath string, passthrough []string) error {
	args := []string{"-f", "GeoJSONSeq", "-t_srs", "crs:84", destPath, sourcePath}
	args = append(args, passthrough...)

	cmd := exec.CommandContext(ctx, e.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s: %v: %s", ErrEngine, e.Binary, err, msg)
		}
		return fmt.Errorf("%w: %s: %v", ErrEngine, e.Binary, err)
	}
	return nil
}
