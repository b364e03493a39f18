package fonts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// ErrNotFound is returned by loaders when no file exists for a family.
var ErrNotFound = errors.New("font not found")

// Loader fetches and parses the font for family and weight.
type Loader func(ctx context.Context, family, weight string) (*sfnt.Font, error)

// DirLoader returns a Loader reading fonts from dir. For family "Open Sans" and
// bold weight it tries, in order, "Open Sans-Bold", "OpenSans-Bold", then the
// regular names, each with .ttf and .otf extensions.
func DirLoader(dir string) Loader {
	return func(ctx context.Context, family, weight string) (*sfnt.Font, error) {
		if dir == "" {
			return nil, fmt.Errorf("%w: %s (no font directory)", ErrNotFound, family)
		}
		for _, name := range candidates(family, weight) {
			for _, ext := range []string{".ttf", ".otf"} {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				data, err := os.ReadFile(filepath.Join(dir, name+ext))
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				if err != nil {
					return nil, err
				}
				f, err := opentype.Parse(data)
				if err != nil {
					return nil, fmt.Errorf("parse %s: %w", name+ext, err)
				}
				return f, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, family)
	}
}

func candidates(family, weight string) []string {
	family = NormalizeFamily(family)
	compact := strings.ReplaceAll(family, " ", "")
	names := []string{family, compact}
	if IsBold(weight) {
		names = append([]string{family + "-Bold", compact + "-Bold"}, names...)
	} else {
		names = append([]string{family + "-Regular", compact + "-Regular"}, names...)
	}

	// Drop duplicates for single-word families.
	out := names[:0]
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
