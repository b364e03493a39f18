// Package fonts resolves font families to parsed faces for glyph rasterization.
//
// A [Cache] memoizes one face per family and weight. Loads run at most once per
// key: concurrent requests share the in-flight load and later requests get the
// resolved face. When a family cannot be loaded the cache logs a warning once and
// stores the built-in Go face for that key, so callers never see a font error.
//
// The Go font family is built in. Other families are read from a directory of
// TTF/OTF files through a [Loader].
package fonts

import (
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Built-in family names.
const (
	FamilyGo     = "Go"
	FamilyGoMono = "Go Mono"
)

// CommonFamilies are preloaded by servers that expect typical web font requests.
var CommonFamilies = []string{
	"Poppins",
	"Roboto",
	"Open Sans",
	"Lato",
	"Montserrat",
	"Source Sans Pro",
	"Oswald",
	"Playfair Display",
	"Merriweather",
	"PT Sans",
}

// Face is a parsed font for one family and weight.
type Face struct {
	Family string
	Weight string
	Font   *sfnt.Font

	// Fallback is set when the requested family could not be loaded and Font is
	// a built-in substitute.
	Fallback bool

	buf sfnt.Buffer
	mu  sync.Mutex
}

// Has reports whether the face maps r to a real glyph.
func (f *Face) Has(r rune) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, err := f.Font.GlyphIndex(&f.buf, r)
	return err == nil && idx != 0
}

// NewFace returns a drawable face at px pixels per em.
func (f *Face) NewFace(px float64) (font.Face, error) {
	return opentype.NewFace(f.Font, &opentype.FaceOptions{
		Size:    px,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// IsBold reports whether a CSS-style weight selects a bold face.
func IsBold(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}

// Key returns the cache key for family and weight.
func Key(family, weight string) string {
	family = NormalizeFamily(family)
	if IsBold(weight) {
		return family + "|bold"
	}
	return family + "|normal"
}

// NormalizeFamily trims quotes and whitespace and maps empty to the Go family.
func NormalizeFamily(family string) string {
	family = strings.Trim(strings.TrimSpace(family), `'"`)
	if family == "" {
		return FamilyGo
	}
	return family
}

var (
	builtinOnce sync.Once
	builtin     map[string]*sfnt.Font
	builtinErr  error
)

func builtinFonts() (map[string]*sfnt.Font, error) {
	builtinOnce.Do(func() {
		src := map[string][]byte{
			Key(FamilyGo, "normal"):     goregular.TTF,
			Key(FamilyGo, "bold"):       gobold.TTF,
			Key(FamilyGoMono, "normal"): gomono.TTF,
			Key(FamilyGoMono, "bold"):   gomonobold.TTF,
		}
		builtin = make(map[string]*sfnt.Font, len(src))
		for k, data := range src {
			f, err := opentype.Parse(data)
			if err != nil {
				builtinErr = err
				return
			}
			builtin[k] = f
		}
	})
	return builtin, builtinErr
}

// Builtin returns the built-in face for family and weight, or nil when family is
// not built in.
func Builtin(family, weight string) *Face {
	fonts, err := builtinFonts()
	if err != nil {
		return nil
	}
	f, ok := fonts[Key(family, weight)]
	if !ok {
		return nil
	}
	w := "normal"
	if IsBold(weight) {
		w = "bold"
	}
	return &Face{Family: NormalizeFamily(family), Weight: w, Font: f}
}

// Default returns the built-in Go face used as the fallback for weight.
func Default(weight string) *Face {
	return Builtin(FamilyGo, weight)
}
