package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"

	"github.com/matzehuels/overlay3d/pkg/glyph"
	"github.com/matzehuels/overlay3d/pkg/occlusion"
)

// sceneFile is the on-disk form of a scene: text style plus optional
// occlusion. Both TOML and JSON are accepted.
type sceneFile struct {
	glyph.Params
	Occlusion *occlusion.Params `json:"occlusion,omitempty" toml:"occlusion"`
}

// sceneFlags holds the text and occlusion flags shared by preview, overlay
// and compose.
type sceneFlags struct {
	file string

	text, color, family, weight, mode string
	size, spacing, radius, rotation     float64
	tiltX, tiltY, xOffset, yOffset      float64
	reverse, faceOutward, frontHalf     bool

	occlude                     bool
	occRadius, occHeight, occY float64
}

func (f *sceneFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "params", "p", "", "scene file (.toml or .json)")
	fs.StringVarP(&f.text, "text", "t", "", "text to lay out")
	fs.StringVar(&f.color, "color", "", "text color (#rrggbb)")
	fs.StringVar(&f.family, "font-family", "", "font family")
	fs.StringVar(&f.weight, "font-weight", "", "font weight (normal, bold, 100-900)")
	fs.StringVar(&f.mode, "mode", "", "layout mode (circular, linear)")
	fs.Float64Var(&f.size, "font-size", 0, "font size")
	fs.Float64Var(&f.spacing, "letter-spacing", 0, "letter spacing")
	fs.Float64Var(&f.radius, "radius", 0, "ring radius")
	fs.Float64Var(&f.rotation, "rotation", 0, "ring rotation in radians (overrides --tilt-y)")
	fs.Float64Var(&f.tiltX, "tilt-x", 0, "tilt around X in degrees")
	fs.Float64Var(&f.tiltY, "tilt-y", 0, "tilt around Y in degrees")
	fs.Float64Var(&f.xOffset, "x-offset", 0, "horizontal offset")
	fs.Float64Var(&f.yOffset, "y-offset", 0, "vertical offset")
	fs.BoolVar(&f.reverse, "reverse", false, "reverse the text")
	fs.BoolVar(&f.faceOutward, "face-outward", false, "turn glyphs away from the ring center")
	fs.BoolVar(&f.frontHalf, "front-half", false, "only show glyphs on the front half of the ring")
	fs.BoolVar(&f.occlude, "occlude", false, "hide text behind an invisible cylinder")
	fs.Float64Var(&f.occRadius, "occlusion-radius", 0, "occlusion cylinder radius")
	fs.Float64Var(&f.occHeight, "occlusion-height", 0, "occlusion cylinder height")
	fs.Float64Var(&f.occY, "occlusion-y", 0, "occlusion cylinder vertical position")
}

// resolve reads the scene file, if any, and applies changed flags on top.
func (f *sceneFlags) resolve(fs *pflag.FlagSet) (glyph.Params, *occlusion.Params, error) {
	var sf sceneFile
	if f.file != "" {
		var err error
		if sf, err = readSceneFile(f.file); err != nil {
			return glyph.Params{}, nil, err
		}
	}
	p := &sf.Params

	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("text", func() { p.Text = f.text })
	set("color", func() { p.Color = f.color })
	set("font-family", func() { p.FontFamily = f.family })
	set("font-weight", func() { p.FontWeight = f.weight })
	set("mode", func() { p.Mode = glyph.Mode(f.mode) })
	set("font-size", func() { p.FontSize = f.size })
	set("letter-spacing", func() { p.LetterSpacing = f.spacing })
	set("radius", func() { p.RadiusValue = glyph.Float(f.radius) })
	set("rotation", func() { p.RotationY = glyph.Float(f.rotation) })
	set("tilt-x", func() { p.TiltX = f.tiltX })
	set("tilt-y", func() { p.TiltY = f.tiltY })
	set("x-offset", func() { p.XOffset = f.xOffset })
	set("y-offset", func() { p.YOffset = f.yOffset })
	set("reverse", func() { p.ReverseText = f.reverse })
	set("face-outward", func() { p.FaceOutward = f.faceOutward })
	set("front-half", func() { p.FrontHalfOnly = f.frontHalf })

	if p.Mode != "" && p.Mode != glyph.ModeCircular && p.Mode != glyph.ModeLinear {
		return glyph.Params{}, nil, fmt.Errorf("unknown layout mode %q (want circular or linear)", p.Mode)
	}

	occ := sf.Occlusion
	if f.occlude || fs.Changed("occlusion-radius") || fs.Changed("occlusion-height") || fs.Changed("occlusion-y") {
		if occ == nil {
			occ = &occlusion.Params{}
		}
		set("occlusion-radius", func() { occ.Radius = f.occRadius })
		set("occlusion-height", func() { occ.Height = f.occHeight })
		set("occlusion-y", func() { occ.Y = f.occY })
	}
	return sf.Params, occ, nil
}

// readSceneFile decodes a scene by extension; anything but .json is TOML.
func readSceneFile(path string) (sceneFile, error) {
	var sf sceneFile
	data, err := os.ReadFile(path)
	if err != nil {
		return sf, fmt.Errorf("read scene file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &sf)
	} else {
		err = toml.Unmarshal(data, &sf)
	}
	if err != nil {
		return sf, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return sf, nil
}
