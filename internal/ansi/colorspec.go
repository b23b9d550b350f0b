package ansi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// FaceKind names one attribute a face spec can set. Faces merge by
// kind: a later --colors flag for the same class overrides only the
// kinds it mentions, leaving the others from earlier flags (or the
// built-in default) in place.
type FaceKind int

const (
	FaceNone FaceKind = iota
	FaceBold
	FaceItalic
	FaceUnderline
	FaceForeground
	FaceBackground
)

// ColorValue is a resolved color: either a name from the fixed ANSI
// table or a 24-bit RGB triple.
type ColorValue struct {
	Named string
	R, G, B uint8
	IsRGB   bool
}

// Face is one parsed face clause, e.g. "bold" or "foreground:red".
type Face struct {
	Kind  FaceKind
	Color ColorValue
}

var namedForeground = map[string]color.Attribute{
	"black":          color.FgBlack,
	"red":            color.FgRed,
	"green":          color.FgGreen,
	"yellow":         color.FgYellow,
	"blue":           color.FgBlue,
	"magenta":        color.FgMagenta,
	"cyan":           color.FgCyan,
	"white":          color.FgWhite,
	"bright-black":   color.FgHiBlack,
	"bright-red":     color.FgHiRed,
	"bright-green":   color.FgHiGreen,
	"bright-yellow":  color.FgHiYellow,
	"bright-blue":    color.FgHiBlue,
	"bright-magenta": color.FgHiMagenta,
	"bright-cyan":    color.FgHiCyan,
	"bright-white":   color.FgHiWhite,
}

var namedBackground = map[string]color.Attribute{
	"black":          color.BgBlack,
	"red":            color.BgRed,
	"green":          color.BgGreen,
	"yellow":         color.BgYellow,
	"blue":           color.BgBlue,
	"magenta":        color.BgMagenta,
	"cyan":           color.BgCyan,
	"white":          color.BgWhite,
	"bright-black":   color.BgHiBlack,
	"bright-red":     color.BgHiRed,
	"bright-green":   color.BgHiGreen,
	"bright-yellow":  color.BgHiYellow,
	"bright-blue":    color.BgHiBlue,
	"bright-magenta": color.BgHiMagenta,
	"bright-cyan":    color.BgHiCyan,
	"bright-white":   color.BgHiWhite,
}

// ParseSpec parses one "--colors" SPEC string of the form
// "class:face(:face)*" into the class it names and its faces.
func ParseSpec(spec string) (Class, []Face, error) {
	tokens := strings.Split(spec, ":")
	if len(tokens) < 2 {
		return "", nil, fmt.Errorf("colors spec %q: missing class or face", spec)
	}

	class := Class(tokens[0])
	switch class {
	case ClassAdded, ClassRefineAdded, ClassRemoved, ClassRefineRemoved:
	default:
		return "", nil, fmt.Errorf("colors spec %q: unknown class %q", spec, tokens[0])
	}

	var faces []Face
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "none":
			faces = append(faces, Face{Kind: FaceNone})
		case "bold":
			faces = append(faces, Face{Kind: FaceBold})
		case "italic":
			faces = append(faces, Face{Kind: FaceItalic})
		case "underline":
			faces = append(faces, Face{Kind: FaceUnderline})
		case "foreground", "background":
			if i+1 >= len(tokens) {
				return "", nil, fmt.Errorf("colors spec %q: %q needs a color", spec, tok)
			}
			cv, err := parseColor(tokens[i+1])
			if err != nil {
				return "", nil, fmt.Errorf("colors spec %q: %w", spec, err)
			}
			kind := FaceForeground
			if tok == "background" {
				kind = FaceBackground
			}
			faces = append(faces, Face{Kind: kind, Color: cv})
			i++
		default:
			return "", nil, fmt.Errorf("colors spec %q: unknown face %q", spec, tok)
		}
	}
	return class, faces, nil
}

func parseColor(s string) (ColorValue, error) {
	if _, ok := namedForeground[s]; ok {
		return ColorValue{Named: s}, nil
	}

	var parts []string
	if strings.HasPrefix(s, "0x") || strings.Contains(s, "0x") {
		for _, p := range strings.Split(s, ",") {
			p = strings.TrimSpace(p)
			n, err := strconv.ParseUint(strings.TrimPrefix(p, "0x"), 16, 8)
			if err != nil {
				return ColorValue{}, fmt.Errorf("invalid color %q: %w", s, err)
			}
			parts = append(parts, strconv.Itoa(int(n)))
		}
	} else {
		parts = strings.Split(s, ",")
	}

	if len(parts) != 3 {
		return ColorValue{}, fmt.Errorf("invalid color %q: want a name, \"r,g,b\", or \"0xRR,0xGG,0xBB\"", s)
	}
	rgb := make([]uint8, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return ColorValue{}, fmt.Errorf("invalid color %q: component %q out of range", s, p)
		}
		rgb[i] = uint8(n)
	}
	return ColorValue{R: rgb[0], G: rgb[1], B: rgb[2], IsRGB: true}, nil
}

// faceSet holds the merged faces for one class, keyed by FaceKind so a
// later spec for the same class overrides only the kinds it mentions.
type faceSet map[FaceKind]Face

func defaultFaceSets() map[Class]faceSet {
	red := ColorValue{Named: "red"}
	green := ColorValue{Named: "green"}
	return map[Class]faceSet{
		ClassRemoved:       {FaceForeground: {Kind: FaceForeground, Color: red}},
		ClassRefineRemoved: {FaceForeground: {Kind: FaceForeground, Color: red}, FaceBold: {Kind: FaceBold}},
		ClassAdded:         {FaceForeground: {Kind: FaceForeground, Color: green}},
		ClassRefineAdded:   {FaceForeground: {Kind: FaceForeground, Color: green}, FaceBold: {Kind: FaceBold}},
	}
}

// Builder accumulates --colors specs, starting from the built-in
// defaults, and produces the resolved Config they describe.
type Builder struct {
	sets map[Class]faceSet
}

// NewBuilder returns a Builder seeded with the default palette.
func NewBuilder() *Builder {
	return &Builder{sets: defaultFaceSets()}
}

// Apply parses and merges one --colors spec into the builder.
func (b *Builder) Apply(spec string) error {
	class, faces, err := ParseSpec(spec)
	if err != nil {
		return err
	}
	if _, ok := b.sets[class]; !ok {
		b.sets[class] = faceSet{}
	}
	for _, f := range faces {
		if f.Kind == FaceNone {
			b.sets[class] = faceSet{}
			continue
		}
		b.sets[class][f.Kind] = f
	}
	return nil
}

// Build resolves every class's merged faces into a *color.Color.
func (b *Builder) Build() Config {
	cfg := Config{Faces: make(map[Class]*color.Color, len(b.sets))}
	for class, set := range b.sets {
		cfg.Faces[class] = buildColor(class, set)
	}
	return cfg
}

func buildColor(class Class, set faceSet) *color.Color {
	c := color.New()
	for _, f := range set {
		switch f.Kind {
		case FaceBold:
			c = c.Add(color.Bold)
		case FaceItalic:
			c = c.Add(color.Italic)
		case FaceUnderline:
			c = c.Add(color.Underline)
		case FaceForeground:
			if f.Color.IsRGB {
				c = c.AddRGB(int(f.Color.R), int(f.Color.G), int(f.Color.B))
			} else if attr, ok := namedForeground[f.Color.Named]; ok {
				c = c.Add(attr)
			}
		case FaceBackground:
			if f.Color.IsRGB {
				c = c.AddBgRGB(int(f.Color.R), int(f.Color.G), int(f.Color.B))
			} else if attr, ok := namedBackground[f.Color.Named]; ok {
				c = c.Add(attr)
			}
		}
	}
	return c
}
