package contentstream

import (
	"github.com/pkg/errors"

	"github.com/tsawler/pdfexec/core"
	"github.com/tsawler/pdfexec/graphicsstate"
	"github.com/tsawler/pdfexec/resources"
)

// deviceSpaces maps device space names and their inline abbreviations to
// the initial color of the space.
var deviceSpaces = map[string]graphicsstate.Color{
	"DeviceGray": {Space: "DeviceGray", N: 1, Components: []float64{0}},
	"DeviceRGB":  {Space: "DeviceRGB", N: 3, Components: []float64{0, 0, 0}},
	"DeviceCMYK": {Space: "DeviceCMYK", N: 4, Components: []float64{0, 0, 0, 1}},
}

var spaceAliases = map[string]string{
	"G":    "DeviceGray",
	"RGB":  "DeviceRGB",
	"CMYK": "DeviceCMYK",
}

func (f *frame) color(stroke bool) *graphicsstate.Color {
	if stroke {
		return &f.gs().Stroke
	}
	return &f.gs().Fill
}

func opColorSpace(stroke bool) func(*frame, []core.Object) error {
	return func(f *frame, args []core.Object) error {
		n, err := name(args[0])
		if err != nil {
			return err
		}
		c, ok := f.colorSpace(n)
		if !ok {
			f.warnf(core.WarnMissingObject, "color space /%s not found", n)
			return nil
		}
		*f.color(stroke) = c
		return nil
	}
}

// colorSpace returns the initial color of the space named n, looking
// it up in the ColorSpace resources when it is not a device space.
func (f *frame) colorSpace(n string) (graphicsstate.Color, bool) {
	if alias, ok := spaceAliases[n]; ok {
		n = alias
	}
	if c, ok := deviceSpaces[n]; ok {
		return c.Clone(), true
	}
	if n == "Pattern" {
		return graphicsstate.Color{Space: "Pattern"}, true
	}
	obj, ok := f.locator.Resolve(f.scope, resources.CategoryColorSpace, n)
	if !ok {
		return graphicsstate.Color{}, false
	}
	return f.spaceOf(obj, 0)
}

// spaceOf describes a color space object: a name or an array whose
// first element names the family.
func (f *frame) spaceOf(obj core.Object, depth int) (graphicsstate.Color, bool) {
	if depth > 2 {
		return graphicsstate.Color{}, false
	}
	obj = f.acc.Resolve(obj)
	if n, ok := obj.(core.Name); ok {
		if alias, ok := spaceAliases[string(n)]; ok {
			n = core.Name(alias)
		}
		if c, ok := deviceSpaces[string(n)]; ok {
			return c.Clone(), true
		}
		if n == "Pattern" {
			return graphicsstate.Color{Space: "Pattern"}, true
		}
		return graphicsstate.Color{}, false
	}
	arr, ok := obj.(core.Array)
	if !ok || len(arr) == 0 {
		return graphicsstate.Color{}, false
	}
	family, ok := f.acc.Resolve(arr[0]).(core.Name)
	if !ok {
		return graphicsstate.Color{}, false
	}
	c := graphicsstate.Color{Space: string(family)}
	switch family {
	case "CalGray", "Indexed", "I":
		c.Space = canonicalFamily(family)
		c.N = 1
		c.Components = []float64{0}
	case "CalRGB", "Lab":
		c.N = 3
		c.Components = []float64{0, 0, 0}
	case "ICCBased":
		n := 0
		if len(arr) > 1 {
			if s, ok := f.acc.Resolve(arr[1]).(*core.Stream); ok {
				n, _ = f.acc.GetInt(s.Dict, "N")
			}
		}
		if n != 1 && n != 3 && n != 4 {
			return graphicsstate.Color{}, false
		}
		c.N = n
		c.Components = make([]float64, n)
		if n == 4 {
			c.Components[3] = 1
		}
	case "Separation":
		c.N = 1
		c.Components = []float64{1}
	case "DeviceN":
		var names core.Array
		if len(arr) > 1 {
			names, _ = f.acc.Resolve(arr[1]).(core.Array)
		}
		if len(names) == 0 {
			return graphicsstate.Color{}, false
		}
		c.N = len(names)
		c.Components = make([]float64, c.N)
		for i := range c.Components {
			c.Components[i] = 1
		}
	case "Pattern":
		// an uncolored pattern names its underlying space
		if len(arr) > 1 {
			if base, ok := f.spaceOf(arr[1], depth+1); ok {
				c.N = base.N
			}
		}
	default:
		return f.spaceOf(family, depth+1)
	}
	return c, true
}

func canonicalFamily(n core.Name) string {
	if n == "I" {
		return "Indexed"
	}
	return string(n)
}

// opSetColor builds SC, SCN, sc and scn. The operand count must match
// the current color space; a Pattern space takes a trailing name.
func opSetColor(stroke, allowPattern bool) func(*frame, []core.Object) error {
	return func(f *frame, args []core.Object) error {
		c := f.color(stroke)
		pattern := ""
		if allowPattern && len(args) > 0 {
			if n, ok := args[len(args)-1].(core.Name); ok {
				if c.Space != "Pattern" {
					return errors.Wrapf(errOperands, "pattern /%s in %s space", n, c.Space)
				}
				pattern = string(n)
				args = args[:len(args)-1]
			}
		}
		if c.Space == "Pattern" && pattern == "" {
			return errors.Wrap(errOperands, "Pattern space needs a pattern name")
		}
		if len(args) != c.N {
			return errors.Wrapf(errOperands, "%s takes %d components, have %d", c.Space, c.N, len(args))
		}
		vals, err := numbers(args)
		if err != nil {
			return err
		}
		c.Components = vals
		c.Pattern = pattern
		return nil
	}
}

func opDeviceColor(stroke bool, space string) func(*frame, []core.Object) error {
	return func(f *frame, args []core.Object) error {
		vals, err := numbers(args)
		if err != nil {
			return err
		}
		*f.color(stroke) = graphicsstate.Color{Space: space, N: len(vals), Components: vals}
		return nil
	}
}
