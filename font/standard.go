package font

import "strings"

// Advance widths of the standard 14 fonts for codes 32 through 126, in
// thousandths of text space.
var (
	helveticaWidths = [95]float64{
		278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
		1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
		333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
		556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
	}
	helveticaBoldWidths = [95]float64{
		278, 333, 474, 556, 556, 889, 722, 238, 333, 333, 389, 584, 278, 333, 278, 278,
		556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 333, 333, 584, 584, 584, 611,
		975, 722, 722, 722, 722, 667, 611, 778, 722, 278, 556, 722, 611, 833, 722, 778,
		667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 333, 278, 333, 584, 556,
		333, 556, 611, 556, 611, 556, 333, 611, 611, 278, 278, 556, 278, 889, 611, 611,
		611, 611, 389, 556, 333, 611, 556, 778, 556, 556, 500, 389, 280, 389, 584,
	}
	timesWidths = [95]float64{
		250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
		921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
		556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
		333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
		500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
	}
	timesBoldWidths = [95]float64{
		250, 333, 555, 500, 500, 1000, 833, 278, 333, 333, 500, 570, 250, 333, 250, 278,
		500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 333, 333, 570, 570, 570, 500,
		930, 722, 667, 722, 722, 667, 611, 778, 778, 389, 500, 778, 667, 944, 722, 778,
		611, 778, 722, 556, 667, 722, 722, 1000, 722, 722, 667, 333, 278, 333, 581, 500,
		333, 500, 556, 444, 556, 444, 333, 500, 556, 278, 333, 556, 278, 833, 556, 500,
		556, 556, 444, 389, 333, 556, 500, 722, 500, 500, 444, 394, 220, 394, 520,
	}
)

// standardMetrics describes one of the standard 14 fonts.
type standardMetrics struct {
	widths *[95]float64
	// fixed is used for every code when widths is nil
	fixed float64
}

func (m standardMetrics) width(code int) (float64, bool) {
	if m.widths == nil {
		return m.fixed, true
	}
	if code < 32 || code > 126 {
		return 0, false
	}
	return m.widths[code-32], true
}

var standardFonts = map[string]standardMetrics{
	"Helvetica":             {widths: &helveticaWidths},
	"Helvetica-Oblique":     {widths: &helveticaWidths},
	"Helvetica-Bold":        {widths: &helveticaBoldWidths},
	"Helvetica-BoldOblique": {widths: &helveticaBoldWidths},
	"Times-Roman":           {widths: &timesWidths},
	"Times-Italic":          {widths: &timesWidths},
	"Times-Bold":            {widths: &timesBoldWidths},
	"Times-BoldItalic":      {widths: &timesBoldWidths},
	"Courier":               {fixed: 600},
	"Courier-Oblique":       {fixed: 600},
	"Courier-Bold":          {fixed: 600},
	"Courier-BoldOblique":   {fixed: 600},
	"Symbol":                {fixed: 500},
	"ZapfDingbats":          {fixed: 500},
}

// aliases used by some writers for the standard fonts
var standardAliases = map[string]string{
	"Arial":                  "Helvetica",
	"Arial,Bold":             "Helvetica-Bold",
	"Arial,Italic":           "Helvetica-Oblique",
	"Arial,BoldItalic":       "Helvetica-BoldOblique",
	"ArialMT":                "Helvetica",
	"Arial-BoldMT":           "Helvetica-Bold",
	"TimesNewRoman":          "Times-Roman",
	"TimesNewRoman,Bold":     "Times-Bold",
	"TimesNewRomanPSMT":      "Times-Roman",
	"TimesNewRomanPS-BoldMT": "Times-Bold",
	"CourierNew":             "Courier",
	"CourierNewPSMT":         "Courier",
}

// lookupStandard finds the metrics for a base font name. Subset prefixes
// such as "ABCDEF+" are ignored.
func lookupStandard(baseFont string) (standardMetrics, bool) {
	if i := strings.IndexByte(baseFont, '+'); i == 6 {
		baseFont = baseFont[i+1:]
	}
	if m, ok := standardFonts[baseFont]; ok {
		return m, true
	}
	if alias, ok := standardAliases[baseFont]; ok {
		return standardFonts[alias], true
	}
	return standardMetrics{}, false
}

// IsStandardFont reports whether baseFont names one of the standard 14
// fonts or a common alias of one.
func IsStandardFont(baseFont string) bool {
	_, ok := lookupStandard(baseFont)
	return ok
}
