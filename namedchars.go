package pickle

// namedChars backs the \N{NAME} escape (spec.md §4.5). No Unicode
// character-name database ships in the standard library or anywhere in
// this module's dependency set, so this is a small, hand-maintained table
// covering NULL, a few Latin and Greek letter names and a handful of
// common typographic characters. An unrecognized
// name is a decode error (Unescape), not a silent substitution.
var namedChars = map[string]rune{
	"NULL":                       0x0000,
	"LATIN SMALL LETTER A":       'a',
	"LATIN CAPITAL LETTER A":     'A',
	"DEGREE SIGN":                0x00B0,
	"SECTION SIGN":               0x00A7,
	"COPYRIGHT SIGN":             0x00A9,
	"REGISTERED SIGN":            0x00AE,
	"EM DASH":                    0x2014,
	"EN DASH":                    0x2013,
	"HORIZONTAL ELLIPSIS":        0x2026,
	"LEFT DOUBLE QUOTATION MARK": 0x201C,
	"RIGHT DOUBLE QUOTATION MARK": 0x201D,
	"LEFT SINGLE QUOTATION MARK": 0x2018,
	"RIGHT SINGLE QUOTATION MARK": 0x2019,
	"BULLET":                     0x2022,
	"SNOWMAN":                    0x2603,
	"GREEK SMALL LETTER ALPHA":   0x03B1,
	"GREEK SMALL LETTER BETA":    0x03B2,
	"GREEK CAPITAL LETTER OMEGA": 0x03A9,
	"INFINITY":                   0x221E,
	"CHECK MARK":                 0x2713,
	"MULTIPLICATION SIGN":        0x00D7,
	"DIVISION SIGN":              0x00F7,
	"NO-BREAK SPACE":             0x00A0,
	"LATIN SMALL LETTER SHARP S": 0x00DF,
}
