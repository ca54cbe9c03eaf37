package translator

import (
	"unicode"

	"golang.org/x/text/language"
)

// targetScriptThreshold is the share of target-script runes above which a
// text is considered already written in the target language.
const targetScriptThreshold = 0.3

var han = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3400, Hi: 0x4dbf, Stride: 1},
		{Lo: 0x4e00, Hi: 0x9fff, Stride: 1},
	},
}

var scriptTables = map[string][]*unicode.RangeTable{
	"Hans": {han},
	"Hant": {han},
	"Hani": {han},
	"Jpan": {han, unicode.Hiragana, unicode.Katakana},
	"Kore": {unicode.Hangul, han},
	"Hang": {unicode.Hangul},
	"Cyrl": {unicode.Cyrillic},
	"Grek": {unicode.Greek},
	"Arab": {unicode.Arabic},
	"Hebr": {unicode.Hebrew},
	"Thai": {unicode.Thai},
	"Latn": {unicode.Latin},
}

// ScriptTables returns the rune tables of the script the tag is written in,
// falling back to Han.
func ScriptTables(tag language.Tag) []*unicode.RangeTable {
	script, _ := tag.Script()
	if tables, ok := scriptTables[script.String()]; ok {
		return tables
	}
	return []*unicode.RangeTable{han}
}

// IsTargetScript reports whether more than 30% of the non-whitespace runes of
// text belong to the tables. Empty text counts as already translated.
func IsTargetScript(text string, tables []*unicode.RangeTable) bool {
	total, matched := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.In(r, tables...) {
			matched++
		}
	}

	if total == 0 {
		return true
	}
	return float64(matched)/float64(total) > targetScriptThreshold
}
