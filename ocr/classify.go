package ocr

import (
	"regexp"
	"strings"
)

// TextType categorizes a recognized string by its role on a drawing.
type TextType int

const (
	TextUnknown TextType = iota
	TextDimension
	TextRoomLabel
	TextScale
	TextElevation
	TextTitle
	TextReference
)

func (t TextType) String() string {
	switch t {
	case TextDimension:
		return "dimension"
	case TextRoomLabel:
		return "room_label"
	case TextScale:
		return "scale"
	case TextElevation:
		return "elevation"
	case TextTitle:
		return "title"
	case TextReference:
		return "reference"
	default:
		return "unknown"
	}
}

var (
	// Bare integers count as dimensions only at 3 to 5 digits; short
	// numbers are grid marks or counts, not measurements.
	dimensionRe = regexp.MustCompile(`^\s*\d[\d.,]*\s*(?:mm|cm|m)\s*$|^\s*\d{3,5}\s*$|^\s*\d+'(?:\s*-?\s*\d+(?:\s*\d+/\d+)?")?\s*$|^\s*\d+(?:\.\d+)?"\s*$`)
	scaleRe     = regexp.MustCompile(`(?i)^(?:(?:scale\s*)?1\s*:\s*\d+(?:\.\d+)?|\d+(?:\.\d+)?\s*mm\s*=\s*\d+(?:\.\d+)?\s*m)$`)
	elevationRe = regexp.MustCompile(`(?i)^(?:elev\.?|el\.?)\s*[+-]?\d[\d.,]*\s*m?$`)
	titleRe     = regexp.MustCompile(`(?i)\b(?:floor\s+plan|site\s+plan|elevation|section|ground\s+floor|first\s+floor|roof\s+plan)\b`)
	referenceRe = regexp.MustCompile(`^[A-Z]{1,3}-?\d{1,4}[A-Za-z]?$`)
)

// roomVocabulary maps lowercase label words to whether they name a
// room. Phrases are matched word by word after trimming punctuation.
var roomWords = map[string]bool{
	"bedroom": true, "bed": true, "br": true,
	"bathroom": true, "bath": true, "wc": true, "ensuite": true, "toilet": true,
	"kitchen": true, "kit": true,
	"living": true, "lounge": true, "family": true,
	"dining": true,
	"garage":  true, "carport": true,
	"closet": true, "robe": true, "wardrobe": true, "storage": true, "store": true,
	"hall": true, "hallway": true, "corridor": true, "passage": true,
	"entry": true, "entrance": true, "foyer": true, "porch": true,
	"basement": true, "cellar": true,
	"office": true, "study": true, "den": true,
	"utility": true, "laundry": true, "ldry": true,
	"deck": true, "patio": true, "balcony": true,
}

// ClassifyText determines the most likely role of a recognized string.
// Dimensions are checked first since bare numbers dominate drawings,
// then room vocabulary, scale notations, elevation markers, sheet
// titles and reference grid tags.
func ClassifyText(text string) TextType {
	s := strings.TrimSpace(text)
	if s == "" {
		return TextUnknown
	}
	if dimensionRe.MatchString(s) {
		return TextDimension
	}
	if isRoomLabel(s) {
		return TextRoomLabel
	}
	if scaleRe.MatchString(s) {
		return TextScale
	}
	if elevationRe.MatchString(s) {
		return TextElevation
	}
	if titleRe.MatchString(s) {
		return TextTitle
	}
	if referenceRe.MatchString(s) {
		return TextReference
	}
	return TextUnknown
}

func isRoomLabel(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,:;()[]")
		if roomWords[w] {
			return true
		}
		// Abbreviations are often dotted: "w.c.", "ldry.".
		if roomWords[strings.ReplaceAll(w, ".", "")] {
			return true
		}
	}
	return false
}
