package models

import (
	"fmt"
	"strings"
)

// Accent is the closed set of English varieties the service reports.
type Accent int

const (
	AccentUnknown Accent = iota
	AccentAmerican
	AccentBritish
	AccentAustralian
	AccentCanadian
	AccentIndian
	AccentAfrican
	AccentScottish
	AccentIrish
	AccentWelsh
	AccentNewZealand
	AccentHongKong
	AccentFilipino
	AccentMalaysian
	AccentSingaporean
	AccentBermudian
	AccentSouthAtlantic
)

type accentInfo struct {
	code        string
	name        string
	explanation string
}

var accents = [...]accentInfo{
	AccentUnknown: {"unknown", "Unknown", ""},
	AccentAmerican: {"american", "American English",
		"The speech contains typical American pronunciation patterns, characterized by rhotic 'r' sounds and specific vowel qualities."},
	AccentBritish: {"british", "British English",
		"The speech shows characteristic British intonation, non-rhotic 'r' sounds, and distinctive 't' pronunciation."},
	AccentAustralian: {"australian", "Australian English",
		"The speech has distinctive Australian vowel sounds and rising intonation."},
	AccentCanadian: {"canadian", "Canadian English",
		"The speech contains subtle Canadian pronunciation features, including Canadian raising of diphthongs."},
	AccentIndian: {"indian", "Indian English",
		"The speech demonstrates rhythmic patterns and consonant pronunciation common in Indian English."},
	AccentAfrican: {"african", "African English",
		"The speech demonstrates rhythmic patterns and tonal qualities common in African varieties of English."},
	AccentScottish: {"scottish", "Scottish English",
		"The speech exhibits distinctive Scottish vowel sounds and strong 'r' pronunciation."},
	AccentIrish: {"irish", "Irish English",
		"The speech shows melodic intonation patterns and vowel sounds characteristic of Irish English."},
	AccentWelsh: {"welsh", "Welsh English",
		"The speech contains the distinctive musicality and consonant pronunciation of Welsh English."},
	AccentNewZealand:    {"new_zealand", "New Zealand English", ""},
	AccentHongKong:      {"hong_kong", "Hong Kong English", ""},
	AccentFilipino:      {"filipino", "Filipino English", ""},
	AccentMalaysian:     {"malaysian", "Malaysian English", ""},
	AccentSingaporean:   {"singaporean", "Singaporean English", ""},
	AccentBermudian:     {"bermudian", "Bermudian English", ""},
	AccentSouthAtlantic: {"south_atlantic", "South Atlantic English", ""},
}

// modelLabels maps CommonAccent classifier labels onto the closed set.
var modelLabels = map[string]Accent{
	"us":             AccentAmerican,
	"england":        AccentBritish,
	"australia":      AccentAustralian,
	"canada":         AccentCanadian,
	"indian":         AccentIndian,
	"african":        AccentAfrican,
	"scotland":       AccentScottish,
	"ireland":        AccentIrish,
	"wales":          AccentWelsh,
	"newzealand":     AccentNewZealand,
	"hongkong":       AccentHongKong,
	"philippines":    AccentFilipino,
	"malaysia":       AccentMalaysian,
	"singapore":      AccentSingaporean,
	"bermuda":        AccentBermudian,
	"southatlandtic": AccentSouthAtlantic,
}

// AccentFromLabel maps a raw model label to the closed set. Unmapped labels
// become AccentUnknown.
func AccentFromLabel(label string) Accent {
	if a, ok := modelLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return a
	}
	return AccentUnknown
}

// ParseAccent parses a code as returned by Accent.Code.
func ParseAccent(code string) (Accent, error) {
	for i, info := range accents {
		if info.code == code {
			return Accent(i), nil
		}
	}
	return AccentUnknown, fmt.Errorf("unknown accent code %q", code)
}

// Accents returns every known accent except AccentUnknown.
func Accents() []Accent {
	out := make([]Accent, 0, len(accents)-1)
	for i := 1; i < len(accents); i++ {
		out = append(out, Accent(i))
	}
	return out
}

func (a Accent) valid() bool { return a >= 0 && int(a) < len(accents) }

// Code is the stable machine-readable identifier.
func (a Accent) Code() string {
	if !a.valid() {
		return accents[AccentUnknown].code
	}
	return accents[a].code
}

// String returns the display name, e.g. "American English".
func (a Accent) String() string {
	if !a.valid() {
		return accents[AccentUnknown].name
	}
	return accents[a].name
}

// Explanation returns a short human-readable description of the accent.
func (a Accent) Explanation() string {
	if !a.valid() || a == AccentUnknown {
		return "The accent could not be matched to a supported English variety."
	}
	if e := accents[a].explanation; e != "" {
		return e
	}
	return fmt.Sprintf("The speech was classified as %s based on pronunciation patterns and speech characteristics.", accents[a].name)
}

// MarshalText encodes the accent as its code.
func (a Accent) MarshalText() ([]byte, error) {
	return []byte(a.Code()), nil
}

// UnmarshalText decodes an accent code.
func (a *Accent) UnmarshalText(b []byte) error {
	v, err := ParseAccent(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Prediction is one ranked classifier output.
type Prediction struct {
	Accent     Accent  `json:"accent"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// AccentResult is the output of an accent classifier.
type AccentResult struct {
	Accent Accent `json:"accent"`
	Label  string `json:"label"`
	// Confidence is in [0,100].
	Confidence    float64      `json:"confidence"`
	LowConfidence bool         `json:"lowConfidence"`
	Explanation   string       `json:"explanation"`
	Top           []Prediction `json:"top,omitempty"`
	Provider      string       `json:"provider"`
}
