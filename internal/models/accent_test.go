package models

import (
	"encoding/json"
	"testing"
)

func TestAccentFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  Accent
	}{
		{"us", AccentAmerican},
		{"england", AccentBritish},
		{" Australia ", AccentAustralian},
		{"indian", AccentIndian},
		{"southatlandtic", AccentSouthAtlantic},
		{"klingon", AccentUnknown},
		{"", AccentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := AccentFromLabel(tt.label); got != tt.want {
				t.Errorf("AccentFromLabel(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestAccent_DisplayName(t *testing.T) {
	if AccentAmerican.String() != "American English" {
		t.Errorf("expected 'American English', got %s", AccentAmerican.String())
	}
	if Accent(999).String() != "Unknown" {
		t.Errorf("expected out-of-range accent to display as Unknown, got %s", Accent(999).String())
	}
}

func TestAccent_EveryAccentHasExplanation(t *testing.T) {
	for _, a := range Accents() {
		if a.Explanation() == "" {
			t.Errorf("expected explanation for %s", a.Code())
		}
	}
}

func TestAccent_CodesRoundTrip(t *testing.T) {
	for _, a := range Accents() {
		got, err := ParseAccent(a.Code())
		if err != nil {
			t.Fatalf("ParseAccent(%q): %v", a.Code(), err)
		}
		if got != a {
			t.Errorf("expected %v, got %v", a, got)
		}
	}

	if _, err := ParseAccent("martian"); err == nil {
		t.Error("expected error for unknown code")
	}
}

func TestAccentResult_JSONUsesCodes(t *testing.T) {
	res := AccentResult{Accent: AccentIrish, Confidence: 91.5}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["accent"] != "irish" {
		t.Errorf("expected accent code 'irish', got %v", raw["accent"])
	}
}

func TestVerdict_String(t *testing.T) {
	if VerdictAccent.String() != "accent" {
		t.Errorf("expected 'accent', got %s", VerdictAccent.String())
	}
	if VerdictNotEnglish.String() != "not_english" {
		t.Errorf("expected 'not_english', got %s", VerdictNotEnglish.String())
	}
}

func TestAnalysisRequest_Source(t *testing.T) {
	r := AnalysisRequest{URL: "https://example.com/v.mp4"}
	if r.SourceKind() != SourceURL || r.Source() != "https://example.com/v.mp4" {
		t.Errorf("unexpected url source: %s %s", r.SourceKind(), r.Source())
	}

	u := AnalysisRequest{UploadPath: "/tmp/x.wav", UploadName: "talk.wav"}
	if u.SourceKind() != SourceUpload || u.Source() != "talk.wav" {
		t.Errorf("unexpected upload source: %s %s", u.SourceKind(), u.Source())
	}
}
