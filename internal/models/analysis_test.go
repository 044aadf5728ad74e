package models

import (
	"encoding/json"
	"testing"
)

func TestVerdict_JSON(t *testing.T) {
	for _, v := range []Verdict{VerdictAccent, VerdictNotEnglish} {
		b, err := json.Marshal(struct {
			Verdict Verdict `json:"verdict"`
		}{v})
		if err != nil {
			t.Fatalf("marshal %s: %v", v, err)
		}
		var out struct {
			Verdict Verdict `json:"verdict"`
		}
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if out.Verdict != v {
			t.Errorf("expected %s, got %s", v, out.Verdict)
		}
	}
}

func TestParseVerdict_Unknown(t *testing.T) {
	var v Verdict
	if err := json.Unmarshal([]byte(`"maybe"`), &v); err == nil {
		t.Error("expected error for unknown verdict")
	}
	if _, err := ParseVerdict(""); err == nil {
		t.Error("expected error for empty verdict")
	}
}

func TestTranscriptResult_IsEnglish(t *testing.T) {
	tests := []struct {
		res  *TranscriptResult
		want bool
	}{
		{&TranscriptResult{Language: "en"}, true},
		{&TranscriptResult{Language: "es"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := tt.res.IsEnglish(); got != tt.want {
			t.Errorf("IsEnglish(%+v): expected %v, got %v", tt.res, tt.want, got)
		}
	}
}
