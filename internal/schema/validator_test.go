package schema

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"accent-analyzer/internal/apperr"
	"accent-analyzer/internal/models"
)

func TestValidateRequest(t *testing.T) {
	id := uuid.NewString()
	tests := []struct {
		name    string
		req     *models.AnalysisRequest
		wantErr bool
	}{
		{"url", &models.AnalysisRequest{ID: id, URL: "https://www.youtube.com/watch?v=3FtGOHUkEzI"}, false},
		{"upload", &models.AnalysisRequest{ID: id, UploadPath: "/tmp/a.mp4", UploadName: "a.mp4"}, false},
		{"nil", nil, true},
		{"neither", &models.AnalysisRequest{ID: id}, true},
		{"both", &models.AnalysisRequest{ID: id, URL: "https://a.b/c", UploadPath: "/tmp/a.mp4"}, true},
		{"ftp scheme", &models.AnalysisRequest{ID: id, URL: "ftp://example.com/v.mp4"}, true},
		{"no scheme", &models.AnalysisRequest{ID: id, URL: "www.youtube.com/watch?v=x"}, true},
		{"bad id", &models.AnalysisRequest{ID: "42", URL: "https://a.b/c"}, true},
		{"too long", &models.AnalysisRequest{ID: id, URL: "https://a.b/" + strings.Repeat("x", 2100)}, true},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequest(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && apperr.KindOf(err) != apperr.KindInvalidRequest {
				t.Errorf("expected invalid_request kind, got %s", apperr.KindOf(err))
			}
		})
	}
}

func TestValidate_Events(t *testing.T) {
	v := New()

	ok := models.AnalysisCompleted{
		EventType: models.EventAnalysisCompleted,
		RequestID: uuid.NewString(),
		Timestamp: 1,
		Source:    "https://a.b/c",
		Verdict:   "accent",
	}
	if err := v.Validate(ok); err != nil {
		t.Errorf("expected valid event, got %v", err)
	}

	bad := ok
	bad.Verdict = "maybe"
	bad.Confidence = 120
	err := v.Validate(bad)
	if err == nil {
		t.Fatal("expected error for invalid event")
	}
	if !strings.Contains(err.Error(), "verdict") || !strings.Contains(err.Error(), "confidence") {
		t.Errorf("expected both fields reported, got %q", err.Error())
	}
}
