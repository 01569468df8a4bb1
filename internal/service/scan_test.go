package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"github.com/google/uuid"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type mockAnalyzer struct {
	AnalyzeImageFunc func(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error)
	configured       bool
}

func (m *mockAnalyzer) AnalyzeImage(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error) {
	return m.AnalyzeImageFunc(ctx, image, mimeType, lang)
}
func (m *mockAnalyzer) Configured() bool { return m.configured }

type mockHistory struct {
	SaveScanFunc func(ctx context.Context, scan models.ScanRecord) error
	saved        []models.ScanRecord
}

func (m *mockHistory) SaveScan(ctx context.Context, scan models.ScanRecord) error {
	m.saved = append(m.saved, scan)
	if m.SaveScanFunc != nil {
		return m.SaveScanFunc(ctx, scan)
	}
	return nil
}
func (m *mockHistory) GetHistory(context.Context) []models.ScanRecord { return m.saved }

func returning(r models.DiseaseResult, err error) func(context.Context, []byte, string, locale.Code) (models.DiseaseResult, error) {
	return func(context.Context, []byte, string, locale.Code) (models.DiseaseResult, error) {
		return r, err
	}
}

var blight = models.DiseaseResult{
	IsPlant:     true,
	CropName:    "Tomato",
	DiseaseName: "Early Blight",
	Confidence:  91,
	Severity:    models.SeverityMedium,
}

func TestScan_SavesLivePlant(t *testing.T) {
	var gotLang locale.Code
	an := &mockAnalyzer{configured: true}
	an.AnalyzeImageFunc = func(_ context.Context, _ []byte, _ string, lang locale.Code) (models.DiseaseResult, error) {
		gotLang = lang
		return blight, nil
	}
	hist := &mockHistory{}
	svc := NewScanService(an, hist, nil)
	fixed := time.UnixMilli(1_700_000_000_123)
	svc.now = func() time.Time { return fixed }

	got, err := svc.Scan(context.Background(), []byte("img"), "image/png", locale.Kannada)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if got.DiseaseName != blight.DiseaseName || gotLang != locale.Kannada {
		t.Errorf("Scan = %+v (lang %q); want %+v in kn", got, gotLang, blight)
	}
	if len(hist.saved) != 1 {
		t.Fatalf("saved %d scans; want 1", len(hist.saved))
	}
	rec := hist.saved[0]
	if rec.Timestamp != fixed.UnixMilli() {
		t.Errorf("Timestamp = %d; want %d", rec.Timestamp, fixed.UnixMilli())
	}
	if rec.ImageURL != "data:image/png;base64,aW1n" {
		t.Errorf("ImageURL = %q", rec.ImageURL)
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil || id.Version() != 7 {
		t.Errorf("ID = %q; want a UUIDv7", rec.ID)
	}
}

func TestScan_SniffsMissingMIME(t *testing.T) {
	an := &mockAnalyzer{configured: true, AnalyzeImageFunc: returning(blight, nil)}
	hist := &mockHistory{}
	svc := NewScanService(an, hist, nil)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	if _, err := svc.Scan(context.Background(), png, "", locale.English); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if !strings.HasPrefix(hist.saved[0].ImageURL, "data:image/png;base64,") {
		t.Errorf("ImageURL = %q; want png data URL", hist.saved[0].ImageURL)
	}
}

func TestScan_DoesNotSave(t *testing.T) {
	tests := []struct {
		name       string
		result     models.DiseaseResult
		configured bool
	}{
		{name: "not a plant", result: models.DiseaseResult{IsPlant: false}, configured: true},
		{name: "demo result", result: blight, configured: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := &mockHistory{}
			svc := NewScanService(&mockAnalyzer{configured: tt.configured, AnalyzeImageFunc: returning(tt.result, nil)}, hist, nil)
			got, err := svc.Scan(context.Background(), []byte("img"), "image/jpeg", locale.English)
			if err != nil {
				t.Fatalf("Scan returned error: %v", err)
			}
			if got.IsPlant != tt.result.IsPlant {
				t.Errorf("IsPlant = %v; want %v", got.IsPlant, tt.result.IsPlant)
			}
			if len(hist.saved) != 0 {
				t.Errorf("saved %d scans; want none", len(hist.saved))
			}
		})
	}
}

func TestScan_AnalysisError(t *testing.T) {
	wantErr := errors.New("failed to analyze image")
	hist := &mockHistory{}
	svc := NewScanService(&mockAnalyzer{configured: true, AnalyzeImageFunc: returning(blight, wantErr)}, hist, nil)

	if _, err := svc.Scan(context.Background(), []byte("img"), "image/jpeg", locale.English); !errors.Is(err, wantErr) {
		t.Fatalf("Scan error = %v; want %v", err, wantErr)
	}
	if len(hist.saved) != 0 {
		t.Error("failed analysis must not be saved")
	}
}

func TestScan_SaveFailureKeepsResult(t *testing.T) {
	hist := &mockHistory{SaveScanFunc: func(context.Context, models.ScanRecord) error {
		return errors.New("disk full")
	}}
	svc := NewScanService(&mockAnalyzer{configured: true, AnalyzeImageFunc: returning(blight, nil)}, hist, nil)

	got, err := svc.Scan(context.Background(), []byte("img"), "image/jpeg", locale.English)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if got.CropName != "Tomato" {
		t.Errorf("CropName = %q; want Tomato", got.CropName)
	}
}

func TestScan_IDFailure(t *testing.T) {
	hist := &mockHistory{}
	svc := NewScanService(&mockAnalyzer{configured: true, AnalyzeImageFunc: returning(blight, nil)}, hist, nil)
	svc.newID = func() (uuid.UUID, error) { return uuid.Nil, errors.New("no entropy") }

	if _, err := svc.Scan(context.Background(), []byte("img"), "image/jpeg", locale.English); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(hist.saved) != 0 {
		t.Error("record without id must not be saved")
	}
}
