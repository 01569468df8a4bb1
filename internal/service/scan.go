package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Analyzer diagnoses leaf images.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error)
	// Configured reports whether results come from the live model.
	Configured() bool
}

// HistoryStore keeps past scans newest-first.
type HistoryStore interface {
	SaveScan(ctx context.Context, scan models.ScanRecord) error
	GetHistory(ctx context.Context) []models.ScanRecord
}

// ScanService runs diagnoses and records recognised plants in the history.
type ScanService struct {
	analyzer Analyzer
	history  HistoryStore
	now      func() time.Time
	newID    func() (uuid.UUID, error)
	log      *zap.Logger
}

// NewScanService constructs a ScanService.
func NewScanService(analyzer Analyzer, history HistoryStore, log *zap.Logger) *ScanService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScanService{
		analyzer: analyzer,
		history:  history,
		now:      time.Now,
		newID:    uuid.NewV7,
		log:      log,
	}
}

// Scan diagnoses image in lang. A live result for a recognised plant is
// saved to the history; demo results and non-plants are not. A failed save
// is logged and the diagnosis is still returned.
func (s *ScanService) Scan(ctx context.Context, image []byte, mimeType string, lang locale.Code) (models.DiseaseResult, error) {
	result, err := s.analyzer.AnalyzeImage(ctx, image, mimeType, lang)
	if err != nil {
		return models.DiseaseResult{}, err
	}
	if !result.IsPlant || !s.analyzer.Configured() {
		return result, nil
	}

	rec, err := s.record(image, mimeType, result)
	if err != nil {
		s.log.Error("build scan record", zap.Error(err))
		return result, nil
	}
	if err := s.history.SaveScan(ctx, rec); err != nil {
		s.log.Error("save scan", zap.String("id", rec.ID), zap.Error(err))
	}
	return result, nil
}

// History returns past scans newest-first.
func (s *ScanService) History(ctx context.Context) []models.ScanRecord {
	return s.history.GetHistory(ctx)
}

func (s *ScanService) record(image []byte, mimeType string, result models.DiseaseResult) (models.ScanRecord, error) {
	id, err := s.newID()
	if err != nil {
		return models.ScanRecord{}, fmt.Errorf("scan id: %w", err)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}
	return models.ScanRecord{
		ID:        id.String(),
		Timestamp: s.now().UnixMilli(),
		ImageURL:  DataURL(mimeType, image),
		Result:    result,
	}, nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
