package screening

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"neurothrive/internal/models"
	"neurothrive/internal/risk"
	"neurothrive/internal/utils"

	"go.uber.org/zap"
)

// AllowedExtensions are the accepted video container formats.
var AllowedExtensions = []string{"mp4", "avi", "mov", "webm", "mkv"}

var (
	ErrUnsupportedFormat   = errors.New("unsupported video format")
	ErrConsentRequired     = errors.New("consent is required before screening")
	ErrAnalyzerUnavailable = errors.New("screening analyzer unavailable")
	ErrAnalyzerFailed      = errors.New("screening analysis failed")
)

// Recorder persists screening results.
type Recorder interface {
	SaveScreening(ctx context.Context, log *models.ScreeningLog) error
}

type Service struct {
	analyzer Analyzer
	recorder Recorder
	unit     risk.Unit
	log      *zap.Logger
}

// NewService builds a screening service. unit is the scale the analyzer
// reports risk in; stored scores are always fractions.
func NewService(analyzer Analyzer, recorder Recorder, unit risk.Unit, log *zap.Logger) *Service {
	return &Service{analyzer: analyzer, recorder: recorder, unit: unit, log: log}
}

// Request is one uploaded video. Consent is only enforced when
// RequireConsent is set.
type Request struct {
	UserID         uint
	Filename       string
	Video          io.Reader
	Consent        bool
	RequireConsent bool
}

// Outcome is the stored log plus its classification.
type Outcome struct {
	Log            *models.ScreeningLog
	Classification risk.Classification
	Result         *Result
}

// SupportedFormat reports whether filename ends in an allowed extension.
func SupportedFormat(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return slices.Contains(AllowedExtensions, ext)
}

func (s *Service) Screen(ctx context.Context, req Request) (*Outcome, error) {
	if !SupportedFormat(req.Filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(req.Filename))
	}
	if req.RequireConsent && !req.Consent {
		return nil, ErrConsentRequired
	}

	res, err := s.analyzer.Analyze(ctx, req.Filename, req.Video)
	if err != nil {
		return nil, err
	}

	score := risk.ToFraction(res.Risk, s.unit)
	class := risk.ClassifyFraction(score)

	entry := &models.ScreeningLog{
		UploadedBy:     req.UserID,
		VideoName:      utils.HashIdentifier(req.Filename),
		RiskScore:      score,
		RiskLabel:      string(class.Label),
		IndicatorsJSON: string(res.Indicators),
		GazeJSON:       string(res.GazeMetrics),
		ShapJSON:       string(res.ShapImportance),
		HeatmapBase64:  res.HeatmapBase64,
		ConsentGiven:   req.Consent,
	}
	if err := s.recorder.SaveScreening(ctx, entry); err != nil {
		return nil, fmt.Errorf("save screening: %w", err)
	}

	s.log.Info("Screening recorded",
		zap.Uint("userID", req.UserID),
		zap.String("screeningID", entry.PublicID.String()),
		zap.Float64("risk", score),
		zap.String("label", string(class.Label)),
	)
	return &Outcome{Log: entry, Classification: class, Result: res}, nil
}
