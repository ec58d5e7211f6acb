package kpi

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned when no spreadsheet is configured
var ErrNotConfigured = errors.New("kpi: spreadsheet is not configured")

// Service serves KPI targets from a spreadsheet
type Service struct {
	reader        ValuesReader
	spreadsheetID string
	rng           string
	log           *logrus.Logger
}

// NewService creates a KPI service. rng defaults to DefaultRange.
func NewService(reader ValuesReader, spreadsheetID, rng string, log *logrus.Logger) *Service {
	if rng == "" {
		rng = DefaultRange
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{reader: reader, spreadsheetID: spreadsheetID, rng: rng, log: log}
}

// Targets reads and processes the sheet. A failed read is logged and
// reported as an empty report so the dashboard keeps rendering.
func (s *Service) Targets(ctx context.Context) (Report, error) {
	if s.reader == nil || s.spreadsheetID == "" {
		return EmptyReport(), ErrNotConfigured
	}

	rows, err := s.reader.ReadRange(ctx, s.spreadsheetID, s.rng)
	if err != nil {
		s.log.WithError(err).WithField("range", s.rng).Error("Error reading sheet data")
		return EmptyReport(), nil
	}

	report := Process(rows)
	s.log.WithField("rows", len(rows)).Info("KPI targets loaded")
	return report, nil
}
