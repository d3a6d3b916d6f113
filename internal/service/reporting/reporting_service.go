package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agroyield/internal/domain/models"
	"github.com/mamadbah2/agroyield/internal/repository/mongodb"
	"github.com/mamadbah2/agroyield/internal/repository/sheets"
)

const (
	dateLayout   = "2006-01-02 15:04"
	digestWindow = 24 * time.Hour
)

// Service produces the scheduled estimation history digest: a summary log,
// an optional Google Sheets export, and history retention pruning.
type Service struct {
	history   mongodb.Repository
	sheet     sheets.Repository
	retention time.Duration
	logger    *zap.Logger
}

// NewService wires a new reporting service instance. sheet may be nil when
// the export is not configured; retentionDays 0 disables pruning.
func NewService(history mongodb.Repository, sheet sheets.Repository, retentionDays int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		history:   history,
		sheet:     sheet,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger,
	}
}

// RunDigest summarizes the estimations of the last 24 hours, exports them to
// the configured sheet, and prunes expired records. Failures in one step do
// not stop the others; the first error is returned for the scheduler log.
func (s *Service) RunDigest(ctx context.Context, now time.Time) error {
	var firstErr error

	records, err := s.history.ListEstimations(ctx)
	if err != nil {
		s.logger.Error("failed to load estimation history for digest", zap.Error(err))
		firstErr = err
	} else {
		recent := recentRecords(records, now.Add(-digestWindow))
		s.logDigest(recent, now)

		if s.sheet != nil {
			if err := s.exportRecords(ctx, recent); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if s.retention > 0 {
		cutoff := now.Add(-s.retention)
		deleted, err := s.history.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Error("failed to prune estimation history", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		} else if deleted > 0 {
			s.logger.Info("pruned expired estimation history",
				zap.Int64("deleted", deleted),
				zap.Time("cutoff", cutoff))
		}
	}

	return firstErr
}

// recentRecords keeps records created at or after the window start. The
// repository returns records newest-first, so iteration stops at the first
// record outside the window.
func recentRecords(records []models.EstimationHistoryRecord, windowStart time.Time) []models.EstimationHistoryRecord {
	var recent []models.EstimationHistoryRecord
	for _, record := range records {
		if record.CreatedAt.Before(windowStart) {
			break
		}
		recent = append(recent, record)
	}
	return recent
}

func (s *Service) logDigest(recent []models.EstimationHistoryRecord, now time.Time) {
	totalsByCurrency := make(map[string]float64)
	for _, record := range recent {
		totalsByCurrency[record.Currency] += record.EstimatedTotalValue
	}

	summary := fmt.Sprintf("Estimation digest (%s): %d estimations in the last 24h.", now.Format(dateLayout), len(recent))
	s.logger.Info(summary, zap.Any("total_value_by_currency", totalsByCurrency))
}

func (s *Service) exportRecords(ctx context.Context, recent []models.EstimationHistoryRecord) error {
	if len(recent) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(recent))
	for _, record := range recent {
		rows = append(rows, []interface{}{
			record.CreatedAt.Format(dateLayout),
			record.CropType,
			record.PlotSize,
			record.EstimatedYield,
			record.MarketPricePerKg,
			record.Currency,
			record.PriceUnit,
			record.EstimatedTotalValue,
		})
	}

	if err := s.sheet.AppendRows(ctx, sheets.EstimationsRange, rows); err != nil {
		s.logger.Error("failed to export estimation digest",
			zap.Error(err),
			zap.Int("rows", len(rows)))
		return err
	}

	return nil
}
