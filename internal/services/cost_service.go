package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/abordo/internal/expiry"
	apperrors "github.com/charlesng35/abordo/pkg/errors"
	"github.com/charlesng35/abordo/pkg/validator"
)

// Cost categories as exported.
const (
	CostMaintenance = "Maintenance"
	CostInspection  = "Inspection"
	CostCarTax      = "CarTax"
	CostInsurance   = "Insurance"
)

// CostCSVHeader is the header row of the cost export.
var CostCSVHeader = []string{"Category", "PlateNumber", "Brand", "Model", "Date", "Description", "Amount"}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// CostRow is one priced record in a cost export.
type CostRow struct {
	Category    string    `json:"category"`
	PlateNumber string    `json:"plate_number"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

// CostSummary totals costs by category.
type CostSummary struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Maintenance float64 `json:"maintenance"`
	Inspection  float64 `json:"inspection"`
	Tax         float64 `json:"tax"`
	Insurance   float64 `json:"insurance"`
	Total       float64 `json:"total"`
}

// costSource describes where a category's amount and date live.
type costSource struct {
	category    string
	table       string
	dateColumn  string
	amount      string
	description string
}

var costSources = []costSource{
	{CostMaintenance, "maintenances", "last_maintenance", "cost", "description"},
	{CostInspection, "inspections", "last_inspection_date", "cost", "inspection_center"},
	{CostCarTax, "car_taxes", "expiry_date", "amount", "region"},
	{CostInsurance, "insurances", "expiry_date", "annual_premium", "company"},
}

// CostService aggregates what a user spent on their vehicles.
type CostService struct {
	db  *gorm.DB
	now expiry.Clock
}

// NewCostService constructs a CostService.
func NewCostService(db *gorm.DB, now expiry.Clock) (*CostService, error) {
	if db == nil {
		return nil, errors.New("cost service: db is required")
	}
	if now == nil {
		now = time.Now
	}
	return &CostService{db: db, now: now}, nil
}

// ParseRange builds a date range from optional YYYY-MM-DD bounds. Missing
// bounds default to the twelve months ending today.
func (s *CostService) ParseRange(start, end string) (DateRange, error) {
	rng := DefaultRange(s.now())
	if strings.TrimSpace(start) != "" {
		parsed, err := ParseDate(start)
		if err != nil {
			return DateRange{}, err
		}
		rng.Start = calendarDate(parsed)
	}
	if strings.TrimSpace(end) != "" {
		parsed, err := ParseDate(end)
		if err != nil {
			return DateRange{}, err
		}
		rng.End = calendarDate(parsed)
	}
	if rng.End.Before(rng.Start) {
		return DateRange{}, apperrors.NewBadRequest("end date must not be before start date")
	}
	return rng, nil
}

// DefaultRange is the twelve months ending on now's calendar day.
func DefaultRange(now time.Time) DateRange {
	end := today(now)
	return DateRange{Start: end.AddDate(-1, 0, 0), End: end}
}

// Export returns every priced record of the user's vehicles dated within rng,
// ordered by category then date.
func (s *CostService) Export(ctx context.Context, userID string, rng DateRange) ([]CostRow, error) {
	ctx = ensureContext(ctx)

	rows := make([]CostRow, 0)
	for _, source := range costSources {
		var found []CostRow
		err := s.db.WithContext(ctx).
			Table(source.table+" AS r").
			Select(fmt.Sprintf(
				"v.plate_number AS plate_number, v.brand AS brand, v.model AS model, r.%s AS date, COALESCE(r.%s, '') AS description, r.%s AS amount",
				source.dateColumn, source.description, source.amount,
			)).
			Joins("JOIN vehicles v ON v.id = r.vehicle_id").
			Where("v.user_id = ?", userID).
			Where(fmt.Sprintf("r.%s BETWEEN ? AND ?", source.dateColumn), rng.Start, rng.End).
			Order("r." + source.dateColumn + " ASC").
			Scan(&found).Error
		if err != nil {
			return nil, fmt.Errorf("cost service: export %s: %w", source.table, err)
		}
		for i := range found {
			found[i].Category = source.category
			found[i].Amount = round2(found[i].Amount)
		}
		rows = append(rows, found...)
	}
	return rows, nil
}

// Summary totals the user's costs within rng by category.
func (s *CostService) Summary(ctx context.Context, userID string, rng DateRange) (CostSummary, error) {
	rows, err := s.Export(ctx, userID, rng)
	if err != nil {
		return CostSummary{}, err
	}

	summary := CostSummary{
		Start: rng.Start.Format(validator.DateLayout),
		End:   rng.End.Format(validator.DateLayout),
	}
	for _, row := range rows {
		switch row.Category {
		case CostMaintenance:
			summary.Maintenance += row.Amount
		case CostInspection:
			summary.Inspection += row.Amount
		case CostCarTax:
			summary.Tax += row.Amount
		case CostInsurance:
			summary.Insurance += row.Amount
		}
	}
	summary.Maintenance = round2(summary.Maintenance)
	summary.Inspection = round2(summary.Inspection)
	summary.Tax = round2(summary.Tax)
	summary.Insurance = round2(summary.Insurance)
	summary.Total = round2(summary.Maintenance + summary.Inspection + summary.Tax + summary.Insurance)
	return summary, nil
}

// ExportFilename names the CSV attachment for rng.
func ExportFilename(rng DateRange) string {
	return fmt.Sprintf("costs_%s_to_%s.csv", rng.Start.Format(validator.DateLayout), rng.End.Format(validator.DateLayout))
}

var descriptionCleaner = strings.NewReplacer("\r", " ", "\n", " ", ",", " ")

// WriteCostsCSV writes rows as CSV with CostCSVHeader.
func WriteCostsCSV(w io.Writer, rows []CostRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CostCSVHeader); err != nil {
		return err
	}
	ordered := make([]CostRow, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		return categoryRank(ordered[i].Category) < categoryRank(ordered[j].Category)
	})
	for _, row := range ordered {
		record := []string{
			row.Category,
			row.PlateNumber,
			row.Brand,
			row.Model,
			row.Date.Format(validator.DateLayout),
			descriptionCleaner.Replace(row.Description),
			strconv.FormatFloat(row.Amount, 'f', 2, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func categoryRank(category string) int {
	for i, source := range costSources {
		if source.category == category {
			return i
		}
	}
	return len(costSources)
}
