package output

import (
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

// ReportRow is one file set's outcome in the per-run processing report.
type ReportRow struct {
	FilesetID  string    `csv:"fileset_id"`
	GeolocFile string    `csv:"geoloc_file"`
	Bands      int       `csv:"bands"`
	FailedBand int       `csv:"failed_bands"`
	Rows       int       `csv:"rows"`
	Cols       int       `csv:"cols"`
	Scale      float64   `csv:"scale"`
	Output     string    `csv:"output"`
	Status     string    `csv:"status"`
	DurationMs int64     `csv:"duration_ms"`
	FinishedAt time.Time `csv:"finished_at"`
}

// SaveReport writes the processing report of one run as CSV.
func SaveReport(rows []ReportRow, outputPath string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no report rows to save")
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	fmt.Printf("Processing report with %d rows saved to %s.\n", len(rows), outputPath)
	return nil
}
