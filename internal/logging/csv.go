package logging

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/linuxmatters/jivepulse/internal/tempo"
)

// WriteSeriesCSV writes a tempo series as "time_seconds,bpm" rows with a
// header. No-estimate points are written with their zero value so external
// charting keeps the gaps.
func WriteSeriesCSV(w io.Writer, series *tempo.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time_seconds", "bpm"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range series.Points() {
		record := []string{
			strconv.FormatFloat(p.Elapsed, 'f', 2, 64),
			strconv.FormatFloat(p.BPM, 'f', 1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportSeriesCSV writes the series to a file at path.
func ExportSeriesCSV(path string, series *tempo.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	if err := WriteSeriesCSV(f, series); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}
	return nil
}
