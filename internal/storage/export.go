package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/history"
	"github.com/san-kum/episim/internal/metrics"
)

// CSVHeader is the first line of every series export.
var CSVHeader = []string{"t", "S", "E", "I", "R", "D", "everInf"}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []history.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatFloat(r.T, 'f', -1, 64),
			strconv.Itoa(r.S),
			strconv.Itoa(r.E),
			strconv.Itoa(r.I),
			strconv.Itoa(r.R),
			strconv.Itoa(r.D),
			strconv.Itoa(r.EverInfected),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a series written by WriteCSV.
func ReadCSV(r io.Reader) ([]history.ExportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing csv header")
	}

	rows := make([]history.ExportRow, 0, len(records)-1)
	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		ints := make([]int, len(record)-1)
		for j, field := range record[1:] {
			if ints[j], err = strconv.Atoi(field); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+2, err)
			}
		}
		rows = append(rows, history.ExportRow{
			T: t, S: ints[0], E: ints[1], I: ints[2], R: ints[3], D: ints[4], EverInfected: ints[5],
		})
	}
	return rows, nil
}

func ExportCSVFile(path string, rows []history.ExportRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteCSV(file, rows)
}

type ExportData struct {
	Config     config.Config       `json:"config"`
	Share      string              `json:"share"`
	Steps      int                 `json:"steps"`
	Series     []history.ExportRow `json:"series"`
	Indicators []metrics.Field     `json:"indicators"`
	Metrics    map[string]float64  `json:"metrics,omitempty"`
}

// NewExportData bundles a run for JSON export. Indicators are rendered
// strings so undefined values survive encoding.
func NewExportData(cfg *config.Config, rows []history.ExportRow, m metrics.Snapshot, summary map[string]float64) ExportData {
	return ExportData{
		Config:     *cfg,
		Share:      cfg.EncodeQuery(),
		Steps:      len(rows),
		Series:     rows,
		Indicators: m.Fields(),
		Metrics:    summary,
	}
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, data)
}
