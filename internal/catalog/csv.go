package catalog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/charmap"

	"plantguard/internal/domain"
)

// The source files are Windows-1252 encoded spreadsheets exports.
type diseaseRow struct {
	Index       string `csv:"index"`
	DiseaseName string `csv:"disease_name"`
	Description string `csv:"description"`
	Steps       string `csv:"Possible Steps"`
	ImageURL    string `csv:"image_url"`
}

type supplementRow struct {
	Index       string `csv:"index"`
	DiseaseName string `csv:"disease_name"`
	Name        string `csv:"supplement name"`
	ImageURL    string `csv:"supplement image"`
	BuyLink     string `csv:"buy link"`
}

func readDiseases(path string) ([]domain.DiseaseRecord, error) {
	var rows []*diseaseRow
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.DiseaseRecord, 0, len(rows))
	for i, r := range rows {
		idx, err := rowIndex(r.Index, i)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s row %d: %w", path, i, err)
		}
		out = append(out, domain.DiseaseRecord{
			ClassIndex:       idx,
			DiseaseName:      strings.TrimSpace(r.DiseaseName),
			Description:      strings.TrimSpace(r.Description),
			RemediationSteps: strings.TrimSpace(r.Steps),
			ImageURL:         strings.TrimSpace(r.ImageURL),
		})
	}
	return out, nil
}

func readSupplements(path string) ([]domain.SupplementRecord, error) {
	var rows []*supplementRow
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.SupplementRecord, 0, len(rows))
	for i, r := range rows {
		idx, err := rowIndex(r.Index, i)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s row %d: %w", path, i, err)
		}
		out = append(out, domain.SupplementRecord{
			ClassIndex:     idx,
			DiseaseName:    strings.TrimSpace(r.DiseaseName),
			SupplementName: strings.TrimSpace(r.Name),
			ImageURL:       strings.TrimSpace(r.ImageURL),
			BuyLink:        strings.TrimSpace(r.BuyLink),
		})
	}
	return out, nil
}

func readCSV(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = charmap.Windows1252.NewDecoder().Reader(f)
	if err := gocsv.Unmarshal(r, out); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return nil
}

// rowIndex falls back to the row position when the file has no index column.
func rowIndex(raw string, pos int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pos, nil
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", raw)
	}
	return idx, nil
}
