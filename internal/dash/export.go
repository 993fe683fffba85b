package dash

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"apedash/internal/query"
	"apedash/internal/results"
)

// WriteCSV writes records as CSV: identity columns, then one column per
// metric in display order. Absent metrics render as empty cells.
func WriteCSV(w io.Writer, recs []results.Record) error {
	cw := csv.NewWriter(w)

	header := []string{"Algorithm", "Jobsite", "Subtag", "Video"}
	for _, key := range results.MetricKeys() {
		header = append(header, results.MetricLabel(key))
	}
	header = append(header, "Plot PDF")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range recs {
		row := []string{r.Algorithm, r.Jobsite, r.Subtag, r.Video}
		for _, key := range results.MetricKeys() {
			if v, ok := r.Metric(key); ok {
				row = append(row, fmt.Sprintf("%g", v))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, r.PlotPDF)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	recs := query.Apply(s.cfg.Records, parseFilter(r.URL.Query()))
	sorted := append([]results.Record(nil), recs...)
	query.SortForTable(sorted, s.cfg.SubtagOrder)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="APE_metrics_filtered.csv"`)
	if err := WriteCSV(w, sorted); err != nil {
		s.log.Error("csv export", "err", err)
	}
}

// ZipDir streams every regular file under dir (recursively) into a ZIP
// archive, with paths relative to dir. Returns the number of files written.
func ZipDir(w io.Writer, dir string) (int, error) {
	zw := zip.NewWriter(w)
	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if _, err := io.Copy(entry, f); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("zip %s: %w", dir, err)
	}
	return count, zw.Close()
}

func (s *Server) plotsZip(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(s.cfg.PlotsDir)
	if err != nil || len(entries) == 0 {
		writeError(w, http.StatusNotFound, "no PDF plots found in the plots directory")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="all_pdf_plots.zip"`)
	if _, err := ZipDir(w, s.cfg.PlotsDir); err != nil {
		s.log.Error("zip plots", "err", err)
	}
}
