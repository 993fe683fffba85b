package dash

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"apedash/internal/query"
	"apedash/internal/results"
)

// metaResponse describes the dataset and its filter options.
type metaResponse struct {
	Dataset     string         `json:"dataset"`
	Records     int            `json:"records"`
	Algorithms  []string       `json:"algorithms"`
	Jobsites    []string       `json:"jobsites"`
	Subtags     []string       `json:"subtags"`
	Videos      []string       `json:"videos"`
	SubtagOrder []string       `json:"subtag_order"`
	Metrics     []metricOption `json:"metrics"`
}

type metricOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

func (s *Server) apiMeta(w http.ResponseWriter, _ *http.Request) {
	ds := &results.Dataset{Records: s.cfg.Records}
	resp := metaResponse{
		Dataset:     s.cfg.DatasetName,
		Records:     ds.Len(),
		Algorithms:  ds.Algorithms(),
		Jobsites:    ds.Jobsites(),
		Subtags:     ds.Subtags(),
		Videos:      ds.Videos(),
		SubtagOrder: s.cfg.SubtagOrder,
	}
	for _, key := range results.MetricKeys() {
		resp.Metrics = append(resp.Metrics, metricOption{Key: key, Label: results.MetricLabel(key)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseFilter reads the shared filter params. Multi-select params repeat:
// ?jobsite=NWC&jobsite=SEA.
func parseFilter(q url.Values) query.Filter {
	return query.Filter{
		Algorithm:   q.Get("algorithm"),
		Jobsites:    q["jobsite"],
		Subtags:     q["subtag"],
		VideoSearch: q.Get("video"),
	}
}

// recordRow is one row of the records API: a record plus artifact links.
type recordRow struct {
	Algorithm  string             `json:"algorithm"`
	Jobsite    string             `json:"jobsite"`
	Subtag     string             `json:"subtag"`
	Video      string             `json:"video"`
	Metrics    map[string]float64 `json:"metrics"`
	PlotPDF    string             `json:"plot_pdf,omitempty"`
	PlotURL    string             `json:"plot_url,omitempty"`
	PreviewURL string             `json:"preview_url,omitempty"`
	HasPreview bool               `json:"has_preview"`
}

type recordsResponse struct {
	Total int         `json:"total"`
	Rows  []recordRow `json:"rows"`
}

func (s *Server) apiRecords(w http.ResponseWriter, r *http.Request) {
	recs := query.Apply(s.cfg.Records, parseFilter(r.URL.Query()))
	sorted := append([]results.Record(nil), recs...)
	query.SortForTable(sorted, s.cfg.SubtagOrder)

	resp := recordsResponse{Total: len(sorted), Rows: make([]recordRow, 0, len(sorted))}
	for _, rec := range sorted {
		row := recordRow{
			Algorithm: rec.Algorithm,
			Jobsite:   rec.Jobsite,
			Subtag:    rec.Subtag,
			Video:     rec.Video,
			Metrics:   rec.Metrics,
			PlotPDF:   rec.PlotPDF,
		}
		if rec.PlotPDF != "" {
			row.PlotURL = "/plots/" + url.PathEscape(rec.PlotPDF)
			if s.hasPreview(rec.PlotPDF) {
				row.HasPreview = true
				row.PreviewURL = "/previews/" + url.PathEscape(previewName(rec.PlotPDF))
			}
		}
		resp.Rows = append(resp.Rows, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

type summaryResponse struct {
	Summary []query.AlgorithmSummary `json:"summary"`
	// Best/worst RMSE across the filtered rows, for highlighting.
	BestRMSE  float64 `json:"best_rmse"`
	WorstRMSE float64 `json:"worst_rmse"`
	HasRMSE   bool    `json:"has_rmse"`
	RowCount  int     `json:"row_count"`
}

func (s *Server) apiSummary(w http.ResponseWriter, r *http.Request) {
	recs := query.Apply(s.cfg.Records, parseFilter(r.URL.Query()))
	min, max, ok := query.Extremes(recs, results.MetricRMSE)
	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:   query.Summary(recs),
		BestRMSE:  min,
		WorstRMSE: max,
		HasRMSE:   ok,
		RowCount:  len(recs),
	})
}

func (s *Server) apiChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric := q.Get("metric")
	if metric == "" {
		metric = results.MetricRMSE
	}
	recs := query.Apply(s.cfg.Records, parseFilter(q))
	cfg, err := query.BuildChart(recs, metric, q.Get("group"), s.cfg.SubtagOrder)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// previewName maps a plot to its preview: X.pdf -> X.pdf.png.
func previewName(plotPDF string) string { return plotPDF + ".png" }

func (s *Server) hasPreview(plotPDF string) bool {
	if s.cfg.PreviewsDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.cfg.PreviewsDir, previewName(plotPDF)))
	return err == nil
}

// serveArtifact serves one file from dir by basename. Any path with
// separators or a wrong extension is treated as not found.
func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, dir, ext, contentType string) {
	name := r.PathValue("name")
	if name == "" || name != filepath.Base(name) || filepath.Ext(name) != ext {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, path)
}

func (s *Server) servePlot(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, s.cfg.PlotsDir, ".pdf", "application/pdf")
}

func (s *Server) servePreview(w http.ResponseWriter, r *http.Request) {
	s.serveArtifact(w, r, s.cfg.PreviewsDir, ".png", "image/png")
}
