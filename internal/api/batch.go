package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"exoscan/internal/ensemble"
	"exoscan/internal/storage"
)

// maxUploadBytes caps batch CSV uploads at 50 MiB.
const maxUploadBytes = 50 << 20

var requiredColumns = []string{"koi_period", "koi_depth", "koi_duration"}

// batchResponse is the dashboard-facing shape of a batch run.
type batchResponse struct {
	TotalProcessed int                   `json:"total_processed"`
	Successful     int                   `json:"successful_predictions"`
	Failed         int                   `json:"failed_predictions"`
	Results        []batchRow            `json:"results"`
	Summary        ensemble.BatchSummary `json:"summary"`
}

// batchRow flattens one outcome for the results table.
type batchRow struct {
	Row int `json:"row"`
	ensemble.Prediction
}

// handleBatchPredict accepts a CSV upload (multipart field "file") with one
// observation per row and returns one result per row, in row order.
func (s *Server) handleBatchPredict(w http.ResponseWriter, r *http.Request) {
	s.metrics.RequestsTotal.Inc()
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		s.writeError(w, http.StatusBadRequest, "only CSV files are supported")
		return
	}

	rows, err := parseObservationsCSV(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(rows) > s.maxRows {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("batch of %d rows exceeds limit of %d", len(rows), s.maxRows))
		return
	}

	log.Info().Str("file", header.Filename).Int("rows", len(rows)).Msg("processing batch upload")

	outcomes := s.engine.PredictBatch(r.Context(), rows)
	summary := ensemble.Summarize(outcomes)

	results := make([]batchRow, len(outcomes))
	for i, o := range outcomes {
		results[i] = batchRow{Row: i + 1, Prediction: o.Record()}
	}

	s.metrics.BatchRows.Add(float64(len(rows)))
	s.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	if s.archive != nil {
		rec := storage.BatchRecord{
			Ts:       time.Now(),
			Source:   "api",
			Duration: time.Since(start),
			Summary:  summary,
		}
		if err := s.archive.StoreBatch(rec); err != nil {
			log.Warn().Err(err).Msg("failed to archive batch record")
		}
	}

	s.writeJSON(w, http.StatusOK, batchResponse{
		TotalProcessed: summary.Total,
		Successful:     summary.Successful,
		Failed:         summary.Failed,
		Results:        results,
		Summary:        summary,
	})
}

// parseObservationsCSV reads a headered CSV into observations. Unparseable
// or empty cells are simply absent from the row's map; the engine's defaults
// cover them. Missing required columns reject the whole file since that is a
// schema problem, not a data problem.
func parseObservationsCSV(f multipart.File) ([]ensemble.Observation, error) {
	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("unreadable CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var rows []ensemble.Observation
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rows)+2, err)
		}
		obs := make(ensemble.Observation, len(header))
		for i, cell := range record {
			if i >= len(header) || cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
				obs[header[i]] = v
			}
		}
		rows = append(rows, obs)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV contains no data rows")
	}
	return rows, nil
}
