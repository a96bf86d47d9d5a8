package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jengzang/tableviz/internal/czml"
	"github.com/jengzang/tableviz/internal/dataset"
	"github.com/jengzang/tableviz/internal/loader"
	"github.com/jengzang/tableviz/internal/logger"
	"github.com/jengzang/tableviz/internal/models"
	"github.com/jengzang/tableviz/internal/repository"
	"github.com/jengzang/tableviz/internal/spatial"
	"github.com/jengzang/tableviz/internal/stats"
	"github.com/jengzang/tableviz/internal/viz"
)

// ErrInvalidInput marks errors caused by the request rather than the server
var ErrInvalidInput = errors.New("invalid input")

// DefaultDatasetName is used when a dataset is created without a name
const DefaultDatasetName = "Untitled dataset"

// Options configures a DatasetService
type Options struct {
	NoDataValue float64
	FontPath    string
}

// DatasetService owns the loaded table sources and keeps them in sync with
// the database
type DatasetService struct {
	repo   *repository.DatasetRepository
	loader *loader.Loader
	legend *viz.LegendRenderer
	opts   Options
	log    zerolog.Logger

	mu      sync.Mutex
	sources map[string]*sourceEntry
}

type sourceEntry struct {
	mu  sync.Mutex
	src *viz.TableSource
}

// NewDatasetService creates a new dataset service
func NewDatasetService(repo *repository.DatasetRepository, ld *loader.Loader, opts Options) *DatasetService {
	return &DatasetService{
		repo:    repo,
		loader:  ld,
		legend:  viz.NewLegendRenderer(opts.FontPath),
		opts:    opts,
		log:     logger.Get("dataset-service"),
		sources: make(map[string]*sourceEntry),
	}
}

func (s *DatasetService) newSource(id string) *viz.TableSource {
	return viz.NewTableSource(
		viz.WithParseOptions(dataset.WithNoDataValue(s.opts.NoDataValue)),
		viz.WithIDPrefix(id+"-"),
	)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// rejected marks err as caused by the request, keeping its chain
func rejected(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// Create stores a new dataset from inline CSV text or a url
func (s *DatasetService) Create(ctx context.Context, req models.CreateDatasetRequest) (*models.Dataset, error) {
	req.URL = strings.TrimSpace(req.URL)
	if (req.URL == "") == (req.Content == "") {
		return nil, invalid("exactly one of url and content is required")
	}

	id := uuid.NewString()
	src := s.newSource(id)
	if req.Style != nil {
		style, err := viz.ApplyPatch(models.DefaultStyle(), *req.Style)
		if err != nil {
			return nil, rejected(err)
		}
		if err := src.SetDisplayStyle(style); err != nil {
			return nil, rejected(err)
		}
	}

	content := req.Content
	source := models.LoadSourceUpload
	if req.URL != "" {
		source = models.LoadSourceURL
		// fetch errors keep their chain so callers can tell size and
		// deadline failures apart from unparsable text
		err := s.loader.Load(ctx, id, req.URL, func(text string) error {
			if err := src.LoadText(text); err != nil {
				return rejected(err)
			}
			content = text
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else if err := src.LoadText(content); err != nil {
		return nil, rejected(err)
	}

	styleJSON, err := viz.EncodeStyle(src.DisplayStyle())
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DefaultDatasetName
	}
	ds := &models.Dataset{
		ID:        id,
		Name:      name,
		SourceURL: req.URL,
		Content:   content,
		StyleJSON: styleJSON,
		RowCount:  src.Dataset().RowCount(),
	}
	if err := s.repo.Create(ds); err != nil {
		return nil, err
	}
	s.recordLoad(id, source, models.LoadStatusCompleted, "", ds.RowCount)

	s.mu.Lock()
	s.sources[id] = &sourceEntry{src: src}
	s.mu.Unlock()

	s.log.Info().Str("id", id).Str("name", name).Int("rows", ds.RowCount).Msg("Dataset created")
	return ds, nil
}

// Get retrieves dataset metadata and content
func (s *DatasetService) Get(id string) (*models.Dataset, error) {
	return s.repo.GetByID(id)
}

// List retrieves datasets with pagination
func (s *DatasetService) List(filter models.DatasetFilter) (*models.DatasetsResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > 200 {
		filter.PageSize = 200
	}

	datasets, total, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}
	return &models.DatasetsResponse{
		Data:       datasets,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Delete removes a dataset and discards any load in flight for it
func (s *DatasetService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.loader.Forget(id)

	s.mu.Lock()
	delete(s.sources, id)
	s.mu.Unlock()

	s.log.Info().Str("id", id).Msg("Dataset deleted")
	return nil
}

// entry returns the cached source of id, rebuilding it from the database
// on first use
func (s *DatasetService) entry(id string) (*sourceEntry, error) {
	s.mu.Lock()
	e, ok := s.sources[id]
	s.mu.Unlock()
	if ok {
		return e, nil
	}

	ds, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	style, err := viz.DecodeStyle(ds.StyleJSON)
	if err != nil {
		return nil, err
	}

	src := s.newSource(id)
	if err := src.SetDisplayStyle(style); err != nil {
		return nil, err
	}
	if ds.Content != "" {
		if err := src.LoadText(ds.Content); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sources[id]; ok {
		return existing, nil
	}
	e = &sourceEntry{src: src}
	s.sources[id] = e
	return e, nil
}

// with runs fn on the source of id while holding its lock
func (s *DatasetService) with(id string, fn func(src *viz.TableSource) error) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.src)
}

// Reload fetches the dataset url again. A reload overtaken by a newer one
// returns loader.ErrSuperseded and changes nothing. The content is stored
// inside the commit, so the database follows the same last-load-wins order
// as the live source.
func (s *DatasetService) Reload(ctx context.Context, id, source string) (*models.Dataset, error) {
	ds, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if ds.SourceURL == "" {
		return nil, invalid("dataset %s was not loaded from a url", id)
	}
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	var content string
	var rows int
	err = s.loader.Load(ctx, id, ds.SourceURL, func(text string) error {
		e.mu.Lock()
		defer e.mu.Unlock()

		prev := e.src.Dataset()
		if err := e.src.LoadText(text); err != nil {
			return rejected(err)
		}
		n := e.src.Dataset().RowCount()
		if err := s.repo.UpdateContent(id, text, n); err != nil {
			e.src.SetDataset(prev)
			return err
		}
		content, rows = text, n
		return nil
	})
	switch {
	case errors.Is(err, loader.ErrSuperseded):
		s.recordLoad(id, source, models.LoadStatusSuperseded, err.Error(), 0)
		return nil, err
	case err != nil:
		s.recordLoad(id, source, models.LoadStatusFailed, err.Error(), 0)
		return nil, fmt.Errorf("failed to reload dataset: %w", err)
	}

	s.recordLoad(id, source, models.LoadStatusCompleted, "", rows)

	ds.Content, ds.RowCount, ds.UpdatedAt = content, rows, time.Now().UTC()
	return ds, nil
}

// RefreshAll reloads every url-backed dataset, logging failures
func (s *DatasetService) RefreshAll(ctx context.Context) (int, error) {
	urls, err := s.repo.ListWithURL()
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for id := range urls {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if _, err := s.Reload(ctx, id, models.LoadSourceRefresh); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("Refresh failed")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *DatasetService) recordLoad(id, source, status, message string, rows int) {
	ev := &models.LoadEvent{DatasetID: id, Source: source, Status: status, Message: message, RowCount: rows}
	if err := s.repo.RecordLoad(ev); err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("Failed to record load event")
	}
}

// Loads returns the recent load history of a dataset
func (s *DatasetService) Loads(id string, limit int) ([]models.LoadEvent, error) {
	if _, err := s.repo.GetByID(id); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListLoads(id, limit)
}

// Style returns the display style of a dataset
func (s *DatasetService) Style(id string) (models.StyleConfig, error) {
	var style models.StyleConfig
	err := s.with(id, func(src *viz.TableSource) error {
		style = src.DisplayStyle()
		return nil
	})
	return style, err
}

// UpdateStyle applies a partial style update and persists the result
func (s *DatasetService) UpdateStyle(id string, patch models.StylePatch) (models.StyleConfig, error) {
	var style models.StyleConfig
	err := s.with(id, func(src *viz.TableSource) error {
		next, err := viz.ApplyPatch(src.DisplayStyle(), patch)
		if err != nil {
			return rejected(err)
		}
		encoded, err := viz.EncodeStyle(next)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateStyle(id, encoded); err != nil {
			return err
		}
		if err := src.SetDisplayStyle(next); err != nil {
			return rejected(err)
		}
		style = src.DisplayStyle()
		return nil
	})
	return style, err
}

// Records returns the display records of a dataset
func (s *DatasetService) Records(id string) (*models.RecordsResponse, error) {
	var resp *models.RecordsResponse
	err := s.with(id, func(src *viz.TableSource) error {
		records := src.Records()
		if records == nil {
			records = []models.DisplayRecord{}
		}
		resp = &models.RecordsResponse{
			DatasetID:    id,
			DataVariable: src.Dataset().DataVariable(),
			ColorByValue: src.ColorByValue(),
			Records:      records,
			Count:        len(records),
		}
		return nil
	})
	return resp, err
}

// CZML returns the dataset as a CZML packet list
func (s *DatasetService) CZML(id string) ([]czml.Packet, error) {
	ds, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	var packets []czml.Packet
	err = s.with(id, func(src *viz.TableSource) error {
		opts := czml.Options{Name: ds.Name, ImageURL: src.DisplayStyle().ImageURL}
		if table := src.Dataset(); table != nil && table.HasTimeData() {
			d, _ := src.Duration()
			opts.Span = &models.DisplayInterval{
				Start:  table.TimeMin(),
				Finish: table.TimeMax().Add(viz.Minutes(d)),
			}
		}
		packets = czml.Document(src.Records(), opts)
		return nil
	})
	return packets, err
}

// Legend renders the legend PNG. It returns nil for fixed-color styles.
func (s *DatasetService) Legend(id string) ([]byte, error) {
	var png []byte
	err := s.with(id, func(src *viz.TableSource) error {
		var err error
		png, err = src.Legend(s.legend)
		return err
	})
	return png, err
}

// PointsAt returns the rows visible at t
func (s *DatasetService) PointsAt(id string, t time.Time) ([]int, error) {
	var rows []int
	err := s.with(id, func(src *viz.TableSource) error {
		rows = src.PointsAt(t)
		return nil
	})
	return rows, err
}

// TimeSlice returns the slice interval enclosing t
func (s *DatasetService) TimeSlice(id string, t time.Time) (models.DisplayInterval, error) {
	var iv models.DisplayInterval
	err := s.with(id, func(src *viz.TableSource) error {
		var err error
		iv, err = src.TimeSlice(t)
		return err
	})
	return iv, err
}

// Summary computes statistics of the active variable and the spatial extent
func (s *DatasetService) Summary(id string) (*models.DatasetSummary, error) {
	var sum *models.DatasetSummary
	err := s.with(id, func(src *viz.TableSource) error {
		table := src.Dataset()
		if table == nil {
			return invalid("dataset %s has no data", id)
		}
		points := table.PointList()
		values := table.Values()
		st := stats.Summarize(values)

		sum = &models.DatasetSummary{
			DataVariable: table.DataVariable(),
			Variables:    table.DataVariableList(),
			PointCount:   len(points),
			NoDataCount:  len(points) - len(values),
			Min:          st.Min,
			Q1:           st.Q1,
			Median:       st.Median,
			Q3:           st.Q3,
			Max:          st.Max,
			Mean:         st.Mean,
			HasTime:      table.HasTimeData(),
		}
		if table.HasTimeData() {
			tmin, tmax := table.TimeMin(), table.TimeMax()
			sum.TimeMin, sum.TimeMax = &tmin, &tmax
			sum.TimeSlices = len(src.TimeSlices())
		}
		if b, ok := spatial.Extent(points); ok {
			center := spatial.Center(b)
			sum.Bounds = &b
			sum.Center = &center
			sum.ExtentMeters = spatial.HaversineDistance(b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
		}
		return nil
	})
	return sum, err
}
