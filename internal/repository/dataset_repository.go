package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/tableviz/internal/models"
)

// ErrNotFound is returned when a dataset does not exist
var ErrNotFound = errors.New("dataset not found")

// DatasetRepository handles database operations for datasets
type DatasetRepository struct {
	db *sql.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Create inserts a new dataset. CreatedAt and UpdatedAt are set to now.
func (r *DatasetRepository) Create(ds *models.Dataset) error {
	now := time.Now().UTC()
	ds.CreatedAt, ds.UpdatedAt = now, now

	query := `
		INSERT INTO datasets (id, name, source_url, content, style_json, row_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		ds.ID,
		ds.Name,
		ds.SourceURL,
		ds.Content,
		ds.StyleJSON,
		ds.RowCount,
		ds.CreatedAt,
		ds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// GetByID retrieves a dataset including its content
func (r *DatasetRepository) GetByID(id string) (*models.Dataset, error) {
	query := `
		SELECT id, name, source_url, content, style_json, row_count, created_at, updated_at
		FROM datasets
		WHERE id = ?
	`

	ds := &models.Dataset{}
	err := r.db.QueryRow(query, id).Scan(
		&ds.ID,
		&ds.Name,
		&ds.SourceURL,
		&ds.Content,
		&ds.StyleJSON,
		&ds.RowCount,
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return ds, nil
}

// List retrieves datasets without their content, newest first
func (r *DatasetRepository) List(filter models.DatasetFilter) ([]models.Dataset, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.Name != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+filter.Name+"%")
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM datasets"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count datasets: %w", err)
	}

	query := `
		SELECT id, name, source_url, style_json, row_count, created_at, updated_at
		FROM datasets` + where + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		var ds models.Dataset
		if err := rows.Scan(
			&ds.ID,
			&ds.Name,
			&ds.SourceURL,
			&ds.StyleJSON,
			&ds.RowCount,
			&ds.CreatedAt,
			&ds.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate datasets: %w", err)
	}

	return datasets, total, nil
}

// ListWithURL returns the ids and urls of datasets loaded from a url
func (r *DatasetRepository) ListWithURL() (map[string]string, error) {
	rows, err := r.db.Query("SELECT id, source_url FROM datasets WHERE source_url != ''")
	if err != nil {
		return nil, fmt.Errorf("failed to list url datasets: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]string)
	for rows.Next() {
		var id, url string
		if err := rows.Scan(&id, &url); err != nil {
			return nil, fmt.Errorf("failed to scan url dataset: %w", err)
		}
		urls[id] = url
	}
	return urls, rows.Err()
}

// UpdateContent replaces the stored table text
func (r *DatasetRepository) UpdateContent(id, content string, rowCount int) error {
	query := `
		UPDATE datasets
		SET content = ?, row_count = ?, updated_at = ?
		WHERE id = ?
	`
	return r.update(query, content, rowCount, time.Now().UTC(), id)
}

// UpdateStyle replaces the stored style
func (r *DatasetRepository) UpdateStyle(id, styleJSON string) error {
	query := `
		UPDATE datasets
		SET style_json = ?, updated_at = ?
		WHERE id = ?
	`
	return r.update(query, styleJSON, time.Now().UTC(), id)
}

func (r *DatasetRepository) update(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a dataset and its load history
func (r *DatasetRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM load_events WHERE dataset_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete load events: %w", err)
	}
	result, err := tx.Exec("DELETE FROM datasets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// RecordLoad appends a load event
func (r *DatasetRepository) RecordLoad(ev *models.LoadEvent) error {
	ev.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO load_events (dataset_id, source, status, message, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(query, ev.DatasetID, ev.Source, ev.Status, ev.Message, ev.RowCount, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record load event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	ev.ID = id
	return nil
}

// ListLoads returns the most recent load events of a dataset, newest first
func (r *DatasetRepository) ListLoads(datasetID string, limit int) ([]models.LoadEvent, error) {
	query := `
		SELECT id, dataset_id, source, status, message, row_count, created_at
		FROM load_events
		WHERE dataset_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list load events: %w", err)
	}
	defer rows.Close()

	events := []models.LoadEvent{}
	for rows.Next() {
		var ev models.LoadEvent
		if err := rows.Scan(&ev.ID, &ev.DatasetID, &ev.Source, &ev.Status, &ev.Message, &ev.RowCount, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan load event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
