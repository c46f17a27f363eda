package coordinate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Progress is a worker's checkpoint, written alongside its partial output
// after every save. A crashed worker resumes from LastRow + 1.
type Progress struct {
	WorkerID      int       `json:"worker_id"`
	RunID         string    `json:"run_id"`
	StartRow      int       `json:"start_row"`
	EndRow        int       `json:"end_row"`
	LastRow       int       `json:"last_row"`
	RowsProcessed int       `json:"rows_processed"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewProgress creates a fresh checkpoint for an assignment. LastRow starts
// one before the range so that LastRow+1 is the first row to process.
func NewProgress(a Assignment) *Progress {
	return &Progress{
		WorkerID: a.WorkerID,
		RunID:    uuid.New().String(),
		StartRow: a.Start,
		EndRow:   a.End,
		LastRow:  a.Start - 1,
	}
}

// ProgressPath returns the checkpoint file path for a worker.
func ProgressPath(dir string, workerID int) string {
	return filepath.Join(dir, fmt.Sprintf("progreso_worker_%d.json", workerID))
}

// WorkerOutputPath returns the partial workbook path for a worker.
func WorkerOutputPath(dir string, workerID int) string {
	return filepath.Join(dir, fmt.Sprintf("resultado_worker_%d.xlsx", workerID))
}

// Save writes the checkpoint to its well-known path in dir.
func (p *Progress) Save(dir string) error {
	p.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := os.WriteFile(ProgressPath(dir, p.WorkerID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}

// LoadProgress reads a worker's checkpoint. A missing file is not an error:
// it returns (nil, nil), meaning the worker has not started.
func LoadProgress(dir string, workerID int) (*Progress, error) {
	data, err := os.ReadFile(ProgressPath(dir, workerID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse progress file: %w", err)
	}
	return &p, nil
}

// LoadAllProgress reads every checkpoint present in dir, keyed by worker id.
func LoadAllProgress(dir string) (map[int]*Progress, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "progreso_worker_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list progress files: %w", err)
	}

	all := make(map[int]*Progress, len(matches))
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", match, err)
		}
		var p Progress
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", match, err)
		}
		all[p.WorkerID] = &p
	}
	return all, nil
}
