package coordinate

import (
	"fmt"
	"log"
	"os"

	"github.com/ncortes/newsenrich/dataset"
)

// MergeReport summarizes a merge of worker outputs into the master workbook.
type MergeReport struct {
	WorkersMerged  int
	RowsMerged     int
	Conflicts      int
	MissingWorkers []int
}

// Merge folds the partial outputs of workers 1..workerCount from dir into
// the master workbook. Workers are applied in ascending id order and a row
// already processed in the master is never overwritten; a worker result for
// such a row counts as a conflict instead. The caller saves the master.
func Merge(master *dataset.Workbook, dir, inputSheet, outputSheet string, workerCount int) (MergeReport, error) {
	var report MergeReport

	for workerID := 1; workerID <= workerCount; workerID++ {
		path := WorkerOutputPath(dir, workerID)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Printf("WARN: no output for worker %d, skipping", workerID)
			report.MissingWorkers = append(report.MissingWorkers, workerID)
			continue
		}

		merged, conflicts, err := mergeWorker(master, path, inputSheet, outputSheet)
		if err != nil {
			return report, fmt.Errorf("failed to merge worker %d: %w", workerID, err)
		}

		log.Printf("INFO: merged worker %d: %d rows, %d conflicts", workerID, merged, conflicts)
		report.WorkersMerged++
		report.RowsMerged += merged
		report.Conflicts += conflicts
	}

	return report, nil
}

func mergeWorker(master *dataset.Workbook, path, inputSheet, outputSheet string) (merged, conflicts int, err error) {
	worker, err := dataset.Open(path, inputSheet, outputSheet)
	if err != nil {
		return 0, 0, err
	}
	defer worker.Close()

	rows := worker.Rows()
	if master.Rows() < rows {
		rows = master.Rows()
	}

	for i := 0; i < rows; i++ {
		from, err := worker.Enrichment(i)
		if err != nil {
			return merged, conflicts, err
		}
		if !from.Processed() {
			continue
		}

		existing, err := master.Enrichment(i)
		if err != nil {
			return merged, conflicts, err
		}
		if existing.Processed() {
			conflicts++
			continue
		}

		if err := master.SetEnrichment(i, from); err != nil {
			return merged, conflicts, err
		}
		merged++
	}
	return merged, conflicts, nil
}
