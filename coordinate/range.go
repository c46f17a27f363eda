// Package coordinate handles multi-worker runs: deterministic row
// partitioning, per-worker progress files, and merging worker outputs back
// into the master workbook.
package coordinate

import "fmt"

// Assignment is one worker's slice of the dataset. Start is inclusive, End
// exclusive, both 0-based data row indexes.
type Assignment struct {
	WorkerID int
	Start    int
	End      int
}

// Rows returns the number of rows in the assignment.
func (a Assignment) Rows() int {
	return a.End - a.Start
}

// Contains reports whether a row index falls inside the assignment.
func (a Assignment) Contains(row int) bool {
	return row >= a.Start && row < a.End
}

// Partition computes the row range for one worker out of workerCount.
// Identical inputs always produce identical ranges, ranges of different
// workers never overlap, and the ranges of all workers together cover every
// row: workers can be launched independently, in any order, on any machine.
// The last worker absorbs the remainder when rows don't divide evenly.
func Partition(totalRows, workerID, workerCount int) (Assignment, error) {
	if totalRows < 0 {
		return Assignment{}, fmt.Errorf("invalid row count %d", totalRows)
	}
	if workerCount < 1 {
		return Assignment{}, fmt.Errorf("invalid worker count %d", workerCount)
	}
	if workerID < 1 || workerID > workerCount {
		return Assignment{}, fmt.Errorf("worker id %d out of range (1-%d)", workerID, workerCount)
	}

	perWorker := totalRows / workerCount
	start := (workerID - 1) * perWorker
	end := start + perWorker
	if workerID == workerCount {
		end = totalRows
	}
	return Assignment{WorkerID: workerID, Start: start, End: end}, nil
}
