package enrich

import "github.com/ncortes/newsenrich/dataset"

// Report is a snapshot of a workbook's enrichment state.
type Report struct {
	Rows      int
	Pending   int
	ByStatus  map[string]int
	ByMethod  map[string]int
	TotalWord int
}

// Summarize scans the enriched sheet and tallies statuses, resolution
// methods and word counts. Backs the stats command.
func Summarize(wb *dataset.Workbook) (Report, error) {
	report := Report{
		Rows:     wb.Rows(),
		ByStatus: make(map[string]int),
		ByMethod: make(map[string]int),
	}

	for i := 0; i < wb.Rows(); i++ {
		e, err := wb.Enrichment(i)
		if err != nil {
			return report, err
		}
		if !e.Processed() {
			report.Pending++
			continue
		}
		report.ByStatus[e.Status]++
		if e.Method != "" {
			report.ByMethod[e.Method]++
		}
		report.TotalWord += e.Words
	}
	return report, nil
}
