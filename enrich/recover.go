package enrich

import (
	"log"
	"time"

	"github.com/ncortes/newsenrich/cache"
	"github.com/ncortes/newsenrich/dataset"
)

// RecoverStats summarizes a cache-only recovery pass.
type RecoverStats struct {
	Recovered int
	Partial   int
	Missed    int
}

// Recover fills unprocessed workbook rows purely from the cache, with no
// network traffic. Rows whose link has a cached resolution and whose direct
// URL has cached content become full results marked as recovered; rows with
// only a resolution get the direct URL and stay unprocessed otherwise. Used
// after a crash where the cache survived but workbook writes were lost.
func Recover(wb *dataset.Workbook, store *cache.Store) (RecoverStats, error) {
	var stats RecoverStats

	resolutions, err := store.Resolutions()
	if err != nil {
		return stats, err
	}

	for i := 0; i < wb.Rows(); i++ {
		existing, err := wb.Enrichment(i)
		if err != nil {
			return stats, err
		}
		if existing.Processed() {
			continue
		}

		record, err := wb.Record(i)
		if err != nil {
			return stats, err
		}

		resolution, ok := resolutions[record.Link]
		if !ok {
			stats.Missed++
			continue
		}

		enrichment := dataset.Enrichment{
			DirectURL: resolution.DirectURL,
			Method:    resolution.Method,
			Domain:    hostOf(resolution.DirectURL),
		}

		content, ok := store.LookupContent(resolution.DirectURL)
		if !ok {
			// Resolution without content: record the URL but leave the
			// row unprocessed so a later run extracts it.
			stats.Partial++
			if err := wb.SetEnrichment(i, enrichment); err != nil {
				return stats, err
			}
			continue
		}

		fillFromCache(&enrichment, content)
		enrichment.Status = dataset.StatusRecovered
		enrichment.ProcessedAt = time.Now().Format(time.RFC3339)
		if err := wb.SetEnrichment(i, enrichment); err != nil {
			return stats, err
		}
		stats.Recovered++
	}

	log.Printf("INFO: recovery: %d rows recovered, %d partial, %d not in cache",
		stats.Recovered, stats.Partial, stats.Missed)
	return stats, nil
}
