// Package enrich drives the row-by-row enrichment loop: resolve the
// obfuscated link, extract the article content, and write the result columns
// back into the workbook, checkpointing along the way.
package enrich

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/ncortes/newsenrich/cache"
	"github.com/ncortes/newsenrich/coordinate"
	"github.com/ncortes/newsenrich/dataset"
	"github.com/ncortes/newsenrich/extract"
	"github.com/ncortes/newsenrich/resolver"
)

// Error_Tipo values recorded alongside a non-success status.
const (
	ErrEmptyLink   = "enlace_vacio"
	ErrResolution  = "resolucion_fallida"
	ErrThinContent = "contenido_insuficiente"
	ErrNetwork     = "error_red"
)

// RunStats accumulates counters over one run.
type RunStats struct {
	Processed  int
	Succeeded  int
	Unresolved int
	NoContent  int
	Skipped    int
	FromCache  int
	Started    time.Time
}

// Runner executes the enrichment loop over a row range of one workbook.
type Runner struct {
	Workbook  *dataset.Workbook
	Cache     *cache.Store
	Resolver  *resolver.Resolver
	Extractor *extract.Extractor

	// SaveFrequency is how many processed rows between checkpoints. Zero
	// disables intermediate saves; the final save always happens.
	SaveFrequency int

	// OutputPath, when set, makes checkpoints write to a separate file
	// instead of saving the workbook in place. Workers use this to keep
	// per-worker partial outputs.
	OutputPath string

	// Progress and WorkDir, when set, persist a checkpoint file next to
	// each save so an interrupted worker can be diagnosed and resumed.
	Progress *coordinate.Progress
	WorkDir  string
}

// Run processes rows [start, end), skipping rows that already carry a
// status. It checkpoints every SaveFrequency rows and once at the end, and
// returns the stats either way; a context cancellation saves what has been
// done before returning.
func (r *Runner) Run(ctx context.Context, start, end int) (RunStats, error) {
	stats := RunStats{Started: time.Now()}

	if end > r.Workbook.Rows() {
		end = r.Workbook.Rows()
	}
	if start < 0 {
		start = 0
	}

	log.Printf("INFO: processing rows %d-%d of %s", start, end, r.Workbook.Path())

	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			if saveErr := r.checkpoint(); saveErr != nil {
				log.Printf("ERROR: checkpoint on cancel failed: %v", saveErr)
			}
			r.logSummary(stats)
			return stats, err
		}

		existing, err := r.Workbook.Enrichment(i)
		if err != nil {
			return stats, err
		}
		if existing.Processed() {
			stats.Skipped++
			continue
		}

		record, err := r.Workbook.Record(i)
		if err != nil {
			return stats, err
		}

		enrichment := r.processRow(ctx, record, &stats)
		enrichment.ProcessedAt = time.Now().Format(time.RFC3339)
		if err := r.Workbook.SetEnrichment(i, enrichment); err != nil {
			return stats, err
		}
		stats.Processed++

		if r.Progress != nil {
			r.Progress.LastRow = i
			r.Progress.RowsProcessed++
		}
		if r.SaveFrequency > 0 && stats.Processed%r.SaveFrequency == 0 {
			if err := r.checkpoint(); err != nil {
				return stats, err
			}
			log.Printf("INFO: checkpoint at row %d (%d processed)", i, stats.Processed)
		}
	}

	if err := r.checkpoint(); err != nil {
		return stats, err
	}
	r.logSummary(stats)
	return stats, nil
}

// processRow enriches a single record. Failures are encoded in the returned
// enrichment, never as an error: a bad row must not stop the run.
func (r *Runner) processRow(ctx context.Context, record dataset.NewsRecord, stats *RunStats) dataset.Enrichment {
	if record.Link == "" {
		stats.Unresolved++
		return dataset.Enrichment{Status: dataset.StatusUnresolved, ErrorType: ErrEmptyLink}
	}

	resolution, err := r.Resolver.Resolve(ctx, record.Link)
	if err != nil {
		stats.Unresolved++
		return dataset.Enrichment{Status: dataset.StatusUnresolved, ErrorType: ErrResolution}
	}
	if resolution.FromCache {
		stats.FromCache++
	}

	enrichment := dataset.Enrichment{
		DirectURL: resolution.URL,
		Method:    resolution.Method,
		Domain:    hostOf(resolution.URL),
	}

	if content, ok := r.Cache.LookupContent(resolution.URL); ok {
		stats.FromCache++
		stats.Succeeded++
		fillFromCache(&enrichment, content)
		enrichment.Status = dataset.StatusSuccess
		return enrichment
	}

	article, err := r.Extractor.Extract(ctx, resolution.URL)
	enrichment.HTTPStatus = article.HTTPStatus
	switch {
	case errors.Is(err, extract.ErrNoContent):
		stats.NoContent++
		enrichment.Status = dataset.StatusNoContent
		enrichment.ErrorType = ErrThinContent
		return enrichment
	case err != nil:
		stats.NoContent++
		enrichment.Status = dataset.StatusNoContent
		enrichment.ErrorType = networkErrorType(article.HTTPStatus)
		return enrichment
	}

	stats.Succeeded++
	enrichment.Title = article.Title
	enrichment.DateISO = article.DateISO
	enrichment.Content = article.Content
	enrichment.Description = article.Description
	enrichment.Author = article.Author
	enrichment.Words = article.Words
	enrichment.ContentHash = ContentHash(article.Content)
	enrichment.Status = dataset.StatusSuccess

	if err := r.Cache.PutContent(resolution.URL, cache.Content{
		Title:       article.Title,
		Body:        article.Content,
		DateISO:     article.DateISO,
		Author:      article.Author,
		Description: article.Description,
		Words:       article.Words,
		HTTPStatus:  article.HTTPStatus,
		Method:      article.Method,
		ContentHash: enrichment.ContentHash,
	}); err != nil {
		log.Printf("WARN: failed to cache content for %s: %v", resolution.URL, err)
	}

	return enrichment
}

func (r *Runner) checkpoint() error {
	var err error
	if r.OutputPath != "" {
		err = r.Workbook.SaveAs(r.OutputPath)
	} else {
		err = r.Workbook.Save()
	}
	if err != nil {
		return err
	}

	if r.Progress != nil && r.WorkDir != "" {
		if err := r.Progress.Save(r.WorkDir); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) logSummary(stats RunStats) {
	elapsed := time.Since(stats.Started).Round(time.Second)
	log.Printf("INFO: done in %s: %d processed, %d ok, %d unresolved, %d no content, %d skipped, %d from cache",
		elapsed, stats.Processed, stats.Succeeded, stats.Unresolved, stats.NoContent, stats.Skipped, stats.FromCache)
}

// ContentHash fingerprints article text for cross-run deduplication.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func fillFromCache(e *dataset.Enrichment, c cache.Content) {
	e.Title = c.Title
	e.Content = c.Body
	e.DateISO = c.DateISO
	e.Author = c.Author
	e.Description = c.Description
	e.Words = c.Words
	e.HTTPStatus = c.HTTPStatus
	e.ContentHash = c.ContentHash
}

func networkErrorType(status int) string {
	if status > 0 {
		return fmt.Sprintf("http_%d", status)
	}
	return ErrNetwork
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
