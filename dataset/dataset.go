// Package dataset reads and writes the spreadsheet that holds scraped news
// records and their enrichment columns. The workbook is the single source of
// truth for a run: one sheet holds the raw scraped rows, a second sheet holds
// the same rows plus the columns appended by the enrichment pipeline.
package dataset

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Default sheet names, matching the workbooks produced by the scraping stage.
const (
	DefaultInputSheet  = "Datos"
	DefaultOutputSheet = "Datos_enriquecidos"
)

// Processing status values recorded in the Estado_Procesamiento column.
const (
	StatusSuccess    = "exitoso"
	StatusNoContent  = "sin_contenido"
	StatusUnresolved = "url_no_resuelta"
	StatusRecovered  = "recuperado_cache"
)

// EnrichmentColumns lists the columns appended to the enriched sheet, in
// order. Column names are kept identical to the upstream workbooks so the
// classification stage can consume either.
var EnrichmentColumns = []string{
	"URL_Directa",
	"Metodo_Resolucion",
	"Titulo_Extraido",
	"Fecha_Extraida_ISO",
	"Contenido_Completo",
	"Descripcion_Breve",
	"Autor",
	"Palabras",
	"HTTP_Status",
	"Estado_Procesamiento",
	"Error_Tipo",
	"Fecha_Procesamiento",
	"Hash_Contenido",
	"Fuente_Dominio",
}

// NewsRecord is one scraped article row from the input sheet.
type NewsRecord struct {
	ID          int    // id_noticia, sequential from 1
	Title       string // titulo
	Description string // descripcion
	Outlet      string // fuente
	ScrapedAt   string // fecha_scraping
	Link        string // enlace (obfuscated aggregator URL)
	Query       string // query_original
	Period      string // periodo_scraping
	Hash        string // content_hash
	Row         int    // 0-based data row index within the sheet
}

// Enrichment holds the values written back into the enriched sheet for one
// row. A zero Enrichment means the row has not been processed.
type Enrichment struct {
	DirectURL   string
	Method      string
	Title       string
	DateISO     string
	Content     string
	Description string
	Author      string
	Words       int
	HTTPStatus  int
	Status      string
	ErrorType   string
	ProcessedAt string
	ContentHash string
	Domain      string
}

// Processed reports whether this row carries any enrichment result. A row is
// processed once it has a status, even if resolution failed.
func (e Enrichment) Processed() bool {
	return e.Status != ""
}

// Workbook wraps an open .xlsx dataset.
type Workbook struct {
	path        string
	file        *excelize.File
	inputSheet  string
	outputSheet string
	inputCols   map[string]int // header name -> 0-based column index
	outputCols  map[string]int
	inputRows   [][]string // data rows only (header excluded)
	rowCount    int
}

// Open loads a workbook and prepares the enriched sheet. If the output sheet
// does not exist it is created from the input sheet with the enrichment
// columns appended; if it exists but lacks some enrichment columns, the
// missing headers are added.
func Open(path, inputSheet, outputSheet string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	if inputSheet == "" {
		inputSheet = DefaultInputSheet
	}
	if outputSheet == "" {
		outputSheet = DefaultOutputSheet
	}

	rows, err := f.GetRows(inputSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %w", inputSheet, err)
	}
	if len(rows) == 0 {
		f.Close()
		return nil, fmt.Errorf("sheet %q has no header row", inputSheet)
	}

	wb := &Workbook{
		path:        path,
		file:        f,
		inputSheet:  inputSheet,
		outputSheet: outputSheet,
		inputCols:   headerIndex(rows[0]),
		inputRows:   rows[1:],
		rowCount:    len(rows) - 1,
	}

	if err := wb.ensureOutputSheet(); err != nil {
		f.Close()
		return nil, err
	}

	return wb, nil
}

// ensureOutputSheet creates or completes the enriched sheet so every input
// row has a counterpart and every enrichment column has a header.
func (w *Workbook) ensureOutputSheet() error {
	idx, err := w.file.GetSheetIndex(w.outputSheet)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %q: %w", w.outputSheet, err)
	}

	if idx < 0 {
		if _, err := w.file.NewSheet(w.outputSheet); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", w.outputSheet, err)
		}

		// Copy the input header and rows, then append enrichment headers.
		inputRows, err := w.file.GetRows(w.inputSheet)
		if err != nil {
			return fmt.Errorf("failed to re-read sheet %q: %w", w.inputSheet, err)
		}
		for r, row := range inputRows {
			for c, value := range row {
				if err := w.setCell(w.outputSheet, c, r, value); err != nil {
					return err
				}
			}
		}
		base := len(inputRows[0])
		for i, name := range EnrichmentColumns {
			if err := w.setCell(w.outputSheet, base+i, 0, name); err != nil {
				return err
			}
		}
	}

	outRows, err := w.file.GetRows(w.outputSheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %q: %w", w.outputSheet, err)
	}
	if len(outRows) == 0 {
		return fmt.Errorf("sheet %q has no header row", w.outputSheet)
	}

	header := outRows[0]
	w.outputCols = headerIndex(header)

	// Append any enrichment columns missing from an existing sheet.
	next := len(header)
	for _, name := range EnrichmentColumns {
		if _, ok := w.outputCols[name]; ok {
			continue
		}
		if err := w.setCell(w.outputSheet, next, 0, name); err != nil {
			return err
		}
		w.outputCols[name] = next
		next++
	}

	return nil
}

// Rows returns the number of data rows in the input sheet.
func (w *Workbook) Rows() int {
	return w.rowCount
}

// Path returns the workbook's file path.
func (w *Workbook) Path() string {
	return w.path
}

// Record returns the input row at the given 0-based data row index.
func (w *Workbook) Record(i int) (NewsRecord, error) {
	if i < 0 || i >= w.rowCount {
		return NewsRecord{}, fmt.Errorf("row %d out of range (0-%d)", i, w.rowCount-1)
	}

	row := w.inputRows[i]
	rec := NewsRecord{
		Title:       w.inputCell(row, "titulo"),
		Description: w.inputCell(row, "descripcion"),
		Outlet:      w.inputCell(row, "fuente"),
		ScrapedAt:   w.inputCell(row, "fecha_scraping"),
		Link:        w.inputCell(row, "enlace"),
		Query:       w.inputCell(row, "query_original"),
		Period:      w.inputCell(row, "periodo_scraping"),
		Hash:        w.inputCell(row, "content_hash"),
		Row:         i,
	}
	if id, err := strconv.Atoi(w.inputCell(row, "id_noticia")); err == nil {
		rec.ID = id
	}
	return rec, nil
}

// Enrichment reads the enrichment values already present for a row. Used for
// resume (skip processed rows) and by the merge and recover commands.
func (w *Workbook) Enrichment(i int) (Enrichment, error) {
	if i < 0 || i >= w.rowCount {
		return Enrichment{}, fmt.Errorf("row %d out of range (0-%d)", i, w.rowCount-1)
	}

	get := func(name string) string {
		col, ok := w.outputCols[name]
		if !ok {
			return ""
		}
		cell, err := excelize.CoordinatesToCellName(col+1, i+2)
		if err != nil {
			return ""
		}
		value, err := w.file.GetCellValue(w.outputSheet, cell)
		if err != nil {
			return ""
		}
		return value
	}

	e := Enrichment{
		DirectURL:   get("URL_Directa"),
		Method:      get("Metodo_Resolucion"),
		Title:       get("Titulo_Extraido"),
		DateISO:     get("Fecha_Extraida_ISO"),
		Content:     get("Contenido_Completo"),
		Description: get("Descripcion_Breve"),
		Author:      get("Autor"),
		Status:      get("Estado_Procesamiento"),
		ErrorType:   get("Error_Tipo"),
		ProcessedAt: get("Fecha_Procesamiento"),
		ContentHash: get("Hash_Contenido"),
		Domain:      get("Fuente_Dominio"),
	}
	if n, err := strconv.Atoi(get("Palabras")); err == nil {
		e.Words = n
	}
	if n, err := strconv.Atoi(get("HTTP_Status")); err == nil {
		e.HTTPStatus = n
	}
	return e, nil
}

// SetEnrichment writes the enrichment values for a row into the enriched
// sheet. The workbook is not persisted until Save is called.
func (w *Workbook) SetEnrichment(i int, e Enrichment) error {
	if i < 0 || i >= w.rowCount {
		return fmt.Errorf("row %d out of range (0-%d)", i, w.rowCount-1)
	}

	values := map[string]any{
		"URL_Directa":          e.DirectURL,
		"Metodo_Resolucion":    e.Method,
		"Titulo_Extraido":      e.Title,
		"Fecha_Extraida_ISO":   e.DateISO,
		"Contenido_Completo":   e.Content,
		"Descripcion_Breve":    e.Description,
		"Autor":                e.Author,
		"Palabras":             e.Words,
		"HTTP_Status":          e.HTTPStatus,
		"Estado_Procesamiento": e.Status,
		"Error_Tipo":           e.ErrorType,
		"Fecha_Procesamiento":  e.ProcessedAt,
		"Hash_Contenido":       e.ContentHash,
		"Fuente_Dominio":       e.Domain,
	}

	for name, value := range values {
		col, ok := w.outputCols[name]
		if !ok {
			return fmt.Errorf("enriched sheet missing column %q", name)
		}
		if err := w.setCell(w.outputSheet, col, i+1, value); err != nil {
			return err
		}
	}
	return nil
}

// Save persists the workbook to its original path.
func (w *Workbook) Save() error {
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to a different path, leaving the original file
// untouched. Used by workers that keep per-worker output files.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook as %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Backup copies the workbook file next to itself with a timestamp suffix and
// returns the backup path. Called once before a run's first write.
func Backup(path string) (string, error) {
	stamp := time.Now().Format("20060102_150405")
	backupPath := strings.TrimSuffix(path, ".xlsx") + "_backup_" + stamp + ".xlsx"

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy workbook: %w", err)
	}
	return backupPath, nil
}

// inputCell returns the value of a named input column for a row, or "" if the
// column is absent or the row is short (trailing empty cells are truncated by
// the reader).
func (w *Workbook) inputCell(row []string, name string) string {
	col, ok := w.inputCols[name]
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func (w *Workbook) setCell(sheet string, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	if err := w.file.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}
