package core

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/ofertas/internal/logging"
	"github.com/JonMunkholm/ofertas/internal/tabular"
)

// DefaultDecodeWorkers is the number of files decoded in parallel per run
// when no worker count is given.
const DefaultDecodeWorkers = 4

// ProcessFiles runs the offer pipeline over files: each file is decoded and
// joined against ref, then results are concatenated in file order.
//
// With no files or an empty priceColumn nothing runs and the result has
// Ran set to false. A file that fails to decode is reported in its
// FileReport and contributes no offers. The only error returned is ctx's.
func ProcessFiles(ctx context.Context, files []UploadedFile, priceColumn string, ref *ReferenceIndex, workers int) (ProcessResult, error) {
	if len(files) == 0 || priceColumn == "" {
		return ProcessResult{PriceColumn: priceColumn}, nil
	}
	if workers <= 0 {
		workers = DefaultDecodeWorkers
	}

	start := time.Now()
	offers := make([][]OfferRecord, len(files))
	reports := make([]FileReport, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			offers[i], reports[i] = processFile(gctx, f, priceColumn, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ProcessResult{}, err
	}

	total := 0
	for _, o := range offers {
		total += len(o)
	}
	merged := make([]OfferRecord, 0, total)
	for _, o := range offers {
		merged = append(merged, o...)
	}

	return ProcessResult{
		Ran:         true,
		PriceColumn: priceColumn,
		Offers:      merged,
		Files:       reports,
		Duration:    time.Since(start),
	}, nil
}

// processFile decodes and joins a single file.
func processFile(ctx context.Context, f UploadedFile, priceColumn string, ref *ReferenceIndex) ([]OfferRecord, FileReport) {
	report := FileReport{Name: f.Name}
	log := logging.WithFields(ctx, "file", f.Name)

	wb, err := tabular.Decode(f.Data, tabular.Options{FileName: f.Name})
	if err != nil {
		report.Format = tabular.DetectFormat(f.Name, f.Data).String()
		report.Error = err.Error()
		log.Warn("offer file skipped", "error", err)
		return nil, report
	}
	report.Format = wb.Format.String()
	report.Warnings = wb.Warnings
	for _, w := range wb.Warnings {
		log.Warn("sheet skipped", "reason", w)
	}

	offers, stats := JoinSheets(wb.Sheets, priceColumn, ref)
	report.Sheets = stats
	for _, st := range stats {
		if st.Skipped {
			report.SheetsSkipped++
		}
		report.Offers += st.Offers
		report.Matched += st.Matched
	}

	log.Debug("offer file joined",
		"format", report.Format,
		"sheets", len(stats),
		"sheets_skipped", report.SheetsSkipped,
		"offers", report.Offers,
		"matched", report.Matched,
	)
	return offers, report
}
