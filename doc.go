// Package autoprice generates printable price lists: it fills a DOCX
// template with product rows, converts each filled document to PDF, and
// merges the pages into one file.
//
// # Quick Start
//
// Detect the conversion tools, build a service and a pipeline, then run a job:
//
//	svc, err := autoprice.NewConversionService(autoprice.NewRegistry(autoprice.DetectOptions{}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//
//	report, err := autoprice.NewPipeline(svc).Run(ctx, autoprice.BatchJob{
//	    Format:       autoprice.FormatPaired,
//	    SourcePath:   "A5-AUTO.xlsx",
//	    Rows:         rows,
//	    TemplatePath: "A5-AUTO.docx",
//	    OutputDir:    "In_PDF",
//	})
//
// The report lists every row, document and file that failed without
// stopping the run. err is set only when the run could not produce its
// output.
//
// # Conversion Tools
//
// Three tools are detected, in priority order:
//
//  1. native: pure Go text layout (gofpdf), always available
//  2. chrome: headless Chrome through go-rod, when a browser is installed
//  3. libreoffice: soffice in a subprocess, when LibreOffice is found
//
// The active tool converts each document; when it fails, every other
// available tool is tried once, by priority, before the document is
// reported as failed.
//
// # Run Stages
//
// A run moves through validating, rendering, converting, merging and
// cleaning up. Intermediate files live in the output directory and are
// removed after a successful merge; a failed merge leaves them in place.
package autoprice
