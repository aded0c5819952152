package autoprice

import (
	"context"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/alnah/go-autoprice/internal/docx"
	"github.com/alnah/go-autoprice/internal/fileutil"
)

// Layout of the in-process writer, in points.
const (
	nativeMargin     = 28
	nativeFontSize   = 12
	nativeLineHeight = 16
)

// nativeConverter lays the document text out with gofpdf. Without a TTF font
// it falls back to the core Helvetica font, which cannot show every
// Vietnamese glyph.
type nativeConverter struct {
	fontPath string
}

var _ ConverterPort = (*nativeConverter)(nil)

func newNativeConverter(fontPath string) *nativeConverter {
	return &nativeConverter{fontPath: fontPath}
}

func (c *nativeConverter) Available() bool { return true }

func (c *nativeConverter) Close() error { return nil }

// ToPDF writes <source without extension>.pdf next to the source.
func (c *nativeConverter) ToPDF(ctx context.Context, sourcePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := docx.Read(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: native: %v", ErrToolFailed, err)
	}

	out := fileutil.ReplaceExt(sourcePath, ".pdf")
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: doc.PageWidth, Ht: doc.PageHeight},
	})
	pdf.SetMargins(nativeMargin, nativeMargin, nativeMargin)
	pdf.SetAutoPageBreak(true, nativeMargin)

	translate := func(s string) string { return s }
	if c.fontPath != "" {
		pdf.AddUTF8Font("body", "", c.fontPath)
		pdf.SetFont("body", "", nativeFontSize)
	} else {
		pdf.SetFont("Helvetica", "", nativeFontSize)
		translate = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddPage()
	for _, p := range doc.Paragraphs {
		pdf.MultiCell(0, nativeLineHeight, translate(p), "", "L", false)
	}

	if err := pdf.OutputFileAndClose(out); err != nil {
		_ = os.Remove(out)
		return "", fmt.Errorf("%w: native: %v", ErrToolFailed, err)
	}
	if !fileutil.FileExists(out) {
		return "", fmt.Errorf("%w: %s", ErrOutputMissing, out)
	}
	return out, nil
}
