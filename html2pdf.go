package autoprice

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-autoprice/internal/docx"
	"github.com/alnah/go-autoprice/internal/fileutil"
)

// pdfRenderer abstracts PDF rendering from an HTML file to enable testing without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, page pageSize) ([]byte, error)
	Close() error
}

// Compile-time interface checks
var (
	_ ConverterPort = (*chromeConverter)(nil)
	_ pdfRenderer   = (*rodRenderer)(nil)
)

// pageSize is a paper size in points.
type pageSize struct {
	Width, Height float64
}

const pointsPerInch = 72

// rodRenderer implements pdfRenderer using go-rod with a browser found
// during detection. It never downloads a browser.
type rodRenderer struct {
	bin     string
	browser *rod.Browser
	timeout time.Duration
}

func newRodRenderer(bin string, timeout time.Duration) *rodRenderer {
	return &rodRenderer{bin: bin, timeout: timeout}
}

// ensureBrowser lazily launches and connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New().Bin(r.bin).Leakless(false)

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// RenderFromFile opens a local HTML file in headless Chrome and prints it.
func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, size pageSize) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
		if timeout <= 0 {
			return nil, ErrConversionTimeout
		}
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(timeout)
	if err := page.WaitLoad(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", ErrConversionTimeout, timeout)
		}
		return nil, fmt.Errorf("%w: loading page: %v", ErrPDFGeneration, err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(size.Width / pointsPerInch),
		PaperHeight:       floatPtr(size.Height / pointsPerInch),
		MarginTop:         floatPtr(0),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(0),
		MarginRight:       floatPtr(0),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: after %v", ErrConversionTimeout, timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// chromeConverter prints the document's text through headless Chrome.
type chromeConverter struct {
	bin      string
	renderer pdfRenderer
}

func newChromeConverter(bin string, timeout time.Duration) *chromeConverter {
	return &chromeConverter{bin: bin, renderer: newRodRenderer(bin, timeout)}
}

func (c *chromeConverter) Available() bool {
	return fileutil.FileExists(c.bin)
}

// ToPDF writes <source without extension>.pdf next to the source.
func (c *chromeConverter) ToPDF(ctx context.Context, sourcePath string) (string, error) {
	doc, err := docx.Read(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: chrome: %v", ErrToolFailed, err)
	}

	tmp, err := os.CreateTemp("", "autoprice-*.html")
	if err != nil {
		return "", fmt.Errorf("%w: chrome: creating temp file: %v", ErrToolFailed, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	_, werr := tmp.WriteString(buildHTML(doc))
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", fmt.Errorf("%w: chrome: writing temp file: %v", ErrToolFailed, werr)
	}

	data, err := c.renderer.RenderFromFile(ctx, tmpPath, pageSize{Width: doc.PageWidth, Height: doc.PageHeight})
	if err != nil {
		return "", err
	}

	out := fileutil.ReplaceExt(sourcePath, ".pdf")
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: chrome: writing %s: %v", ErrToolFailed, out, err)
	}
	return out, nil
}

// Close releases browser resources.
func (c *chromeConverter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// defaultFontFamily covers Vietnamese diacritics on common systems.
const defaultFontFamily = `"Noto Sans", "DejaVu Sans", Arial, sans-serif`

// buildHTML renders document paragraphs as a standalone HTML page sized to
// the document's page. Empty paragraphs keep their vertical space.
func buildHTML(doc *docx.Document) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"vi\"><head><meta charset=\"utf-8\">\n<style>\n")
	fmt.Fprintf(&b, "@page { size: %.2fpt %.2fpt; margin: %dpt; }\n", doc.PageWidth, doc.PageHeight, nativeMargin)
	fmt.Fprintf(&b, "body { font-family: %s; font-size: %dpt; line-height: %dpt; margin: 0; }\n",
		defaultFontFamily, nativeFontSize, nativeLineHeight)
	b.WriteString("p { margin: 0; white-space: pre-wrap; min-height: 1em; }\n")
	b.WriteString("</style></head><body>\n")
	for _, p := range doc.Paragraphs {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(p))
		b.WriteString("</p>\n")
	}
	b.WriteString("</body></html>\n")
	return b.String()
}
