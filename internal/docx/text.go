package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Page sizes in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
	A5Width  = 419.53
	A5Height = 595.28
)

const twipsPerPoint = 20

// Document is the plain-text view of a DOCX file. A paragraph inside a text
// box is listed before the paragraph that anchors the box.
type Document struct {
	Paragraphs []string
	PageWidth  float64 // points
	PageHeight float64 // points
}

// Text joins the paragraphs with newlines.
func (d *Document) Text() string {
	return strings.Join(d.Paragraphs, "\n")
}

// Read extracts paragraph text and the first section's page size.
// Missing page size defaults to A4 portrait.
func Read(path string) (*Document, error) {
	content, err := readMain(path)
	if err != nil {
		return nil, err
	}
	doc, err := parse([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func parse(content []byte) (*Document, error) {
	doc := &Document{}
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		stack  []*strings.Builder // innermost paragraph last
		inText bool
	)
	current := func() *strings.Builder {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Fallback":
				// VML copy of a text box already read from mc:Choice.
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case "p":
				stack = append(stack, &strings.Builder{})
			case "t":
				inText = true
			case "tab":
				if p := current(); p != nil {
					p.WriteByte('\t')
				}
			case "br", "cr":
				if p := current(); p != nil {
					p.WriteByte('\n')
				}
			case "pgSz":
				if doc.PageWidth == 0 {
					doc.PageWidth, doc.PageHeight = pageSize(t.Attr)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if n := len(stack); n > 0 {
					doc.Paragraphs = append(doc.Paragraphs, stack[n-1].String())
					stack = stack[:n-1]
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if p := current(); inText && p != nil {
				p.Write(t)
			}
		}
	}

	if doc.PageWidth <= 0 || doc.PageHeight <= 0 {
		doc.PageWidth, doc.PageHeight = A4Width, A4Height
	}
	return doc, nil
}

func pageSize(attrs []xml.Attr) (w, h float64) {
	for _, a := range attrs {
		v, err := strconv.ParseFloat(a.Value, 64)
		if err != nil {
			continue
		}
		switch a.Name.Local {
		case "w":
			w = v / twipsPerPoint
		case "h":
			h = v / twipsPerPoint
		}
	}
	return w, h
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

// Create writes a minimal DOCX containing one run per paragraph.
// Paragraph text is written verbatim, so placeholders survive intact.
func Create(path string, doc *Document) (err error) {
	if path == "" {
		return ErrEmptyOutPath
	}
	f, err := os.Create(path) // #nosec G304 -- output path is user-provided
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	w := zip.NewWriter(f)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{mainPart, documentXML(doc)},
		{"word/_rels/document.xml.rels", documentRels},
	}
	for _, p := range parts {
		pw, err := w.Create(p.name)
		if err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	return w.Close()
}

func documentXML(doc *Document) string {
	width, height := doc.PageWidth, doc.PageHeight
	if width <= 0 || height <= 0 {
		width, height = A4Width, A4Height
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range doc.Paragraphs {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		_ = xml.EscapeText(&b, []byte(p))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	fmt.Fprintf(&b, `<w:sectPr><w:pgSz w:w="%d" w:h="%d"/></w:sectPr>`,
		int(width*twipsPerPoint+0.5), int(height*twipsPerPoint+0.5))
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}
