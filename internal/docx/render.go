package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	docxlib "github.com/nguyenthenguyen/docx"
)

// Sentinel errors for DOCX operations.
var (
	ErrNotDocx      = errors.New("not a docx archive")
	ErrMissingPart  = errors.New("docx part not found")
	ErrEmptyOutPath = errors.New("output path cannot be empty")
)

const mainPart = "word/document.xml"

var (
	// A placeholder may be split across runs by the editor, so tags are
	// allowed between the braces and inside the name.
	placeholderRe = regexp.MustCompile(`(?s)\{(?:<[^>]*>)*\{(.*?)\}(?:<[^>]*>)*\}`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	identRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Render copies the template at templatePath to outPath with every
// placeholder replaced by its value in data. Placeholders naming a key
// missing from data render empty. Expressions that are not plain names are
// left untouched.
//
// Headers and footers only match placeholders typed in a single run,
// written {{Key}} or {{ Key }}.
func Render(templatePath, outPath string, data map[string]string) (err error) {
	if outPath == "" {
		return ErrEmptyOutPath
	}

	r, err := open(templatePath)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	d := r.Editable()
	d.SetContent(string(Substitute([]byte(d.GetContent()), data)))
	for key, value := range data {
		for _, form := range []string{"{{" + key + "}}", "{{ " + key + " }}"} {
			if err := d.ReplaceHeader(form, value); err != nil {
				return fmt.Errorf("header placeholder %s: %w", key, err)
			}
			if err := d.ReplaceFooter(form, value); err != nil {
				return fmt.Errorf("footer placeholder %s: %w", key, err)
			}
		}
	}

	out, err := os.Create(outPath) // #nosec G304 -- output path is built by the caller
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", outPath, cerr)
		}
		if err != nil {
			_ = os.Remove(outPath)
		}
	}()
	if err := d.Write(out); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

// Substitute replaces placeholders in a WordprocessingML fragment.
// Values are XML-escaped.
func Substitute(content []byte, data map[string]string) []byte {
	return placeholderRe.ReplaceAllFunc(content, func(m []byte) []byte {
		inner := placeholderRe.FindSubmatch(m)[1]
		name := strings.TrimSpace(string(tagRe.ReplaceAll(inner, nil)))
		if !identRe.MatchString(name) {
			return m
		}
		var buf bytes.Buffer
		_ = xml.EscapeText(&buf, []byte(data[name]))
		return buf.Bytes()
	})
}

// Placeholders lists the distinct placeholder names in the template's main
// document, in order of first appearance.
func Placeholders(templatePath string) ([]string, error) {
	content, err := readMain(templatePath)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(tagRe.ReplaceAllString(m[1], ""))
		if identRe.MatchString(name) && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// open reads the archive. Unreadable files and non-zip data are ErrNotDocx;
// an archive lacking the main document or its relationships is ErrMissingPart.
func open(path string) (*docxlib.ReplaceDocx, error) {
	r, err := docxlib.ReadDocxFile(path)
	if err == nil {
		return r, nil
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, zip.ErrFormat) ||
		errors.Is(err, zip.ErrAlgorithm) || errors.Is(err, zip.ErrChecksum) {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDocx, path, err)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrMissingPart, path, err)
}

func readMain(path string) (string, error) {
	r, err := open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()
	return r.Editable().GetContent(), nil
}
