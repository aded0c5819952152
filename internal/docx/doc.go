// Package docx renders word-processing templates and reads them back as text.
//
// Only the parts of the format autoprice needs are handled: `{{ Key }}`
// placeholders in the main document, headers and footers; paragraph text;
// and the page size of the first section.
package docx
