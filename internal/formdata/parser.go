// Package formdata extracts named fields from a fully buffered
// multipart/form-data body.
//
// It is deliberately narrow: one part per field, no nesting, no streaming.
// The field named "image" is kept as raw bytes; every other field is text.
package formdata

import (
	"bytes"
	"errors"
	"strings"
)

// ImageField is the only field returned as binary data.
const ImageField = "image"

var ErrMissingBoundary = errors.New("multipart boundary not found in content type")

var (
	crlf          = []byte("\r\n")
	headerBodySep = []byte("\r\n\r\n")
)

// Value is a single field value. Binary is set for the image field only.
type Value struct {
	Data   []byte
	Binary bool
}

func (v Value) Text() string {
	return string(v.Data)
}

// Form maps field names to values. A name appears at most once.
type Form map[string]Value

// Image returns the uploaded image bytes, if any.
func (f Form) Image() ([]byte, bool) {
	v, ok := f[ImageField]
	if !ok {
		return nil, false
	}
	return v.Data, true
}

// Text returns a text field's value.
func (f Form) Text(name string) (string, bool) {
	v, ok := f[name]
	if !ok || v.Binary {
		return "", false
	}
	return v.Text(), true
}

// Parse splits body on the boundary declared in contentType and collects
// every well-formed form-data part. Malformed parts are skipped; a body
// without any usable part yields an empty Form.
func Parse(body []byte, contentType string) (Form, error) {
	boundary, ok := Boundary(contentType)
	if !ok {
		return nil, ErrMissingBoundary
	}

	delim := append([]byte("--"), boundary...)
	form := make(Form)

	for _, part := range splitParts(body, delim) {
		name, value, ok := parsePart(part)
		if !ok {
			continue
		}
		if name == ImageField {
			form[name] = Value{Data: bytes.Clone(value), Binary: true}
		} else {
			form[name] = Value{Data: bytes.Clone(value)}
		}
	}

	return form, nil
}

// Boundary returns the boundary parameter of a multipart content type.
func Boundary(contentType string) (string, bool) {
	_, after, found := strings.Cut(contentType, "boundary=")
	if !found {
		return "", false
	}
	if i := strings.IndexByte(after, ';'); i >= 0 {
		after = after[:i]
	}
	boundary := strings.Trim(strings.TrimSpace(after), `"`)
	return boundary, boundary != ""
}

// splitParts returns the byte ranges between successive delimiters,
// including the preamble before the first one and the epilogue after the last.
func splitParts(body, delim []byte) [][]byte {
	var parts [][]byte
	rest := body
	for {
		i := bytes.Index(rest, delim)
		if i < 0 {
			parts = append(parts, rest)
			return parts
		}
		parts = append(parts, rest[:i])
		rest = rest[i+len(delim):]
	}
}

// parsePart locates the header block, the field name and the value range of
// one part. Only the header block is searched for markers, so value bytes can
// never be mistaken for headers.
func parsePart(part []byte) (string, []byte, bool) {
	headerEnd := bytes.Index(part, headerBodySep)
	if headerEnd < 0 {
		return "", nil, false
	}

	name, ok := fieldName(part[:headerEnd])
	if !ok {
		return "", nil, false
	}

	valueStart := headerEnd + len(headerBodySep)
	valueEnd := bytes.LastIndex(part, crlf)
	if valueEnd <= valueStart {
		return "", nil, false
	}

	return name, part[valueStart:valueEnd], true
}

func fieldName(header []byte) (string, bool) {
	for _, line := range bytes.Split(header, crlf) {
		key, value, found := bytes.Cut(line, []byte(":"))
		if !found || !strings.EqualFold(string(bytes.TrimSpace(key)), "Content-Disposition") {
			continue
		}

		params := strings.Split(string(value), ";")
		if !strings.EqualFold(strings.TrimSpace(params[0]), "form-data") {
			continue
		}
		for _, p := range params[1:] {
			k, v, found := strings.Cut(strings.TrimSpace(p), "=")
			if !found || !strings.EqualFold(k, "name") {
				continue
			}
			name := strings.Trim(v, `"`)
			return name, name != ""
		}
	}
	return "", false
}
