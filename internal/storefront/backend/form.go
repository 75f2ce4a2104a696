package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is one uploaded file inside a multipart Form.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

type formField struct {
	name  string
	value string
}

// Form is an ordered multipart/form-data body.
type Form struct {
	fields []formField
	files  []File
}

// NewForm returns an empty Form.
func NewForm() *Form {
	return &Form{}
}

// Set appends a text field. Repeated names are kept in order.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFile appends a file part. Files with no data are skipped.
func (f *Form) AddFile(file File) *Form {
	if len(file.Data) == 0 {
		return f
	}
	f.files = append(f.files, file)
	return f
}

// Value returns the first value recorded for name.
func (f *Form) Value(name string) (string, bool) {
	for _, field := range f.fields {
		if field.name == name {
			return field.value, true
		}
	}
	return "", false
}

// Files returns the file parts in insertion order.
func (f *Form) Files() []File {
	return append([]File(nil), f.files...)
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("backend: write form field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.Field), escapeQuotes(file.Name)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("backend: create form file %s: %w", file.Field, err)
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("backend: write form file %s: %w", file.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("backend: close form: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
