// Package docstore reads and writes the flat knowledge base directory.
//
// Every regular file directly inside the directory is one Document. Reading
// never fails: undecodable bytes become a placeholder and unreadable files
// are reported through Kind.
package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Kind classifies the content of a document.
type Kind string

const (
	KindText  Kind = "text"
	KindJSON  Kind = "json"
	KindError Kind = "error"
)

// ErrInvalidFilename is returned by Write for names that are not a plain,
// visible file name.
var ErrInvalidFilename = errors.New("invalid filename")

// ErrNotLoadable is returned by Write for files the store would skip when
// loading, either ignored by name or over the size limit.
var ErrNotLoadable = errors.New("file would not be loaded")

// Field is one key/value pair of a structured record. Value holds the raw
// JSON encoding of the value.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Display renders the value for prompts: strings unquoted, everything else
// as compact JSON.
func (f Field) Display() string {
	var s string
	if err := json.Unmarshal(f.Value, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, f.Value); err != nil {
		return string(f.Value)
	}
	return buf.String()
}

// Content is either plain text or a structured record.
type Content struct {
	Text   string
	Fields []Field
}

// TextContent wraps plain text.
func TextContent(text string) Content {
	return Content{Text: text}
}

// RecordContent wraps an ordered record.
func RecordContent(fields ...Field) Content {
	if fields == nil {
		fields = []Field{}
	}
	return Content{Fields: fields}
}

// IsRecord reports whether the content is structured.
func (c Content) IsRecord() bool {
	return c.Fields != nil
}

// Get returns the display value of key in a record.
func (c Content) Get(key string) (string, bool) {
	for _, f := range c.Fields {
		if f.Key == key {
			return f.Display(), true
		}
	}
	return "", false
}

// String renders the content as the text that gets embedded. Records are
// rendered one "key: value" line per field.
func (c Content) String() string {
	if !c.IsRecord() {
		return c.Text
	}

	lines := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		lines[i] = f.Key + ": " + f.Display()
	}
	return strings.Join(lines, "\n")
}

// MarshalJSON encodes text as a JSON string and records as an object with
// fields in their original order.
func (c Content) MarshalJSON() ([]byte, error) {
	if !c.IsRecord() {
		return json.Marshal(c.Text)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Document is one file of the knowledge base.
type Document struct {
	Filename string  `json:"filename"`
	Content  Content `json:"content"`
	Kind     Kind    `json:"kind"`
	Size     int64   `json:"size"`
	Hash     string  `json:"hash,omitempty"`
}
