package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

const (
	// minConfidence is the chardet confidence (0-100) a guess must exceed.
	minConfidence = 70

	// binarySniffLen bounds the NUL scan that rejects the Latin-1 fallback.
	binarySniffLen = 8000
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns raw file bytes into text. It tries, in order, a detected
// charset, a byte-preserving ISO-8859-1 reading, and finally a binary
// placeholder naming the file. It never fails.
func Decode(name string, raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	if text, ok := decodeDetected(raw); ok {
		return text
	}

	if !looksBinary(raw) {
		if text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
			return string(text)
		}
	}

	return BinaryPlaceholder(name)
}

// decodeDetected accepts valid UTF-8 as is, otherwise runs statistical
// detection and decodes with the guessed charset when the guess is
// confident enough.
func decodeDetected(raw []byte) (string, bool) {
	// chardet misreads short UTF-8 as a single-byte charset
	if utf8.Valid(raw) && !looksBinary(raw) {
		return string(bytes.TrimPrefix(raw, utf8BOM)), true
	}

	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || result == nil {
		return "", false
	}
	if result.Confidence <= minConfidence {
		log.Debug("Charset guess below threshold", "charset", result.Charset, "confidence", result.Confidence)
		return "", false
	}

	if strings.EqualFold(result.Charset, "UTF-8") {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(bytes.TrimPrefix(raw, utf8BOM)), true
	}

	enc, err := lookupEncoding(result.Charset)
	if err != nil {
		log.Debug("Unknown charset", "charset", result.Charset, "error", err)
		return "", false
	}

	text, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(text), true
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return enc, nil
	}

	enc, err = htmlindex.Get(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("no decoder for %s", name)
	}
	return enc, nil
}

func looksBinary(raw []byte) bool {
	return bytes.IndexByte(raw[:min(len(raw), binarySniffLen)], 0) >= 0
}

// BinaryPlaceholder is the content of a file that could not be decoded.
func BinaryPlaceholder(name string) string {
	return fmt.Sprintf("[Binary file content - %s]", name)
}

// ErrorPlaceholder is the content of a file that could not be read.
func ErrorPlaceholder(name string) string {
	return fmt.Sprintf("[Error loading file: %s]", name)
}

// ParseRecord decodes a JSON object into an ordered record. Anything that
// is not a single well-formed object (arrays, scalars, malformed input)
// becomes the record {content: text}.
func ParseRecord(text string) Content {
	fields, err := parseObject(text)
	if err != nil {
		log.Debug("Not a JSON object, wrapping raw text", "error", err)
		raw, _ := json.Marshal(text)
		return RecordContent(Field{Key: "content", Value: raw})
	}
	return RecordContent(fields...)
}

var errNotObject = errors.New("not a JSON object")

func parseObject(text string) ([]Field, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	fields := []Field{}
	seen := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		// Duplicate keys keep the last value at the first position
		if idx, dup := seen[key]; dup {
			fields[idx].Value = value
			continue
		}
		seen[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errNotObject
	}

	return fields, nil
}

// Hash returns the content hash used to detect unchanged files.
func Hash(raw []byte) string {
	return fmt.Sprintf("xxh64:%016x", xxhash.Sum64(raw))
}
