package mapfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/timzifer/regmapgen/layout"
)

// SequenceType marks a sequence as a plain read sequence for the consuming adapter.
const SequenceType = 0

// Document is the root object of a register map file.
type Document struct {
	Sequences []Sequence `json:"sequences"`
}

// Sequence is a named, ordered list of records.
type Sequence struct {
	Type    int             `json:"type"`
	Name    string          `json:"name"`
	Records []layout.Record `json:"records"`
}

// Stats summarises the content of a document.
type Stats struct {
	Sequences  int
	Primitives int
	Derived    int
}

// NewDocument renders each field group as a sequence named "<title> <n>".
func NewDocument(title string, groups [][]layout.Field) Document {
	doc := Document{Sequences: make([]Sequence, 0, len(groups))}
	for i, group := range groups {
		doc.Sequences = append(doc.Sequences, Sequence{
			Type:    SequenceType,
			Name:    title + " " + strconv.Itoa(i+1),
			Records: layout.Records(group),
		})
	}
	return doc
}

// Stats counts sequences and records by kind.
func (d Document) Stats() Stats {
	stats := Stats{Sequences: len(d.Sequences)}
	for _, seq := range d.Sequences {
		for _, rec := range seq.Records {
			switch rec.Type {
			case layout.PrimitiveRecord:
				stats.Primitives++
			case layout.DerivedRecord:
				stats.Derived++
			}
		}
	}
	return stats
}

// Encode writes the document as indented JSON. HTML characters are kept
// verbatim and no trailing newline is written so repeated runs produce
// identical bytes.
func Encode(w io.Writer, doc Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Marshal renders the document as indented JSON. Characters outside ASCII
// are written as \uXXXX escapes, so files read identically whatever encoding
// the consuming adapter assumes.
func Marshal(doc Document) ([]byte, error) {
	for i := range doc.Sequences {
		if doc.Sequences[i].Records == nil {
			doc.Sequences[i].Records = []layout.Record{}
		}
	}
	if doc.Sequences == nil {
		doc.Sequences = []Sequence{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// escapeNonASCII rewrites multi-byte UTF-8 sequences as lower-case \u escapes,
// using surrogate pairs above the basic multilingual plane. Non-ASCII bytes
// only occur inside JSON strings, so the output stays valid JSON.
func escapeNonASCII(data []byte) []byte {
	ascii := true
	for _, b := range data {
		if b >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return data
	}
	out := make([]byte, 0, len(data)+len(data)/4)
	for len(data) > 0 {
		if data[0] < utf8.RuneSelf {
			out = append(out, data[0])
			data = data[1:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			out = appendEscape(out, hi)
			out = appendEscape(out, lo)
			continue
		}
		out = appendEscape(out, r)
	}
	return out
}

func appendEscape(out []byte, r rune) []byte {
	const hex = "0123456789abcdef"
	return append(out, '\\', 'u', hex[r>>12&0xf], hex[r>>8&0xf], hex[r>>4&0xf], hex[r&0xf])
}

// FileName returns the file name used for a document title.
func FileName(title string) string {
	return title + ".json"
}

// WriteFile stores the encoded document in dir and returns the file path.
func WriteFile(dir, title string, data []byte) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	path := filepath.Join(dir, FileName(title))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// ReadFile decodes a register map file.
func ReadFile(path string) (Document, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, raw, nil
}
