package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/easearch/internal/document"
	"git.home.luguber.info/inful/easearch/internal/fsutil"
)

// DefaultGlobalName is the browser global search.js reads the records from.
const DefaultGlobalName = "searchData"

var (
	identPattern      = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	assignmentPattern = regexp.MustCompile(`^\s*(?:var|let|const)\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*`)
)

// ValidGlobalName reports whether name can be used as a JavaScript variable.
func ValidGlobalName(name string) bool {
	return identPattern.MatchString(name)
}

// Marshal renders records as `var <globalName> = [...];` with two-space
// indented JSON. Non-ASCII text and HTML characters are written as is.
func Marshal(records []document.Record, globalName string) ([]byte, error) {
	if !ValidGlobalName(globalName) {
		return nil, fmt.Errorf("invalid global name %q", globalName)
	}
	if records == nil {
		records = []document.Record{}
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}

	var out bytes.Buffer
	out.Grow(body.Len() + len(globalName) + 16)
	out.WriteString("var ")
	out.WriteString(globalName)
	out.WriteString(" = ")
	out.Write(bytes.TrimRight(body.Bytes(), "\n"))
	out.WriteString(";\n")
	return out.Bytes(), nil
}

// Write serializes records to w.
func Write(w io.Writer, records []document.Record, globalName string) error {
	data, err := Marshal(records, globalName)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile replaces path with the serialized records.
func WriteFile(path string, records []document.Record, globalName string) error {
	data, err := Marshal(records, globalName)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// Artifact is a parsed index script.
type Artifact struct {
	GlobalName string
	Records    []document.Record
}

// Load parses an index script written by Write.
func Load(r io.Reader) (*Artifact, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	m := assignmentPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, fmt.Errorf("index script does not start with a variable assignment")
	}
	name := text[m[2]:m[3]]

	body := text[m[1]:]
	dec := json.NewDecoder(strings.NewReader(body))
	var records []document.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	tail := strings.TrimSpace(body[dec.InputOffset():])
	if tail != "" && tail != ";" {
		return nil, fmt.Errorf("unexpected trailing content %q", tail)
	}
	if records == nil {
		records = []document.Record{}
	}
	return &Artifact{GlobalName: name, Records: records}, nil
}

// LoadFile parses the index script at path.
func LoadFile(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}
