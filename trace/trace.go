// Package trace reads and writes memory access traces.
//
// A trace is a text file with one access per line:
//
//	<pc> <addr> [R|W]
//
// Both numbers are hexadecimal with an optional 0x prefix. The access type
// defaults to R. Blank lines and text after '#' are ignored.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Record is one memory access.
type Record struct {
	PC    uint64
	Addr  uint64
	Write bool
}

// Reader streams records from a trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record. It returns io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		rec, err := parseFields(fields)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return Record{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

func parseFields(fields []string) (Record, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return Record{}, fmt.Errorf("expected \"<pc> <addr> [R|W]\", got %d fields", len(fields))
	}

	pc, err := parseHex(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("invalid pc: %w", err)
	}
	addr, err := parseHex(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("invalid address: %w", err)
	}

	rec := Record{PC: pc, Addr: addr}
	if len(fields) == 3 {
		switch strings.ToUpper(fields[2]) {
		case "R":
		case "W":
			rec.Write = true
		default:
			return Record{}, fmt.Errorf("invalid access type %q", fields[2])
		}
	}

	return rec, nil
}

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return strconv.ParseUint(s, 16, 64)
}

// Parse reads every record from r.
func Parse(r io.Reader) ([]Record, error) {
	reader := NewReader(r)

	var records []Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// Load reads a trace file.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// Write writes records in the text trace format.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		kind := "R"
		if rec.Write {
			kind = "W"
		}
		if _, err := fmt.Fprintf(bw, "0x%x 0x%x %s\n", rec.PC, rec.Addr, kind); err != nil {
			return err
		}
	}
	return bw.Flush()
}
