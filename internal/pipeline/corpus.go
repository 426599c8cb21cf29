package pipeline

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/crowdgen/internal/model"
)

// Header is the first row of every corpus file
var Header = []string{"Input", "Output", "Domain"}

// ErrBadHeader is returned when a corpus file does not start with Header
var ErrBadHeader = errors.New("unexpected corpus header")

// WriteCSV writes samples with every field quoted and CRLF line endings
func WriteCSV(w io.Writer, samples []model.Sample) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, Header...)
	for _, s := range samples {
		writeRow(bw, s.Input, s.Output, s.Domain)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush corpus: %w", err)
	}
	return nil
}

func writeRow(w *bufio.Writer, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			_ = w.WriteByte(',')
		}
		_ = w.WriteByte('"')
		_, _ = w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		_ = w.WriteByte('"')
	}
	_, _ = w.WriteString("\r\n")
}

// ReadCSV reads a corpus written by WriteCSV or any RFC 4180 writer
func ReadCSV(r io.Reader) ([]model.Sample, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\ufeff" {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range Header {
		if head[i] != h {
			return nil, fmt.Errorf("%w: %v", ErrBadHeader, head)
		}
	}

	var samples []model.Sample
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(samples)+1, err)
		}
		samples = append(samples, model.Sample{Input: row[0], Output: row[1], Domain: row[2]})
	}
	return samples, nil
}

// WriteFile writes a corpus file, creating its directory
func WriteFile(path string, samples []model.Sample) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create corpus directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create corpus file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close corpus file: %w", closeErr)
		}
	}()
	return WriteCSV(f, samples)
}

// ReadFile reads a corpus file
func ReadFile(path string) ([]model.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// Merge concatenates domain corpora in the given order
func Merge(results []*DomainResult) []model.Sample {
	n := 0
	for _, r := range results {
		n += len(r.Results)
	}
	out := make([]model.Sample, 0, n)
	for _, r := range results {
		out = append(out, r.Samples()...)
	}
	return out
}
