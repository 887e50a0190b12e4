package io

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	stdio "io"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gonum/matrix/mat64"
	"go.uber.org/multierr"
)

// Profile is one metric's table: rows are samples along a tract, columns are bundles.
type Profile struct {
	Path   string
	Header []string
	// Data is nil when the file holds a header only.
	Data *mat64.Dense
}

// Rows returns the number of samples.
func (p *Profile) Rows() int {
	if p.Data == nil {
		return 0
	}
	rows, _ := p.Data.Dims()
	return rows
}

// Index resolves a column name by exact match.
func (p *Profile) Index(name string) (int, error) {
	for i, h := range p.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q in %s", ErrBundleNotFound, name, p.Path)
}

// Column returns the named column in row order.
func (p *Profile) Column(name string) ([]float64, error) {
	col, err := p.Index(name)
	if err != nil {
		return nil, err
	}
	if p.Data == nil {
		return []float64{}, nil
	}
	return mat64.Col(nil, col, p.Data), nil
}

type record struct {
	line   int
	fields []string
}

// ReadProfileCSV loads a delimited profile table whose first line is a
// comment-prefixed header.
func ReadProfileCSV(path string, delim rune, comment string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	first, err := br.ReadString('\n')
	if err != nil && err != stdio.EOF {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	if first == "" {
		return nil, &ParseError{Path: path, Line: 1, Err: errors.New("missing header")}
	}
	header := parseHeader(first, delim, comment)

	csvReader := csv.NewReader(br)
	csvReader.Comma = delim
	csvReader.FieldsPerRecord = -1
	if r, ok := commentRune(comment); ok && r != delim {
		csvReader.Comment = r
	}

	var records []record
	for {
		fields, err := csvReader.Read()
		if err == stdio.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ParseError{Path: path, Line: pe.Line + 1, Column: pe.Column, Err: pe.Err}
			}
			return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
		}
		line, _ := csvReader.FieldPos(0)
		fields = stripComment(fields, comment)
		if isBlank(fields) {
			continue
		}
		records = append(records, record{line: line + 1, fields: fields})
	}

	profile := &Profile{Path: path, Header: header}
	if len(records) == 0 {
		return profile, nil
	}

	cols := len(header)
	data := make([]float64, len(records)*cols)
	rowErrs := make([]error, len(records))

	workers := runtime.NumCPU()
	order := make(chan int, workers)
	var wg sync.WaitGroup

	wg.Add(len(records))
	for i := 0; i < workers; i++ {
		go parseLine(path, records, data, cols, rowErrs, order, &wg)
	}
	for i := range records {
		order <- i
	}
	wg.Wait()
	close(order)

	if err := multierr.Combine(rowErrs...); err != nil {
		return nil, err
	}

	profile.Data = mat64.NewDense(len(records), cols, data)
	return profile, nil
}

// commentRune reports whether comment is a single rune encoding/csv can skip lines on.
func commentRune(comment string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(comment)
	if size == 0 || size != len(comment) {
		return 0, false
	}
	switch r {
	case '"', '\r', '\n', utf8.RuneError:
		return 0, false
	}
	return r, true
}

// stripComment drops everything from the first comment marker to the end of
// the row, the way numpy's genfromtxt does.
func stripComment(fields []string, comment string) []string {
	if comment == "" {
		return fields
	}
	for i, field := range fields {
		if idx := strings.Index(field, comment); idx >= 0 {
			fields[i] = field[:idx]
			return fields[:i+1]
		}
	}
	return fields
}

func isBlank(fields []string) bool {
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func parseHeader(line string, delim rune, comment string) []string {
	if comment != "" {
		for strings.HasPrefix(line, comment) {
			line = line[len(comment):]
		}
	}
	line = strings.TrimSpace(line)
	return strings.Split(line, string(delim))
}

func parseLine(path string, records []record, data []float64, cols int, rowErrs []error, order <-chan int, wg *sync.WaitGroup) {
	for index := range order {
		rec := records[index]
		if len(rec.fields) != cols {
			rowErrs[index] = &ParseError{
				Path: path,
				Line: rec.line,
				Err:  fmt.Errorf("row has %d fields, header has %d", len(rec.fields), cols),
			}
			wg.Done()
			continue
		}

		for i, field := range rec.fields {
			str := strings.TrimSpace(field)
			value, err := strconv.ParseFloat(str, 64)
			if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
				err = fmt.Errorf("non-finite value %q", str)
			}
			if err != nil {
				rowErrs[index] = &ParseError{Path: path, Line: rec.line, Column: i + 1, Err: err}
				break
			}
			data[index*cols+i] = value
		}

		wg.Done()
	}
}
