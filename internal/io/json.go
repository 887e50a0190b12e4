package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// jsonIndent matches the 4-space layout downstream tooling diffs against.
const jsonIndent = "    "

// pyFloat renders a float the way Python's repr does: positional notation
// with at least one fractional digit for exponents in [-4, 16), otherwise
// shortest scientific notation with a signed two-digit exponent.
type pyFloat float64

func (f pyFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("unsupported value: %v", v)
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return nil, err
	}
	if exp < -4 || exp >= 16 {
		return []byte(sci), nil
	}

	b := strconv.AppendFloat(nil, v, 'f', -1, 64)
	if !strings.Contains(string(b), ".") {
		b = append(b, '.', '0')
	}
	return b, nil
}

// EncodeVectorJSON returns vec as an indented JSON array.
func EncodeVectorJSON(vec []float64) ([]byte, error) {
	out := make([]pyFloat, len(vec))
	for i, v := range vec {
		out[i] = pyFloat(v)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteVectorJSON writes vec to path as an indented JSON array.
func WriteVectorJSON(path string, vec []float64) error {
	b, err := EncodeVectorJSON(vec)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrIO, path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIO, path, err)
	}
	return nil
}

// ReadVectorJSON loads a vector written by WriteVectorJSON.
func ReadVectorJSON(path string) ([]float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIO, path, err)
	}
	var vec []float64
	if err := json.Unmarshal(b, &vec); err != nil {
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}
	return vec, nil
}
