package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// WriteVectorBin writes vec as raw little-endian float64 values
func WriteVectorBin(path string, vec []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: [WriteVectorBin] create %s: %v", ErrIO, path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
		return fmt.Errorf("%w: [WriteVectorBin] write %s: %v", ErrIO, path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: [WriteVectorBin] flush %s: %v", ErrIO, path, err)
	}

	return file.Close()
}

// ReadVectorBin reads a file written by WriteVectorBin
func ReadVectorBin(path string) ([]float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: [ReadVectorBin] read %s: %v", ErrIO, path, err)
	}
	if len(b)%8 != 0 {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("length %d is not a multiple of 8", len(b))}
	}

	vec := make([]float64, len(b)/8)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return vec, nil
}
