package io

import (
	"path/filepath"
	"strings"
)

// WriteVector picks the encoding from the extension of path: .npy, .bin, or JSON otherwise.
func WriteVector(path string, vec []float64) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		return WriteVectorNpy(path, vec)
	case ".bin":
		return WriteVectorBin(path, vec)
	default:
		return WriteVectorJSON(path, vec)
	}
}

// ReadVector is the inverse of WriteVector.
func ReadVector(path string) ([]float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		return ReadVectorNpy(path)
	case ".bin":
		return ReadVectorBin(path)
	default:
		return ReadVectorJSON(path)
	}
}
