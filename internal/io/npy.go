package io

import (
	"fmt"

	"github.com/kshedden/gonpy"
)

// WriteVectorNpy writes vec as a one-dimensional numpy npy file
func WriteVectorNpy(path string, vec []float64) error {
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("%w: [WriteVectorNpy] open %s: %v", ErrIO, path, err)
	}
	w.Shape = []int{len(vec)}
	w.Version = 2
	if err := w.WriteFloat64(vec); err != nil {
		return fmt.Errorf("%w: [WriteVectorNpy] write %s: %v", ErrIO, path, err)
	}

	return nil
}

// ReadVectorNpy reads a numpy npy file as a flat float64 vector
func ReadVectorNpy(path string) ([]float64, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: [ReadVectorNpy] open %s: %v", ErrIO, path, err)
	}

	data, err := r.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("%w: [ReadVectorNpy] read %s: %v", ErrIO, path, err)
	}

	return data, nil
}
