// Package flow implements the feed-forward tanh network used to transform
// numeric keys before indexing, per spec §4.10 and §6's weights file
// format.
package flow

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Weights holds a parsed weights file: network shape, the outer
// normalization constants, and one row-major matrix per layer.
type Weights struct {
	InDim     int
	HiddenDim int
	NumLayers int
	Mean      float64
	Var       float64
	Layers    []Matrix
}

// Matrix is a row-major dense float64 matrix.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

func (m Matrix) at(r, c int) float64 { return m.Data[r*m.Cols+c] }

// LoadWeights reads the text weights file described by spec §6:
//
//	<in_dim> <hidden_dim> <num_layers>
//	<mean> <var>
//	for each layer:
//	  <rows> <cols>
//	  <rows x cols doubles in row-major order>
func LoadWeights(path string) (*Weights, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flow: open weights file: %w", err)
	}
	defer f.Close()
	return ParseWeights(f)
}

// ParseWeights reads the weights file grammar from r.
func ParseWeights(r io.Reader) (*Weights, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var w Weights

	if _, err := fmt.Fscan(br, &w.InDim, &w.HiddenDim, &w.NumLayers); err != nil {
		return nil, fmt.Errorf("flow: reading header: %w", err)
	}
	if w.InDim != 1 && w.InDim != 2 && w.InDim != 4 {
		return nil, fmt.Errorf("flow: unsupported in_dim %d (want 1, 2 or 4)", w.InDim)
	}
	if w.NumLayers < 2 {
		return nil, fmt.Errorf("flow: num_layers must be >= 2, got %d", w.NumLayers)
	}
	if _, err := fmt.Fscan(br, &w.Mean, &w.Var); err != nil {
		return nil, fmt.Errorf("flow: reading mean/var: %w", err)
	}

	w.Layers = make([]Matrix, w.NumLayers)
	for l := 0; l < w.NumLayers; l++ {
		var rows, cols int
		if _, err := fmt.Fscan(br, &rows, &cols); err != nil {
			return nil, fmt.Errorf("flow: reading layer %d shape: %w", l, err)
		}
		data := make([]float64, rows*cols)
		for i := range data {
			if _, err := fmt.Fscan(br, &data[i]); err != nil {
				return nil, fmt.Errorf("flow: reading layer %d weight %d: %w", l, i, err)
			}
		}
		w.Layers[l] = Matrix{Rows: rows, Cols: cols, Data: data}
	}
	return &w, nil
}
