package flow

import "math"

// Network is a loaded feed-forward network ready to transform batches of
// scalar keys. It holds no per-batch state beyond what Transform needs
// locally, unlike the original's preallocated input/output buffers sized to
// a batch_size_; Go's allocator makes that preallocation unnecessary.
type Network struct {
	w *Weights
}

// NewNetwork wraps a parsed Weights file.
func NewNetwork(w *Weights) *Network {
	return &Network{w: w}
}

// InDim, HiddenDim, NumLayers expose the network shape.
func (n *Network) InDim() int     { return n.w.InDim }
func (n *Network) HiddenDim() int { return n.w.HiddenDim }
func (n *Network) NumLayers() int { return n.w.NumLayers }

// Size reports the byte footprint of the loaded weights, for the NF
// wrapper's ModelSize/IndexSize accounting.
func (n *Network) Size() uint64 {
	total := uint64(0)
	for _, l := range n.w.Layers {
		total += uint64(len(l.Data)) * 8
	}
	return total
}

// Transform runs the feed-forward pass over a batch of already
// mean/variance-normalized scalar keys, returning one transformed scalar
// per input, per spec §6's flow weights file semantics.
func (n *Network) Transform(keys []float64) []float64 {
	in := n.featurize(keys)
	hidden := n.w.InDim

	cur := matmulTanh(in, len(keys), hidden, n.w.Layers[0])
	for l := 1; l < n.w.NumLayers-1; l++ {
		cur = matmulTanh(cur, len(keys), n.w.HiddenDim, n.w.Layers[l])
	}
	out := matmul(cur, len(keys), n.w.HiddenDim, n.w.Layers[n.w.NumLayers-1])

	return n.reduce(out, len(keys))
}

// featurize expands each scalar key into n.w.InDim input features, per the
// original BNAF_Infer::prepare_inputs feature-splitting cases.
func (n *Network) featurize(keys []float64) []float64 {
	dim := n.w.InDim
	in := make([]float64, len(keys)*dim)
	switch dim {
	case 1:
		for i, k := range keys {
			in[i] = k
		}
	case 2:
		for i, k := range keys {
			intPart := math.Floor(k)
			in[2*i] = k
			in[2*i+1] = k - intPart
		}
	case 4:
		for i, k := range keys {
			intPart := math.Floor(k)
			frac := (k - intPart) * 1e6
			fracInt := math.Floor(frac)
			in[4*i] = k
			in[4*i+1] = intPart
			in[4*i+2] = fracInt
			in[4*i+3] = frac - fracInt
		}
	}
	return in
}

// reduce sums each row's in_dim output components to a scalar, per the
// original's prepare_outputs.
func (n *Network) reduce(out []float64, batch int) []float64 {
	dim := n.w.InDim
	res := make([]float64, batch)
	for i := 0; i < batch; i++ {
		var sum float64
		for d := 0; d < dim; d++ {
			sum += out[i*dim+d]
		}
		res[i] = sum
	}
	return res
}

// matmul computes in [rows x k] * w [k x cols] -> [rows x cols], row-major,
// in plain Go loops. No BLAS binding exists anywhere in the retrieved
// corpus, so this stays on stdlib math rather than reaching for an external
// linear-algebra package.
func matmul(in []float64, rows, k int, w Matrix) []float64 {
	out := make([]float64, rows*w.Cols)
	for i := 0; i < rows; i++ {
		for c := 0; c < w.Cols; c++ {
			var sum float64
			for j := 0; j < k; j++ {
				sum += in[i*k+j] * w.at(j, c)
			}
			out[i*w.Cols+c] = sum
		}
	}
	return out
}

func matmulTanh(in []float64, rows, k int, w Matrix) []float64 {
	out := matmul(in, rows, k, w)
	for i := range out {
		out[i] = math.Tanh(out[i])
	}
	return out
}
