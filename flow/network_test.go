package flow

import (
	"math"
	"testing"
)

func identityWeights() *Weights {
	return &Weights{
		InDim:     1,
		HiddenDim: 1,
		NumLayers: 2,
		Mean:      0,
		Var:       1,
		Layers: []Matrix{
			{Rows: 1, Cols: 1, Data: []float64{1}},
			{Rows: 1, Cols: 1, Data: []float64{1}},
		},
	}
}

func TestNetworkTransformInDim1(t *testing.T) {
	net := NewNetwork(identityWeights())
	out := net.Transform([]float64{0.5, -1, 2})
	if len(out) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(out))
	}
	for i, x := range []float64{0.5, -1, 2} {
		want := math.Tanh(x)
		if math.Abs(out[i]-want) > 1e-9 {
			t.Fatalf("Transform(%f) = %f, want tanh(x) = %f", x, out[i], want)
		}
	}
}

func TestNetworkFeaturizeInDim2(t *testing.T) {
	net := &Network{w: &Weights{InDim: 2, HiddenDim: 1, NumLayers: 2}}
	in := net.featurize([]float64{3.75})
	if len(in) != 2 {
		t.Fatalf("expected 2 features, got %d", len(in))
	}
	if in[0] != 3.75 {
		t.Fatalf("feature 0 = %f, want 3.75", in[0])
	}
	if math.Abs(in[1]-0.75) > 1e-9 {
		t.Fatalf("feature 1 (fractional part) = %f, want 0.75", in[1])
	}
}

func TestNetworkFeaturizeInDim4(t *testing.T) {
	net := &Network{w: &Weights{InDim: 4, HiddenDim: 1, NumLayers: 2}}
	in := net.featurize([]float64{3.75})
	if len(in) != 4 {
		t.Fatalf("expected 4 features, got %d", len(in))
	}
	if in[0] != 3.75 {
		t.Fatalf("feature 0 = %f, want 3.75", in[0])
	}
	if in[1] != 3 {
		t.Fatalf("feature 1 (integer part) = %f, want 3", in[1])
	}
	if in[2] != 750000 {
		t.Fatalf("feature 2 (micro-scaled integer part) = %f, want 750000", in[2])
	}
	if in[3] != 0 {
		t.Fatalf("feature 3 (micro-scaled remainder) = %f, want 0", in[3])
	}
}

func TestMatmulShapes(t *testing.T) {
	in := []float64{1, 2, 3, 4} // 2x2
	w := Matrix{Rows: 2, Cols: 3, Data: []float64{1, 0, 0, 0, 1, 0}}
	out := matmul(in, 2, 2, w)
	if len(out) != 6 {
		t.Fatalf("expected a 2x3 output, got %d values", len(out))
	}
	// Row 0: [1,2] * W -> [1, 2, 0]
	if out[0] != 1 || out[1] != 2 || out[2] != 0 {
		t.Fatalf("unexpected row 0: %v", out[:3])
	}
}
