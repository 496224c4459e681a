//go:build !cgo
// +build !cgo

package sentiment

import (
	"context"
	"errors"
)

// ONNXScorer stub type when built without CGO (see onnx.go for real implementation).
type ONNXScorer struct{}

// NewONNXScorer returns an error when built without CGO (ONNX not available).
func NewONNXScorer(_ string, _ int) (*ONNXScorer, error) {
	return nil, errors.New("ONNX sentiment scorer requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Score is unreachable on the stub; it exists to satisfy the Scorer interface.
func (s *ONNXScorer) Score(ctx context.Context, text string) (float64, error) {
	return 0, errors.New("ONNX sentiment scorer not available")
}

// Close is a no-op on the stub.
func (s *ONNXScorer) Close() error { return nil }
