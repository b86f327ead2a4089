package classify

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSVMPredictSeparable(t *testing.T) {
	x, labels := separable()
	trainer := &SVMTrainer{Cost: 1, Epochs: 100, Seed: 1}
	fitted, err := trainer.Fit(x, labels)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	got, err := fitted.Predict(x)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !reflect.DeepEqual(got, labels) {
		t.Errorf("training predictions %v differ from labels %v", got, labels)
	}

	queries := mat.NewDense(2, 2, []float64{
		-1, -1,
		12, 12,
	})
	got, err = fitted.Predict(queries)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := []string{"against", "favor"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Predict = %v, want %v", got, want)
	}
}

func TestSVMScaled(t *testing.T) {
	// Wildly different column scales; scaling keeps the problem solvable
	x := mat.NewDense(6, 2, []float64{
		0, 1000,
		1, 1100,
		0, 1050,
		10, 1,
		11, 2,
		10, 3,
	})
	labels := []string{"against", "against", "against", "favor", "favor", "favor"}

	trainer := &SVMTrainer{Cost: 1, Epochs: 200, Scale: true, Seed: 2}
	fitted, err := trainer.Fit(x, labels)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	got, err := fitted.Predict(x)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !reflect.DeepEqual(got, labels) {
		t.Errorf("scaled predictions %v differ from labels %v", got, labels)
	}
}

func TestSVMDeterminism(t *testing.T) {
	x, labels := separable()
	queries := mat.NewDense(1, 2, []float64{5, 6})

	predict := func() []string {
		fitted, err := (&SVMTrainer{Cost: 1, Epochs: 50, Seed: 7}).Fit(x, labels)
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		got, err := fitted.Predict(queries)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		return got
	}

	if a, b := predict(), predict(); !reflect.DeepEqual(a, b) {
		t.Errorf("same seed gave different predictions: %v vs %v", a, b)
	}
}

func TestSVMMultiClass(t *testing.T) {
	x := mat.NewDense(9, 2, []float64{
		0, 0, 1, 0, 0, 1,
		10, 10, 11, 10, 10, 11,
		0, 10, 1, 10, 0, 11,
	})
	labels := []string{
		"against", "against", "against",
		"favor", "favor", "favor",
		"neutral", "neutral", "neutral",
	}

	fitted, err := (&SVMTrainer{Cost: 1, Epochs: 200, Seed: 3}).Fit(x, labels)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	got, err := fitted.Predict(x)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !reflect.DeepEqual(got, labels) {
		t.Errorf("multi-class predictions %v differ from labels %v", got, labels)
	}
}

func TestSVMPosProb(t *testing.T) {
	x, labels := separableBinary()
	fitted, err := (&SVMTrainer{Cost: 1, Epochs: 100, Seed: 4}).Fit(x, labels)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	bin, ok := fitted.(BinaryModel)
	if !ok {
		t.Fatal("svm model must implement BinaryModel")
	}

	probs, err := bin.PosProb(mat.NewDense(2, 2, []float64{
		0, 0,
		11, 11,
	}))
	if err != nil {
		t.Fatalf("PosProb: %v", err)
	}
	for i, p := range probs {
		if p < 0 || p > 1 {
			t.Errorf("prob %d = %v outside [0, 1]", i, p)
		}
	}
	if probs[0] >= 0.5 {
		t.Errorf("negative-cluster prob = %v, want < 0.5", probs[0])
	}
	if probs[1] <= 0.5 {
		t.Errorf("positive-cluster prob = %v, want > 0.5", probs[1])
	}
}

func TestSVMErrors(t *testing.T) {
	x, labels := separable()

	if _, err := (&SVMTrainer{Cost: 0, Epochs: 10}).Fit(x, labels); err == nil {
		t.Error("expected error for zero cost")
	}

	single := mat.NewDense(2, 2, nil)
	if _, err := (&SVMTrainer{Cost: 1, Epochs: 10}).Fit(single, []string{"a", "a"}); err == nil {
		t.Error("expected error for single class")
	}
}
