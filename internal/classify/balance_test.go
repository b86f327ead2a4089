package classify

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// imbalanced returns 6 "favor" rows and 2 "against" rows
func imbalanced() (*mat.Dense, []string) {
	x := mat.NewDense(8, 2, []float64{
		10, 10,
		11, 10,
		10, 11,
		11, 11,
		12, 10,
		10, 12,
		0, 0,
		1, 1,
	})
	labels := []string{
		"favor", "favor", "favor", "favor", "favor", "favor",
		"against", "against",
	}
	return x, labels
}

func classCounts(labels []string) map[string]int {
	counts := make(map[string]int)
	for _, l := range labels {
		counts[l]++
	}
	return counts
}

func TestBalanceNone(t *testing.T) {
	x, labels := imbalanced()
	outX, outLabels, err := Balance("none", x, labels, 5, 1)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if outX != x {
		t.Error("method none must return the input matrix")
	}
	if len(outLabels) != len(labels) {
		t.Error("method none must return the input labels")
	}
}

func TestBalanceUnknownMethod(t *testing.T) {
	x, labels := imbalanced()
	if _, _, err := Balance("smote", x, labels, 5, 1); err == nil {
		t.Error("expected error for unknown method")
	}
}

func TestDownsample(t *testing.T) {
	x, labels := imbalanced()
	outX, outLabels, err := Downsample(x, labels, 42)
	if err != nil {
		t.Fatalf("Downsample: %v", err)
	}

	counts := classCounts(outLabels)
	if counts["favor"] != 2 || counts["against"] != 2 {
		t.Errorf("counts = %v, want 2 per class", counts)
	}
	rows, _ := outX.Dims()
	if rows != len(outLabels) {
		t.Errorf("matrix has %d rows for %d labels", rows, len(outLabels))
	}
}

func TestUpsample(t *testing.T) {
	x, labels := imbalanced()
	outX, outLabels, err := Upsample(x, labels, 42)
	if err != nil {
		t.Fatalf("Upsample: %v", err)
	}

	counts := classCounts(outLabels)
	if counts["favor"] != 6 || counts["against"] != 6 {
		t.Errorf("counts = %v, want 6 per class", counts)
	}

	// Every row of the grown class must duplicate an original vector
	rows, _ := outX.Dims()
	for i := 0; i < rows; i++ {
		if outLabels[i] != "against" {
			continue
		}
		row := mat.Row(nil, i, outX)
		isOriginal := (row[0] == 0 && row[1] == 0) || (row[0] == 1 && row[1] == 1)
		if !isOriginal {
			t.Errorf("upsampled row %v is not an original vector", row)
		}
	}
}

func TestSynthetic(t *testing.T) {
	x, labels := imbalanced()
	outX, outLabels, err := Synthetic(x, labels, 5, 42)
	if err != nil {
		t.Fatalf("Synthetic: %v", err)
	}

	counts := classCounts(outLabels)
	if counts["favor"] != 6 || counts["against"] != 6 {
		t.Errorf("counts = %v, want 6 per class", counts)
	}

	// Original rows are preserved in place
	origRows, _ := x.Dims()
	for i := 0; i < origRows; i++ {
		if outLabels[i] != labels[i] {
			t.Fatalf("original label %d changed from %q to %q", i, labels[i], outLabels[i])
		}
	}

	// Synthetic against-vectors interpolate between (0,0) and (1,1), so both
	// coordinates stay within the segment and are equal
	rows, _ := outX.Dims()
	for i := origRows; i < rows; i++ {
		row := mat.Row(nil, i, outX)
		if outLabels[i] != "against" {
			t.Fatalf("appended row %d has label %q, want against", i, outLabels[i])
		}
		if row[0] < 0 || row[0] > 1 || row[0] != row[1] {
			t.Errorf("synthetic row %v is not on the segment between class vectors", row)
		}
	}
}

func TestSyntheticSingletonClassFails(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		0, 0,
		10, 10,
		11, 10,
		10, 11,
	})
	labels := []string{"against", "favor", "favor", "favor"}

	if _, _, err := Synthetic(x, labels, 5, 1); err == nil {
		t.Error("expected error for singleton minority class")
	}

	// The deterministic fallback for this case still works
	_, outLabels, err := Downsample(x, labels, 1)
	if err != nil {
		t.Fatalf("Downsample fallback: %v", err)
	}
	counts := classCounts(outLabels)
	if counts["against"] != 1 || counts["favor"] != 1 {
		t.Errorf("fallback counts = %v, want 1 per class", counts)
	}
}

func TestBalanceSingleClass(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	if _, _, err := Downsample(x, []string{"favor", "favor"}, 1); err == nil {
		t.Error("expected error for single-class input")
	}
}

func TestSyntheticDeterminism(t *testing.T) {
	x, labels := imbalanced()
	a, _, err := Synthetic(x, labels, 5, 9)
	if err != nil {
		t.Fatalf("Synthetic: %v", err)
	}
	b, _, err := Synthetic(x, labels, 5, 9)
	if err != nil {
		t.Fatalf("Synthetic: %v", err)
	}
	if !mat.Equal(a, b) {
		t.Error("same seed produced different synthetic samples")
	}
}
