package catio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DataDog/zstd"

	"github.com/chemicalfiend/cellpairs/lib/eq"
)

const testText = `# test coordinates
1 2 3
4 5 6

7 8 9
`

var testVecs = [][]float64{
	{ 1, 2, 3 },
	{ 4, 5, 6 },
	{ 7, 8, 9 },
}

func TestReadFrom(t *testing.T) {
	p, err := ReadFrom(strings.NewReader(testText), "test")
	if err != nil {
		t.Fatalf("Expected valid coordinates, got error: %v", err)
	}

	if p.Len() != 3 || p.NDim() != 3 {
		t.Fatalf("Expected 3 particles in 3 dimensions, got %d in %d",
			p.Len(), p.NDim())
	}
	for i := range testVecs {
		if !eq.Float64s(p.At(i), testVecs[i]) {
			t.Errorf("Expected particle %d = %v, got %v",
				i, testVecs[i], p.At(i))
		}
	}
}

func TestReadFromErrors(t *testing.T) {
	if _, err := ReadFrom(
		strings.NewReader("1 2 3\n4 5\n"), "test",
	); err == nil {
		t.Errorf("Expected an error for mismatched column counts.")
	}
	if _, err := ReadFrom(
		strings.NewReader("1 2 fish\n"), "test",
	); err == nil {
		t.Errorf("Expected an error for a non-numeric field.")
	}
}

func TestReadPlainFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "coords.txt")
	if err := os.WriteFile(name, []byte(testText), 0666); err != nil {
		t.Fatalf("Could not write the test file: %v", err)
	}

	p, err := Read(name)
	if err != nil {
		t.Fatalf("Expected valid coordinates, got error: %v", err)
	}
	if p.Len() != 3 {
		t.Errorf("Expected 3 particles, got %d", p.Len())
	}
}

func TestReadZstdFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "coords.txt.zst")

	f, err := os.Create(name)
	if err != nil {
		t.Fatalf("Could not create the test file: %v", err)
	}
	w := zstd.NewWriter(f)
	if _, err := w.Write([]byte(testText)); err != nil {
		t.Fatalf("Could not compress the test file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Could not finish the test file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Could not close the test file: %v", err)
	}

	p, err := Read(name)
	if err != nil {
		t.Fatalf("Expected valid coordinates, got error: %v", err)
	}
	if p.Len() != 3 {
		t.Errorf("Expected 3 particles, got %d", p.Len())
	}
	for i := range testVecs {
		if !eq.Float64s(p.At(i), testVecs[i]) {
			t.Errorf("Expected particle %d = %v, got %v",
				i, testVecs[i], p.At(i))
		}
	}
}
