/*package eq is a simple package for telling whether two arrays are equal to
one another.*/
package eq

import (
	"gonum.org/v1/gonum/floats"
)

// Generic returns true if two arrays are the same type and have the same values
// and false otherwise. Only []int, []float64, [][3]float64, [][]float64, and
// []int arrays are supported.
func Generic(x, y interface{}) bool {
	switch xx := x.(type) {
	case []int:
		yy, ok := y.([]int)
		if !ok { return false }
		return Ints(xx, yy)
	case []float64:
		yy, ok := y.([]float64)
		if !ok { return false }
		return Float64s(xx, yy)
	case [][3]float64:
		yy, ok := y.([][3]float64)
		if !ok { return false }
		return Vec64s(xx, yy)
	case [][]float64:
		yy, ok := y.([][]float64)
		if !ok { return false }
		return Slices(xx, yy)
	default:
		return false
	}
}

// Ints returns true if two []int arrays are the same and false otherwise.
func Ints(x, y []int) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Float64s returns true if two []float64 arrays are the same and false
// otherwise.
func Float64s(x, y []float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Vec64s returns true if two [][3]float64 arrays are the same and false
// otherwise.
func Vec64s(x, y [][3]float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i] != y[i] { return false }
	}
	return true
}

// Slices returns true if two [][]float64 arrays are the same and false
// otherwise.
func Slices(x, y [][]float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if !Float64s(x[i], y[i]) { return false }
	}
	return true
}

// Float64sEps returns true if the two []float64 arrays are within eps of one
// another and false otherwise.
func Float64sEps(x, y []float64, eps float64) bool {
	if len(x) != len(y) { return false }
	for i := range x {
		if x[i]+eps < y[i] || x[i]-eps > y[i] {
			return false
		}
	}
	return true
}

// Float64sApprox returns true if the two []float64 arrays agree to within the
// given relative tolerance and false otherwise.
func Float64sApprox(x, y []float64, tol float64) bool {
	if len(x) != len(y) { return false }
	if len(x) == 0 { return true }
	return floats.EqualApprox(x, y, tol)
}
