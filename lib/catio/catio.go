/*package catio reads particle coordinates from whitespace-separated text
files. Files ending in .zst are decompressed transparently.*/
package catio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DataDog/zstd"

	"github.com/chemicalfiend/cellpairs/lib/particles"
)

// Read parses the named file into Positions. Every non-empty line that does
// not start with '#' must hold the same number of coordinate columns.
func Read(fileName string) (*particles.Positions, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rd io.Reader = f
	if strings.HasSuffix(fileName, ".zst") {
		zrd := zstd.NewReader(f)
		defer zrd.Close()
		rd = zrd
	}

	return ReadFrom(rd, fileName)
}

// ReadFrom parses coordinates from an open stream. The name argument is only
// used in error messages.
func ReadFrom(rd io.Reader, name string) (*particles.Positions, error) {
	scan := bufio.NewScanner(rd)
	scan.Buffer(make([]byte, 1<<16), 1<<20)

	n := -1
	vecs := [][]float64{ }
	line := 0
	for scan.Scan() {
		line++
		text := strings.TrimSpace(scan.Text())
		if text == "" || strings.HasPrefix(text, "#") { continue }

		fields := strings.Fields(text)
		if n == -1 {
			n = len(fields)
		} else if len(fields) != n {
			return nil, fmt.Errorf("Line %d of %s has %d columns, but "+
				"earlier lines have %d.", line, name, len(fields), n)
		}

		vec := make([]float64, n)
		for a := range fields {
			v, err := strconv.ParseFloat(fields[a], 64)
			if err != nil {
				return nil, fmt.Errorf("Could not parse '%s' on line %d of "+
					"%s as a float.", fields[a], line, name)
			}
			vec[a] = v
		}
		vecs = append(vecs, vec)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}

	return particles.FromVecs(vecs)
}
