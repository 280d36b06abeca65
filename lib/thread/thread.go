/*package thread contains functions useful for multi-threading.*/
package thread

import (
	"runtime"

	"github.com/chemicalfiend/cellpairs/lib/error"
)

// Set sets the number of OS threads used by the process. Passing n = -1 uses
// every logical core on the node.
func Set(n int) {
	if n == -1 {
		runtime.GOMAXPROCS(runtime.NumCPU())
		return
	}
	if n > runtime.NumCPU() {
		error.External("%d threads requested, but your system only has %d "+
			"cores per node. If you want cellpairs to use the maximum number "+
			"of threads per node, set threads to -1.", n, runtime.NumCPU())
	}

	runtime.GOMAXPROCS(n)
}

// N returns the number of OS threads currently in use.
func N() int {
	return runtime.GOMAXPROCS(0)
}
