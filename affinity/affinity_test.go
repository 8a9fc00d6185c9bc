// affinity_test.go — Unit test for platform CPU affinity pinning.
package affinity

import (
	"runtime"
	"testing"
)

func TestSetAffinityCurrentCPU(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := SetAffinity(0); err != nil {
		t.Skipf("affinity not supported in this environment: %v", err)
	}
}
