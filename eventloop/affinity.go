package eventloop

import "github.com/sizzo/reactorcore/affinity"

// pinAffinity pins the calling OS thread (expected to already be locked via
// runtime.LockOSThread) to the given logical CPU.
func pinAffinity(cpuID int) error {
	return affinity.SetAffinity(cpuID)
}
