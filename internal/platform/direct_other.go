//go:build !linux

package platform

// DefaultChunkSize is kept for API parity; there is no offload loop here.
const DefaultChunkSize = 1 << 20

// DirectCopy has no kernel offload facility on this platform. darwin and
// the BSDs would need fcopyfile(3), which x/sys/unix does not expose.
func DirectCopy(p CopyParams) Result {
	return Result{Status: Unsupported, Method: p.Facility}
}

// Detect reports that no offload facility exists.
func Detect() Capabilities {
	return Capabilities{}
}
