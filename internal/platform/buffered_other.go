//go:build !unix

package platform

// BufferedCopy needs raw descriptor I/O, which this platform does not offer.
func BufferedCopy(_ CopyParams) Result {
	return Result{Status: Unsupported, Method: ReadWrite}
}
