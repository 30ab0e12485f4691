package copyfile

import (
	"os"
	"sync"
)

// tmpFiles holds atomic-mode temporary files that have not been renamed
// into place yet, so an interrupted process can remove them on exit.
var tmpFiles tmpRegistry

type tmpRegistry struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func (r *tmpRegistry) add(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paths == nil {
		r.paths = make(map[string]struct{})
	}
	r.paths[path] = struct{}{}
}

func (r *tmpRegistry) remove(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

func (r *tmpRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// CleanupTmpFiles removes every registered temporary file.
func CleanupTmpFiles() {
	tmpFiles.mu.Lock()
	paths := tmpFiles.paths
	tmpFiles.paths = nil
	tmpFiles.mu.Unlock()

	for p := range paths {
		_ = os.Remove(p)
	}
}
