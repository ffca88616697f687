package livesync

import "path/filepath"

// registry is the path → document table plus per-directory reference counts.
// It is not synchronized; Bridge guards it with its RWMutex.
type registry struct {
	docs  map[string]string
	order []string
	dirs  map[string]int
}

func newRegistry() *registry {
	return &registry{
		docs: make(map[string]string),
		dirs: make(map[string]int),
	}
}

// add maps path to documentID and reports whether path's directory gained its
// first entry.
func (r *registry) add(path, documentID string) (newDir bool) {
	if _, exists := r.docs[path]; exists {
		r.docs[path] = documentID
		return false
	}
	r.docs[path] = documentID
	r.order = append(r.order, path)
	dir := filepath.Dir(path)
	r.dirs[dir]++
	return r.dirs[dir] == 1
}

// removeDocument drops the oldest entry for documentID. It returns the removed
// path and whether its directory has no entries left.
func (r *registry) removeDocument(documentID string) (path string, emptyDir bool, ok bool) {
	for index, candidate := range r.order {
		if r.docs[candidate] != documentID {
			continue
		}
		delete(r.docs, candidate)
		r.order = append(r.order[:index], r.order[index+1:]...)
		dir := filepath.Dir(candidate)
		r.dirs[dir]--
		if r.dirs[dir] <= 0 {
			delete(r.dirs, dir)
			return candidate, true, true
		}
		return candidate, false, true
	}
	return "", false, false
}

// rollback undoes an add that failed to subscribe its directory.
func (r *registry) rollback(path string) {
	if _, ok := r.docs[path]; !ok {
		return
	}
	delete(r.docs, path)
	for index, candidate := range r.order {
		if candidate == path {
			r.order = append(r.order[:index], r.order[index+1:]...)
			break
		}
	}
	dir := filepath.Dir(path)
	r.dirs[dir]--
	if r.dirs[dir] <= 0 {
		delete(r.dirs, dir)
	}
}

func (r *registry) lookup(path string) (string, bool) {
	documentID, ok := r.docs[path]
	return documentID, ok
}

func (r *registry) snapshot() map[string]string {
	out := make(map[string]string, len(r.docs))
	for path, documentID := range r.docs {
		out[path] = documentID
	}
	return out
}
