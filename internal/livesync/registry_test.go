package livesync

import (
	"fmt"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

type modelEntry struct {
	path       string
	documentID string
}

func TestRegistryMatchesOrderedModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := newRegistry()
		var model []modelEntry

		paths := []string{"/a/one.md", "/a/two.md", "/b/three.md", "/b/four.md", "/c/five.md"}
		docs := []string{"doc-1", "doc-2", "doc-3"}

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(rt, "add") {
				path := rapid.SampledFrom(paths).Draw(rt, "path")
				documentID := rapid.SampledFrom(docs).Draw(rt, "doc")
				reg.add(path, documentID)

				replaced := false
				for index := range model {
					if model[index].path == path {
						model[index].documentID = documentID
						replaced = true
					}
				}
				if !replaced {
					model = append(model, modelEntry{path: path, documentID: documentID})
				}
				continue
			}

			documentID := rapid.SampledFrom(docs).Draw(rt, "remove")
			removed, _, ok := reg.removeDocument(documentID)
			wantIndex := -1
			for index, entry := range model {
				if entry.documentID == documentID {
					wantIndex = index
					break
				}
			}
			if (wantIndex >= 0) != ok {
				rt.Fatalf("remove %s: ok=%v, model index %d", documentID, ok, wantIndex)
			}
			if ok {
				if removed != model[wantIndex].path {
					rt.Fatalf("remove %s: removed %s, want %s", documentID, removed, model[wantIndex].path)
				}
				model = append(model[:wantIndex], model[wantIndex+1:]...)
			}
		}

		snapshot := reg.snapshot()
		if len(snapshot) != len(model) {
			rt.Fatalf("expected %d entries, got %d", len(model), len(snapshot))
		}
		dirCounts := map[string]int{}
		for _, entry := range model {
			if got := snapshot[entry.path]; got != entry.documentID {
				rt.Fatalf("path %s: expected %s, got %s", entry.path, entry.documentID, got)
			}
			dirCounts[filepath.Dir(entry.path)]++
		}
		if fmt.Sprint(dirCounts) != fmt.Sprint(reg.dirs) {
			rt.Fatalf("dir counts %v, want %v", reg.dirs, dirCounts)
		}
	})
}

func TestRegistryReportsDirectoryTransitions(t *testing.T) {
	reg := newRegistry()
	if !reg.add("/notes/a.md", "doc-a") {
		t.Fatalf("expected first entry to open the directory")
	}
	if reg.add("/notes/b.md", "doc-b") {
		t.Fatalf("expected second entry to reuse the directory")
	}
	if _, emptyDir, ok := reg.removeDocument("doc-a"); !ok || emptyDir {
		t.Fatalf("expected directory to stay watched, ok=%v empty=%v", ok, emptyDir)
	}
	if _, emptyDir, ok := reg.removeDocument("doc-b"); !ok || !emptyDir {
		t.Fatalf("expected directory to empty, ok=%v empty=%v", ok, emptyDir)
	}
	if _, _, ok := reg.removeDocument("doc-b"); ok {
		t.Fatalf("expected nothing left to remove")
	}
}
