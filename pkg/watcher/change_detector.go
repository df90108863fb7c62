package watcher

import "github.com/fsnotify/fsnotify"

// ChangeType describes what happened to the watched document
type ChangeType int

const (
	ChangeTypeModified ChangeType = iota // Written, created or moved into place
	ChangeTypeRemoved                    // Deleted or moved away
)

func (t ChangeType) String() string {
	if t == ChangeTypeRemoved {
		return "removed"
	}
	return "modified"
}

// classify maps an fsnotify operation to a change type. Chmod-only events
// are not changes.
func classify(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Write), op.Has(fsnotify.Create):
		return ChangeTypeModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ChangeTypeRemoved, true
	}
	return 0, false
}

