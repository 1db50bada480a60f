package store

// Store persists the ids of every listing seen so far.
// Only one process may use a given store at a time; there is no locking.
type Store interface {
	// Load returns the persisted ids, or an empty set if nothing was saved yet
	Load() (IDSet, error)

	// Save persists previous ∪ current and returns the set that was written
	Save(previous, current IDSet) (IDSet, error)
}
