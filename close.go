package embedstore

// Close releases the storage, unmapping memory-mapped files, and returns the
// memory reserved for owned storage to the resource controller. Rows and
// iterators obtained earlier must not be used afterwards. Close is
// idempotent.
func (e *Embeddings) Close() error {
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	err := e.storage.Close()
	e.opts.resources.ReleaseMemory(e.reserved)
	e.reserved = 0
	return err
}
