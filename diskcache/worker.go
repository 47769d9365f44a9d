package diskcache

// job is one unit of durability work handed from a foreground Put/Get/Remove
// call to the single background worker goroutine. Modeling these as a typed
// union rather than closures keeps the worker's main loop a plain switch and
// makes each job's effect legible without reading a captured closure body.
type job interface {
	run(c *Cache)
}

// jobInit replays the journal (or seeds a fresh one) before the cache
// accepts any foreground operation. It is always the first job queued.
type jobInit struct{}

func (jobInit) run(c *Cache) { c.initFromJournal() }

// jobPut is queued after a Put has already committed its file and updated
// the in-memory index; it durably records the update, then evicts and
// compacts if needed.
type jobPut struct {
	sha1Key    string
	size       int64
	wasPresent bool
}

func (j jobPut) run(c *Cache) {
	c.writeJournalLine(actionUpdate, j.sha1Key, j.size)
	if j.wasPresent {
		c.markRedundant()
	}

	c.mu.Lock()
	c.evictIfNeededLocked()
	c.compact(false, false)
	c.mu.Unlock()
}

// jobGet is queued after a Get hit has already promoted the entry in
// memory; it durably records the read so a restart's replay reproduces the
// same recency order.
type jobGet struct {
	sha1Key string
}

func (j jobGet) run(c *Cache) {
	c.writeJournalLine(actionRead, j.sha1Key, 0)
	c.markRedundant()
	c.compact(true, false)
}

// jobRemove performs the entire removal side effect: dropping the index
// entry, deleting the file, and appending the journal line. Unlike jobPut
// and jobGet, nothing about the removal has happened yet when this job
// runs — Remove only checked presence before enqueueing.
type jobRemove struct {
	sha1Key string
}

func (j jobRemove) run(c *Cache) {
	c.mu.Lock()
	c.deleteEntryLocked(j.sha1Key)
	c.mu.Unlock()
	c.metrics.removals.Inc()
}

// runWorker drains c.queue one job at a time until QuitBlocking is called,
// then closes workerDone. It is the only goroutine that ever writes the
// journal or renames it during compaction.
func (c *Cache) runWorker() {
	defer close(c.workerDone)

	for c.queue.HasNext(0) {
		j, ok := c.queue.PopFront()
		if !ok {
			continue
		}
		j.run(c)
	}
}
