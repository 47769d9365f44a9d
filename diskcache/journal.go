package diskcache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/neevek/disklru/internal/fsutil"
)

const (
	journalMagic   = "neevek_disklru"
	journalVersion = "1.0.0"

	actionUpdate = 'U'
	actionDelete = 'D'
	actionRead   = 'R'
)

func (c *Cache) journalPath() string    { return filepath.Join(c.dir, journalName) }
func (c *Cache) journalTmpPath() string { return filepath.Join(c.dir, journalTmpName) }
func (c *Cache) journalBakPath() string { return filepath.Join(c.dir, journalBakName) }

// initFromJournal is the sole job run when the background worker starts.
// It reconstructs the in-memory index from the journal, then opens the
// journal for append and signals any foreground callers blocked waiting
// for initialization.
func (c *Cache) initFromJournal() {
	bak := c.journalBakPath()
	jn := c.journalPath()

	if fsutil.FileExists(bak) {
		if err := fsutil.Rename(bak, jn); err != nil {
			c.logger.Printf("diskcache: failed to recover %s: %v", bak, err)
		}
	}

	if !fsutil.FileExists(jn) {
		c.compact(true, true)
		c.openJournalForAppend(true)
		c.finishInit()
		return
	}

	f, err := os.Open(jn)
	if err != nil {
		c.logger.Printf("diskcache: failed to open journal: %v", err)
		c.compact(true, true)
		c.openJournalForAppend(true)
		c.finishInit()
		return
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	headerOK := scanLine(scanner) == journalMagic &&
		scanLine(scanner) == journalVersion &&
		scanLine(scanner) == strconv.FormatInt(c.appVersion, 10) &&
		scanLine(scanner) == ""

	if !headerOK {
		f.Close()
		c.logger.Printf("diskcache: journal header mismatch, wiping index")
		fsutil.Remove(jn)
		c.compact(true, true)
		c.openJournalForAppend(true)
		c.finishInit()
		return
	}

	for scanner.Scan() {
		c.replayLine(scanner.Text())
	}
	f.Close()

	// compact() only (re)opens the append handle as a side effect of
	// actually rewriting the journal, which it skips whenever
	// redundantCount is still under the threshold — the common case on a
	// clean restart. openJournalForAppend must run unconditionally
	// afterward so the handle is guaranteed open before any foreground
	// Put/Get/Remove is unblocked; otherwise every writeJournalLine call
	// would silently no-op on a nil handle for the rest of this process's
	// life, and the next restart would drop everything written since.
	c.compact(true, false)
	c.openJournalForAppend(true)
	c.finishInit()
}

// openJournalForAppend ensures c.journal is open for append. It is a no-op
// if compact() already opened it while rewriting the file.
func (c *Cache) openJournalForAppend(shouldLock bool) {
	if shouldLock {
		c.mu.Lock()
		defer c.mu.Unlock()
	}

	if c.journal != nil {
		return
	}

	journal, err := os.OpenFile(c.journalPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		c.logger.Printf("diskcache: failed to open journal for append: %v", err)
		return
	}
	c.journal = journal
}

// scanLine returns the next scanned line, or a sentinel that can never
// match a valid header line if the scanner has nothing left.
func scanLine(scanner *bufio.Scanner) string {
	if !scanner.Scan() {
		return "\x00missing\x00"
	}
	return scanner.Text()
}

// replayLine applies one journal action line to the in-memory index. It
// holds the lock only for the instant it touches index/accountant state,
// matching the rest of the package's locking discipline; nothing else can
// observe the index mid-replay since foreground operations block on
// c.initialized until replay (and the subsequent compaction) completes.
func (c *Cache) replayLine(line string) {
	if line == "" {
		return
	}

	fields := strings.Split(line, " ")
	action := line[0]

	c.mu.Lock()
	defer c.mu.Unlock()

	switch action {
	case actionUpdate:
		if len(fields) != 3 {
			c.logger.Printf("diskcache: malformed journal line: %q", line)
			c.markRedundant()
			return
		}
		sha1Key := fields[1]
		size, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			c.logger.Printf("diskcache: malformed journal line: %q", line)
			c.markRedundant()
			return
		}
		if c.indexUpsertLocked(sha1Key, size) {
			c.markRedundant()
		}

	case actionDelete:
		if len(fields) != 2 {
			c.logger.Printf("diskcache: malformed journal line: %q", line)
			c.markRedundant()
			return
		}
		sha1Key := fields[1]
		c.removeLocked(sha1Key)
		c.markRedundant()

	case actionRead:
		if len(fields) != 2 {
			c.logger.Printf("diskcache: malformed journal line: %q", line)
			c.markRedundant()
			return
		}
		sha1Key := fields[1]
		if ele, hit := c.index[sha1Key]; hit {
			c.ll.MoveToFront(ele)
		}
		c.markRedundant()

	default:
		c.logger.Printf("diskcache: malformed journal line: %q", line)
		c.markRedundant()
	}
}

// finishInit marks the cache initialized and wakes every foreground caller
// parked in Put/Get/Remove waiting for it.
func (c *Cache) finishInit() {
	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// writeJournalLine appends one action line to the open journal handle.
// Only ever called from the background worker goroutine, so the journal
// handle needs no additional synchronization here beyond what compact()
// already provides when it swaps the handle out.
func (c *Cache) writeJournalLine(action byte, sha1Key string, size int64) {
	if c.journal == nil {
		return
	}

	var line string
	switch action {
	case actionUpdate:
		line = fmt.Sprintf("%c %s %d\n", actionUpdate, sha1Key, size)
	default:
		line = fmt.Sprintf("%c %s\n", action, sha1Key)
	}

	if _, err := c.journal.WriteString(line); err != nil {
		c.logger.Printf("diskcache: failed to append journal line: %v", err)
	}
}

// compact rewrites the journal so that it holds exactly one U line per
// live entry, in MRU-to-LRU order, then resets redundantCount. If shouldLock
// is true it acquires the cache mutex for the whole procedure; pass false
// when the caller already holds it (eviction and delete paths). If force is
// false, compaction only runs once redundantCount has reached the
// configured threshold.
func (c *Cache) compact(shouldLock bool, force bool) {
	if !force && c.redundantCount < c.compactionThreshold {
		return
	}

	if shouldLock {
		c.mu.Lock()
		defer c.mu.Unlock()
	}

	tmpPath := c.journalTmpPath()
	tmp, err := os.Create(tmpPath)
	if err != nil {
		c.logger.Printf("diskcache: compaction failed to create %s: %v", tmpPath, err)
		return
	}

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "%s\n%s\n%d\n\n", journalMagic, journalVersion, c.appVersion)
	for e := c.ll.Front(); e != nil; e = e.Next() {
		de := e.Value.(*diskEntry)
		fmt.Fprintf(w, "%c %s %d\n", actionUpdate, de.sha1Key, de.size)
	}
	if err := w.Flush(); err != nil {
		c.logger.Printf("diskcache: compaction failed to flush %s: %v", tmpPath, err)
		tmp.Close()
		return
	}
	tmp.Close()

	if c.journal != nil {
		c.journal.Close()
		c.journal = nil
	}

	jn := c.journalPath()
	bak := c.journalBakPath()
	if fsutil.FileExists(jn) {
		fsutil.Remove(bak)
		if err := fsutil.Rename(jn, bak); err != nil {
			c.logger.Printf("diskcache: compaction failed to back up journal: %v", err)
		}
	}

	if err := fsutil.Rename(tmpPath, jn); err != nil {
		c.logger.Printf("diskcache: compaction failed to install new journal, keeping backup: %v", err)
	} else {
		fsutil.Remove(bak)
	}

	journal, err := os.OpenFile(jn, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		c.logger.Printf("diskcache: compaction failed to reopen journal for append: %v", err)
	}
	c.journal = journal
	c.redundantCount = 0

	c.metrics.compactions.Inc()
	c.cond.Broadcast()
}
