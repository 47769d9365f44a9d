// Package diskcache implements a crash-safe, file-backed LRU cache. Each
// entry is one file on disk at a path derived from the SHA-1 of its key.
// A single background worker goroutine serializes every mutation of the
// on-disk journal that makes the cache's LRU state recoverable after a
// restart; foreground Put/Get/Remove calls only ever touch the in-memory
// index under a mutex and hand the durability work off to that worker.
package diskcache

import (
	"container/list"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/neevek/disklru/internal/blockingqueue"
	"github.com/neevek/disklru/internal/fsutil"
	"github.com/neevek/disklru/internal/sha1key"
)

// retainRatio is the fraction of max_size/max_items kept after an eviction
// pass runs, shared with the eviction math in package memcache.
const retainRatio = 0.75

// defaultCompactionThreshold is how many non-essential journal lines
// accumulate (see redundantCount) before a compaction is triggered.
const defaultCompactionThreshold = 2000

const (
	journalName    = "journal"
	journalTmpName = "journal.tmp"
	journalBakName = "journal.bak"
)

// Writer streams a cache entry's payload to w. Returning a non-nil error
// aborts the Put: nothing is committed to the cache.
type Writer func(w io.Writer) error

// Reader consumes a cache entry's payload from r. A non-nil error makes
// Get report a miss.
type Reader func(r io.Reader) error

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// diskEntry is the metadata tracked per cache entry: the journal and the
// in-memory index both key on sha1Key, a 40-hex-character SHA-1 digest.
type diskEntry struct {
	sha1Key string
	size    int64
}

// Cache is a file-backed LRU cache bounded by total bytes and file count.
// It is safe for concurrent use.
type Cache struct {
	dir        string
	appVersion int64

	maxSize             int64
	maxItems            int
	compactionThreshold int

	logger  Logger
	metrics *metrics
	codec   payloadCodec

	mu          sync.Mutex
	cond        *sync.Cond
	initialized bool

	ll    *list.List
	index map[string]*list.Element

	curSize        int64
	redundantCount int

	journal *os.File

	queue      *blockingqueue.Queue[job]
	workerDone chan struct{}
}

// New constructs a Cache rooted at cacheDir, bounded by maxCacheSize bytes
// and maxItemCount files, and immediately starts its background worker.
// The worker's first job replays the journal (or, if none exists yet,
// writes a fresh one) before any foreground operation is allowed to touch
// the index.
func New(cacheDir string, appVersion int64, maxCacheSize int64, maxItemCount int, opts ...Option) (*Cache, error) {
	if err := fsutil.EnsureDir(cacheDir); err != nil {
		return nil, fmt.Errorf("diskcache: creating cache dir %q: %w", cacheDir, err)
	}

	c := &Cache{
		dir:                 cacheDir,
		appVersion:          appVersion,
		maxSize:             maxCacheSize,
		maxItems:            maxItemCount,
		compactionThreshold: defaultCompactionThreshold,
		logger:              log.Default(),
		metrics:             noopMetrics(),
		ll:                  list.New(),
		index:               make(map[string]*list.Element),
		queue:               blockingqueue.New[job](),
		workerDone:          make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	go c.runWorker()
	c.queue.PushBack(jobInit{})

	return c, nil
}

// Put streams a new payload for key into the cache. The write callback runs
// without the cache's lock held. On success, the entry becomes the
// most-recently-used one and Put returns true; the durability write to the
// journal happens asynchronously on the background worker.
func (c *Cache) Put(key string, write Writer) bool {
	if key == "" {
		c.logger.Printf("diskcache: Put called with empty key")
		return false
	}

	sha1Key := sha1key.Of(key)
	subDir := filepath.Join(c.dir, sha1Key[:2])
	if err := fsutil.EnsureDir(subDir); err != nil {
		c.logger.Printf("diskcache: failed to create %q: %v", subDir, err)
		return false
	}

	file := c.entryPath(sha1Key)
	tmpFile := file + ".tmp"

	size, err := c.writeTempFile(tmpFile, write)
	if err != nil {
		fsutil.Remove(tmpFile)
		c.logger.Printf("diskcache: Put(%s) failed to write payload: %v", sha1Key, err)
		return false
	}

	c.mu.Lock()
	for !c.initialized {
		c.cond.Wait()
	}

	if err := fsutil.Rename(tmpFile, file); err != nil {
		c.mu.Unlock()
		fsutil.Remove(tmpFile)
		c.logger.Printf("diskcache: Put(%s) failed to commit temp file: %v", sha1Key, err)
		return false
	}

	wasPresent := c.indexUpsertLocked(sha1Key, size)
	c.mu.Unlock()

	c.metrics.puts.Inc()
	c.queue.PushBack(jobPut{sha1Key: sha1Key, size: size, wasPresent: wasPresent})

	return true
}

func (c *Cache) writeTempFile(tmpFile string, write Writer) (int64, error) {
	f, err := os.OpenFile(tmpFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var w io.Writer = f
	var closer io.Closer
	if c.codec != nil {
		enc, err := c.codec.wrapWriter(f)
		if err != nil {
			return 0, err
		}
		w = enc
		closer = enc
	}

	if err := write(w); err != nil {
		return 0, err
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			return 0, err
		}
	}

	return f.Seek(0, io.SeekCurrent)
}

// Get looks up key and, if present, opens its file and invokes read with
// the file's contents. The lock is released before read runs. If the index
// claims the key is present but its file is missing from disk (filesystem
// drift), Get reports a miss and schedules the stale index entry for
// removal.
func (c *Cache) Get(key string, read Reader) bool {
	sha1Key := sha1key.Of(key)

	c.mu.Lock()
	for !c.initialized {
		c.cond.Wait()
	}

	ele, hit := c.index[sha1Key]
	if !hit {
		c.mu.Unlock()
		c.metrics.misses.Inc()
		return false
	}

	file := c.entryPath(sha1Key)
	if !fsutil.FileExists(file) {
		c.mu.Unlock()
		c.logger.Printf("diskcache: index entry %s has no backing file, removing", sha1Key)
		c.queue.PushBack(jobRemove{sha1Key: sha1Key})
		c.metrics.misses.Inc()
		return false
	}

	c.ll.MoveToFront(ele)
	c.mu.Unlock()

	c.metrics.hits.Inc()
	c.queue.PushBack(jobGet{sha1Key: sha1Key})

	f, err := os.Open(file)
	if err != nil {
		c.logger.Printf("diskcache: Get(%s) failed to open %q: %v", sha1Key, file, err)
		return false
	}
	defer f.Close()

	var r io.Reader = f
	if c.codec != nil {
		dec, err := c.codec.wrapReader(f)
		if err != nil {
			c.logger.Printf("diskcache: Get(%s) failed to decode: %v", sha1Key, err)
			return false
		}
		defer dec.Close()
		r = dec
	}

	if err := read(r); err != nil {
		c.logger.Printf("diskcache: Get(%s) reader callback failed: %v", sha1Key, err)
		return false
	}
	return true
}

// Remove drops key from the cache, if present. The file deletion and
// journal write happen asynchronously on the background worker.
func (c *Cache) Remove(key string) {
	sha1Key := sha1key.Of(key)

	c.mu.Lock()
	for !c.initialized {
		c.cond.Wait()
	}
	_, hit := c.index[sha1Key]
	c.mu.Unlock()

	if !hit {
		return
	}

	c.queue.PushBack(jobRemove{sha1Key: sha1Key})
}

// Close tells the background worker to stop blocking for new jobs and
// waits for it to drain whatever is already queued and exit.
func (c *Cache) Close() {
	c.queue.QuitBlocking()
	<-c.workerDone

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.journal != nil {
		c.journal.Close()
		c.journal = nil
	}
}

// IsInitialized reports whether the background worker has finished
// replaying (or freshly writing) the journal and opened it for append.
func (c *Cache) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// ItemCount returns the number of entries currently in the cache.
func (c *Cache) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// MaxItemCount returns the configured maximum item count.
func (c *Cache) MaxItemCount() int {
	return c.maxItems
}

// CurrentCacheSize returns the sum of on-disk file sizes over all entries.
func (c *Cache) CurrentCacheSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curSize
}

// MaxCacheSize returns the configured maximum cache size in bytes.
func (c *Cache) MaxCacheSize() int64 {
	return c.maxSize
}

func (c *Cache) entryPath(sha1Key string) string {
	return filepath.Join(c.dir, sha1Key[:2], sha1Key[2:])
}

// indexUpsertLocked inserts or updates sha1Key at MRU with the given size,
// adjusting curSize accordingly. Must be called with the lock held. It
// reports whether the key was already present.
func (c *Cache) indexUpsertLocked(sha1Key string, size int64) (wasPresent bool) {
	defer c.reportSizeLocked()

	if ele, hit := c.index[sha1Key]; hit {
		e := ele.Value.(*diskEntry)
		c.curSize -= e.size
		e.size = size
		c.ll.MoveToFront(ele)
		c.curSize += size
		return true
	}

	ele := c.ll.PushFront(&diskEntry{sha1Key: sha1Key, size: size})
	c.index[sha1Key] = ele
	c.curSize += size
	return false
}

// removeLocked drops sha1Key from the in-memory index only (it does not
// touch the file or the journal); callers are responsible for those side
// effects. Must be called with the lock held.
func (c *Cache) removeLocked(sha1Key string) (size int64, ok bool) {
	ele, hit := c.index[sha1Key]
	if !hit {
		return 0, false
	}
	e := ele.Value.(*diskEntry)
	c.curSize -= e.size
	c.ll.Remove(ele)
	delete(c.index, sha1Key)
	c.reportSizeLocked()
	return e.size, true
}

// reportSizeLocked pushes the current size/item totals to the configured
// metrics collector. Must be called with the lock held.
func (c *Cache) reportSizeLocked() {
	c.metrics.size.Set(float64(c.curSize))
	c.metrics.items.Set(float64(c.ll.Len()))
}

// markRedundant records one journal line (written or replayed) that a
// compaction would later discard, bumping both the in-memory trigger
// counter and the exported metric.
func (c *Cache) markRedundant() {
	c.redundantCount++
	c.metrics.redundantLines.Inc()
}

// evictIfNeededLocked pops LRU entries (deleting their files and writing
// D journal lines inline) until the cache is back under 0.75 of both
// bounds. Must be called with the lock held; it is only ever invoked from
// the background worker while processing a jobPut.
func (c *Cache) evictIfNeededLocked() {
	if c.curSize <= c.maxSize && c.ll.Len() <= c.maxItems {
		return
	}

	targetSize := int64(float64(c.maxSize) * retainRatio)
	targetItems := int(float64(c.maxItems) * retainRatio)

	for c.curSize > targetSize || c.ll.Len() > targetItems {
		back := c.ll.Back()
		if back == nil {
			break
		}
		e := back.Value.(*diskEntry)
		c.deleteEntryLocked(e.sha1Key)
		c.metrics.evictions.Inc()
	}
}

// deleteEntryLocked removes sha1Key from the index, deletes its backing
// file, and appends a D line to the journal. Must be called with the lock
// held, and only from the background worker (the journal handle is only
// ever touched there).
func (c *Cache) deleteEntryLocked(sha1Key string) {
	if _, ok := c.removeLocked(sha1Key); !ok {
		return
	}

	if err := fsutil.Remove(c.entryPath(sha1Key)); err != nil {
		c.logger.Printf("diskcache: failed to remove file for %s: %v", sha1Key, err)
	}

	c.writeJournalLine(actionDelete, sha1Key, 0)
	c.markRedundant()

	c.compact(false, false)
}
