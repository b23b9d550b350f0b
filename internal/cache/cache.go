// Package cache memoizes refine.Result by the content of the group it
// was computed from, so a hunk that repeats (a rename diff showing the
// same two lines twice, or a --watch re-read of an unchanged file)
// skips the LCS engine entirely. It is a two-tier cache: an in-process
// LRU in front of an on-disk BadgerDB, checked cache-then-db on every
// lookup.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/xerus2000/diffr/internal/refine"
)

// CompressThreshold is the encoded-size floor above which an entry is
// zstd-compressed before being written to the disk tier.
const CompressThreshold = 512

// compressedMeta flags a Badger entry's value as zstd-compressed.
const compressedMeta byte = 1

// Options configures a Cache.
type Options struct {
	// Dir is the BadgerDB directory. Empty disables the disk tier;
	// the in-process LRU still applies within a single run.
	Dir string
	// LRUSize bounds the in-process tier. Zero uses a 512-entry default.
	LRUSize int
}

// Cache is a content-addressed store from a group's removed/added byte
// arenas to the refine.Result computed from them.
type Cache struct {
	lru    *lru.Cache[string, refine.Result]
	db     *badger.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	gcStop chan struct{}
}

// Open builds a Cache from opts. If opts.Dir is empty, only the
// in-process tier is active and Close is a no-op.
func Open(opts Options) (*Cache, error) {
	size := opts.LRUSize
	if size <= 0 {
		size = 512
	}
	l, err := lru.New[string, refine.Result](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}

	c := &Cache{lru: l}

	if opts.Dir != "" {
		badgerOpts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
		db, err := badger.Open(badgerOpts)
		if err != nil {
			return nil, fmt.Errorf("opening badger db at %s: %w", opts.Dir, err)
		}
		c.db = db
		c.gcStop = make(chan struct{})
		go c.runValueLogGC()
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	c.enc, c.dec = enc, dec

	return c, nil
}

// Key derives the content-addressed cache key for one group's arenas.
// The two arenas are separated by a NUL byte, so two (removed, added)
// pairs that split the same concatenated bytes differently get
// different keys unless an arena itself contains a NUL byte.
func Key(removedArena, addedArena []byte) string {
	h := sha256.New()
	h.Write(removedArena)
	h.Write([]byte{0})
	h.Write(addedArena)
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up key, checking the LRU tier first and falling back to
// the disk tier (populating the LRU on a disk hit).
func (c *Cache) Get(key string) (refine.Result, bool) {
	if res, ok := c.lru.Get(key); ok {
		return res, true
	}
	if c.db == nil {
		return refine.Result{}, false
	}

	var res refine.Result
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := c.decodeValue(item.UserMeta(), val)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(decoded, &res); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil || !found {
		return refine.Result{}, false
	}
	c.lru.Add(key, res)
	return res, true
}

// Put stores res under key in both tiers.
func (c *Cache) Put(key string, res refine.Result) error {
	c.lru.Add(key, res)
	if c.db == nil {
		return nil
	}

	encoded, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshaling refine result: %w", err)
	}

	meta := byte(0)
	value := encoded
	if len(encoded) > CompressThreshold {
		value = c.enc.EncodeAll(encoded, nil)
		meta = compressedMeta
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value).WithMeta(meta)
		return txn.SetEntry(entry)
	})
}

// Close releases the disk tier, if open.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	close(c.gcStop)
	return c.db.Close()
}

// runValueLogGC reclaims space from compacted value-log files on a
// fixed interval, the pattern Badger's own docs recommend for any
// process that keeps a DB open longer than one batch of writes.
func (c *Cache) runValueLogGC() {
	ticker := time.NewTicker(DefaultGCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.gcStop:
			return
		case <-ticker.C:
			for c.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

func (c *Cache) decodeValue(meta byte, val []byte) ([]byte, error) {
	if meta != compressedMeta {
		out := make([]byte, len(val))
		copy(out, val)
		return out, nil
	}
	return c.dec.DecodeAll(val, nil)
}

// DefaultGCInterval is how often a long-lived cache (--watch mode)
// should run Badger's value-log garbage collection.
const DefaultGCInterval = 10 * time.Minute
