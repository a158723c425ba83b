// Package cache provides a tag-only last-level cache built on the Akita cache
// directory. It decides which accesses of a memory trace reach DRAM; it does
// not hold data.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size" yaml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" yaml:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
}

// DefaultLLCConfig returns the default last-level cache in front of each
// DRAM controller: 2MB, 16-way, 64B lines.
func DefaultLLCConfig() Config {
	return Config{
		Size:          2 * 1024 * 1024,
		Associativity: 16,
		BlockSize:     64,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// BlockAddr is the block-aligned address that was accessed.
	BlockAddr uint64
	// Evicted is true if a valid block was replaced.
	Evicted bool
	// EvictedAddr is the address of the evicted block (if Evicted is true).
	EvictedAddr uint64
	// Writeback is true if the evicted block was dirty and must be written
	// to memory.
	Writeback bool
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// Cache is a write-back, write-allocate cache that tracks tags only.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a new cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// Access looks up addr, allocating the block on a miss.
func (c *Cache) Access(addr uint64, write bool) AccessResult {
	if write {
		c.stats.Writes++
	} else {
		c.stats.Reads++
	}

	blockAddr := c.blockAddr(addr)
	block := c.directory.Lookup(0, blockAddr) // PID=0 for now

	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU
		if write {
			block.IsDirty = true
		}

		return AccessResult{Hit: true, BlockAddr: blockAddr}
	}

	c.stats.Misses++
	return c.handleMiss(blockAddr, write)
}

// handleMiss replaces the LRU block of the set with blockAddr.
func (c *Cache) handleMiss(blockAddr uint64, write bool) AccessResult {
	result := AccessResult{BlockAddr: blockAddr}

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		// This shouldn't happen with proper directory setup
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = victim.Tag // Tag stores block-aligned address

		if victim.IsDirty {
			c.stats.Writebacks++
			result.Writeback = true
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = write

	c.directory.Visit(victim) // Update LRU

	return result
}

// Flush invalidates every block and returns the addresses of the dirty ones,
// which must be written back.
func (c *Cache) Flush() []uint64 {
	var dirty []uint64

	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				dirty = append(dirty, block.Tag)
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}

	return dirty
}
