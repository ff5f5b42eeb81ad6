// Package alloc implements the aligned raw allocator used by memory spaces.
//
// Every request is over-allocated from the underlying strategy by
// size + 8 + alignment bytes. The returned address is the first multiple of the
// alignment that leaves room for one pointer-width word in front of it; that
// word holds the address the strategy actually returned and is read back on
// deallocation.
//
//	base            p-8       p
//	 |   slack ...   | base  |  size bytes ...  | slack |
//
// The stash word is written and read through the op registry rather than by
// host stores, so the scheme works for memory the host cannot touch.
package alloc
