// Package resource provides the named allocation strategies that back memory
// spaces, and the manager that tracks every live allocation they hand out.
//
// # Overview
//
// A Resource is a named strategy ("HOST", "DEVICE", ...) that can allocate and
// free raw byte ranges and grant access to them. The Manager is the
// process-wide registry of resources: it resolves strategy names to Allocator
// handles and records every allocation so that FindAllocation can map any
// address back to the allocation that contains it.
//
// # Built-in Resources
//
// DefaultManager registers four arenas, one per platform:
//
//	HOST        host memory
//	DEVICE      device memory, not host-accessible (guarded)
//	UM          unified memory, host-accessible
//	HOSTPINNED  pinned host memory
//
// Each arena reserves one contiguous anonymous mapping up front and carves
// allocations out of it first-fit, coalescing adjacent free spans on release.
// A guarded arena keeps its mapping inaccessible except inside Access, so a
// stray host load from device memory faults.
//
// # Usage Example
//
//	m := resource.Default()
//	a, err := m.Allocator("DEVICE")
//	if err != nil {
//	    return err
//	}
//	p := a.Allocate(4096)
//	if p == 0 {
//	    // out of memory
//	}
//	defer a.Deallocate(p)
//
// # Thread Safety
//
// Managers and arenas are safe for concurrent use.
package resource
