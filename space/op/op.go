// Package op is the registry of byte-transfer operations between resources.
//
// Operations are looked up by kind ("COPY") and the platforms of the source
// and destination resources. The default registry covers every pair of
// built-in platforms; a missing pair surfaces as CopyUnsupported.
package op

import (
	"fmt"
	"sync"

	"github.com/joshuapare/spacekit/pkg/types"
	"github.com/joshuapare/spacekit/space/resource"
)

// KindCopy is the operation kind used for deep copies.
const KindCopy = "COPY"

// Endpoint is one side of a transfer. When Host is non-nil the endpoint is a
// plain host buffer of exactly len(Host) bytes and Addr is ignored; otherwise
// [Addr, Addr+n) is reached through Resource.Access.
type Endpoint struct {
	Resource resource.Resource
	Addr     uintptr
	Host     []byte
}

// HostEndpoint builds the throwaway descriptor for an untracked host buffer.
func HostEndpoint(host resource.Resource, b []byte) Endpoint {
	return Endpoint{Resource: host, Host: b}
}

// Strategy returns the endpoint's strategy name.
func (e Endpoint) Strategy() string {
	if e.Resource == nil {
		return ""
	}
	return e.Resource.Name()
}

// Platform returns the endpoint's platform. Bare host buffers without a
// resource count as host memory.
func (e Endpoint) Platform() resource.Platform {
	if e.Resource == nil {
		return resource.PlatformHost
	}
	return e.Resource.Platform()
}

// access calls fn with n bytes of the endpoint.
func (e Endpoint) access(n int, fn func([]byte)) error {
	if e.Host != nil {
		if n > len(e.Host) {
			return fmt.Errorf("op: host buffer holds %d bytes, need %d", len(e.Host), n)
		}
		fn(e.Host[:n])
		return nil
	}
	if e.Resource == nil {
		return fmt.Errorf("op: endpoint has neither host buffer nor resource")
	}
	return e.Resource.Access(e.Addr, n, fn)
}

// Operation transforms n bytes from src into dst.
type Operation interface {
	Transform(src, dst Endpoint, n int) error
}

// OperationFunc adapts a function to Operation.
type OperationFunc func(src, dst Endpoint, n int) error

// Transform implements Operation.
func (f OperationFunc) Transform(src, dst Endpoint, n int) error { return f(src, dst, n) }

type key struct {
	kind     string
	src, dst resource.Platform
}

// Registry maps (kind, source platform, destination platform) to operations.
type Registry struct {
	mu  sync.RWMutex
	ops map[key]Operation
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[key]Operation)}
}

// NewDefaultRegistry returns a registry with COPY registered for every pair of
// built-in platforms.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	platforms := []resource.Platform{
		resource.PlatformHost,
		resource.PlatformDevice,
		resource.PlatformUnified,
		resource.PlatformPinned,
	}
	for _, src := range platforms {
		for _, dst := range platforms {
			switch {
			case src.HostAccessible() || dst.HostAccessible():
				r.Register(KindCopy, src, dst, OperationFunc(directCopy))
			default:
				r.Register(KindCopy, src, dst, OperationFunc(stagedCopy))
			}
		}
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultOnce.Do(func() { defaultRegistry = NewDefaultRegistry() })
	return defaultRegistry
}

// Register installs op for the given kind and platform pair, replacing any
// previous registration.
func (r *Registry) Register(kind string, src, dst resource.Platform, op Operation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[key{kind, src, dst}] = op
}

// Find returns the operation for kind between the two platforms.
func (r *Registry) Find(kind string, src, dst resource.Platform) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[key{kind, src, dst}]
	if !ok {
		return nil, &types.Error{
			Kind: types.ErrKindCopyUnsupported,
			Msg:  fmt.Sprintf("op: no %s operation from %s to %s", kind, src, dst),
		}
	}
	return op, nil
}

// Transfer is shorthand for finding and running the COPY operation between
// two endpoints.
func (r *Registry) Transfer(src, dst Endpoint, n int) error {
	op, err := r.Find(KindCopy, src.Platform(), dst.Platform())
	if err != nil {
		return err
	}
	return op.Transform(src, dst, n)
}

// directCopy copies while both endpoints are open at once. At most one side
// may be guarded, so the nested access cannot deadlock.
func directCopy(src, dst Endpoint, n int) error {
	if n == 0 {
		return nil
	}
	var inner error
	err := src.access(n, func(s []byte) {
		inner = dst.access(n, func(d []byte) {
			copy(d, s)
		})
	})
	if err != nil {
		return err
	}
	return inner
}

// stagedCopy bounces through a host buffer so only one guarded mapping is open
// at a time.
func stagedCopy(src, dst Endpoint, n int) error {
	if n == 0 {
		return nil
	}
	staging := make([]byte, n)
	if err := src.access(n, func(s []byte) { copy(staging, s) }); err != nil {
		return err
	}
	return dst.access(n, func(d []byte) { copy(d, staging) })
}
