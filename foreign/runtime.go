package foreign

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	ffibridge "github.com/wippyai/ffi-bridge"
	"github.com/wippyai/ffi-bridge/errors"
	"github.com/wippyai/ffi-bridge/heap"
	"github.com/wippyai/ffi-bridge/resource"
	"go.uber.org/zap"
)

// Runtime is the ownership runtime: a heap, the objects boxed in it, the
// exported symbol table and the task executor.
type Runtime struct {
	heap    *heap.Heap
	objects *resource.Table
	exec    *Executor
	ctx     context.Context
	cancel  context.CancelFunc
	symbols map[string]any
	types   map[string]uint32
	cfg     Config
	symMu   sync.RWMutex
	typeMu  sync.Mutex
	closed  atomic.Bool
}

var _ ffibridge.Symbols = (*Runtime)(nil)

// New creates a runtime. Zero config fields take their defaults.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backing heap.Backing
	switch cfg.Backend {
	case BackendWazero:
		mem, err := heap.NewWazeroMemory(ctx, cfg.InitialPages, cfg.MaxPages)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRuntime, errors.KindNotInitialized, err, "wazero heap")
		}
		backing = mem
	default:
		backing = heap.NewLinear(cfg.InitialPages, cfg.MaxPages)
	}

	h := heap.New(backing)
	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	rt := &Runtime{
		heap:    h,
		objects: resource.NewTable(h),
		exec:    NewExecutor(cfg.Workers, cfg.QueueDepth),
		ctx:     rctx,
		cancel:  cancel,
		symbols: make(map[string]any),
		types:   make(map[string]uint32),
		cfg:     cfg,
	}

	if err := rt.exportBoxedFn(); err != nil {
		rt.Close(ctx)
		return nil, err
	}

	Logger().Debug("runtime created",
		zap.String("backend", string(cfg.Backend)),
		zap.Uint32("initial_pages", cfg.InitialPages),
		zap.Int("workers", cfg.Workers))

	return rt, nil
}

// Close stops the executor, drops every boxed object and releases the heap.
func (r *Runtime) Close(ctx context.Context) error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.cancel()
	r.exec.Close()
	if err := r.objects.Close(); err != nil {
		return err
	}
	return r.heap.Close(ctx)
}

func (r *Runtime) Config() Config { return r.cfg }

func (r *Runtime) Heap() *heap.Heap { return r.heap }

func (r *Runtime) Objects() *resource.Table { return r.objects }

func (r *Runtime) Executor() *Executor { return r.exec }

// Context is cancelled when the runtime closes.
func (r *Runtime) Context() context.Context { return r.ctx }

// Export publishes fn under name. Names are unique.
func (r *Runtime) Export(name string, fn any) error {
	if fn == nil {
		return errors.Registration(errors.PhaseRuntime, name, errors.NilPointer(errors.PhaseRuntime, nil, "symbol"))
	}

	r.symMu.Lock()
	defer r.symMu.Unlock()

	if _, exists := r.symbols[name]; exists {
		return errors.New(errors.PhaseRuntime, errors.KindRegistration).
			Symbol(name).
			Detail("symbol already exported").
			Build()
	}
	r.symbols[name] = fn
	Logger().Debug("symbol exported", zap.String("symbol", name))
	return nil
}

// Lookup implements ffibridge.Symbols.
func (r *Runtime) Lookup(name string) (any, bool) {
	r.symMu.RLock()
	defer r.symMu.RUnlock()
	fn, ok := r.symbols[name]
	return fn, ok
}

// Symbols returns every exported name in sorted order.
func (r *Runtime) Symbols() []string {
	r.symMu.RLock()
	names := make([]string, 0, len(r.symbols))
	for n := range r.symbols {
		names = append(names, n)
	}
	r.symMu.RUnlock()
	sort.Strings(names)
	return names
}

// TypeID returns the ID of a declared type name, assigning one on first use.
func (r *Runtime) TypeID(name string) uint32 {
	r.typeMu.Lock()
	defer r.typeMu.Unlock()
	if id, ok := r.types[name]; ok {
		return id
	}
	id := uint32(len(r.types) + 1)
	r.types[name] = id
	return id
}

// Box moves v into the runtime and returns its address.
func (r *Runtime) Box(typeName string, v any) (ffibridge.Addr, error) {
	if r.closed.Load() {
		return 0, resource.ErrClosed
	}
	return r.objects.Insert(r.TypeID(typeName), v)
}

// Deref returns the boxed value at addr.
func (r *Runtime) Deref(addr ffibridge.Addr) (any, bool) {
	return r.objects.Get(addr)
}

// Unbox moves the value at addr out of the runtime without dropping it.
func (r *Runtime) Unbox(addr ffibridge.Addr) (any, error) {
	return r.objects.Take(addr)
}

// Drop destroys the object at addr. Dropping an address that holds no
// object traps.
func (r *Runtime) Drop(addr ffibridge.Addr) {
	if addr == ffibridge.Null {
		return
	}
	if _, err := r.objects.Remove(addr); err != nil {
		if _, live := r.objects.Get(addr); !live {
			errors.Trap(errors.DoubleFree(errors.PhaseRuntime, addr))
		}
		errors.Trap(errors.Wrap(errors.PhaseOwnership, errors.KindAliasing, err, "drop while borrowed"))
	}
}

// dropOwned drops an object owned by another object. While the runtime is
// closing, the table may already have dropped it.
func (r *Runtime) dropOwned(addr ffibridge.Addr) {
	if r.closed.Load() {
		_, _ = r.objects.Remove(addr)
		return
	}
	r.Drop(addr)
}

// mustGet returns the value at addr with the expected type or traps.
func mustGet[V any](r *Runtime, typeName string, addr ffibridge.Addr) V {
	v, ok := r.objects.GetTyped(addr, r.TypeID(typeName))
	if !ok {
		errors.Trap(errors.New(errors.PhaseRuntime, errors.KindNotFound).
			DeclType(typeName).
			Value(addr).
			Detail("no live %s at %#x", typeName, addr).
			Build())
	}
	return v.(V)
}
