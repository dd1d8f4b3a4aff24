// Package resource provides the ownership runtime's object table.
//
// Every opaque value boxed by the ownership runtime lives at a real heap
// address. The table maps that address to the Go value, its declared type ID
// and its borrow state. Address 0 is reserved and never names an object.
//
// # Object Lifecycle
//
//	owned      - the holder of the address must eventually drop it
//	borrowed   - shared access; any number may coexist
//	borrowed   - exclusive access; no other borrow may coexist
//	  mut
//	drop       - Remove runs Dropper.Drop and releases the heap cell
//	take       - Take moves the value out without running its destructor
//
// # Table
//
//	table := resource.NewTable(h)
//
//	addr, err := table.Insert(stackTypeID, stack)
//	value, ok := table.GetTyped(addr, stackTypeID)
//	err = table.Borrow(addr, resource.Exclusive)
//	table.ReturnBorrow(addr, resource.Exclusive)
//	value, ok = table.Remove(addr)
//
// # Observers
//
// Observers receive lifecycle events synchronously:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    if e.Type == resource.EventDropped {
//	        log.Printf("object %#x dropped", e.Addr)
//	    }
//	}))
//
// # Memory Management
//
// Objects are not garbage collected. The managed runtime frees owned handles
// explicitly. Close drops every remaining object.
package resource
