// Package vec bridges foreign growable vectors to Go.
//
// A vector of T is driven through a Witness: the record of container
// functions the foreign side exports for that element type under
// __bridge__$Vec_<elem>$<op>. Primitive elements cross by value and come
// back from pop and get as Option aggregates; reference elements cross as
// addresses where Null means absent.
//
// Ownership follows the element: Push moves an owned element into the
// vector, Pop moves one out as owned, Get lends a borrowed view that must
// not outlive the vector.
package vec
