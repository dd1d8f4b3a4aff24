// Package str bridges foreign owned strings and borrowed string views.
//
// A String is an owned foreign string held through a handle. A View is a
// borrowed (ptr, len) slice of UTF-8 bytes in the foreign heap; it is only
// valid while the string it came from is alive and unmodified. Both cross
// the boundary in fixed shapes: an owned string as its address, a view as
// the 8-byte Str aggregate.
//
// Every transfer validates UTF-8. Invalid bytes trap with
// errors.KindInvalidUTF8.
package str
