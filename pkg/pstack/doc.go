// Package pstack implements a persistent singly-linked stack, that is, a stack whose values
// don't change on any operation; instead, new, independent values are derived from them
// and share the unchanged part of the list with the value they came from.
//
// Nodes are never written after construction, so a Stack may be read from any number of
// goroutines at once. Memory for a shared suffix is reclaimed by the garbage collector once
// no stack references it. See package rcstack for a rendition with explicit reference
// counting and deterministic release.
package pstack
