// Package rcstack implements a persistent singly-linked stack with explicit reference
// counting.
//
// Nodes are stored in an Arena and addressed by slot index. Every Stack handle owns one
// reference to its top node and every node owns one reference to the node below it. A
// slot is reclaimed exactly when its count drops to zero, which happens inside
// Stack.Release: dropping the last reference to a node drops its reference to the next
// one, and so on down the chain, in a loop rather than by recursion.
//
// An Arena is meant for a single goroutine. Build it with WithConcurrentSafety to share
// it, and the stacks allocated from it, across goroutines.
package rcstack
