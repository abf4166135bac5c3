// Package euler linearizes an array-encoded binary tree into an Euler tour
// and derives node depths from suffix sums over that tour.
//
// Every tree edge appears twice in the [Adjacency] arena, once per direction.
// Each directed edge u→v has exactly one tour successor: the edge after v→u
// in v's chain, or the first edge of v's chain when v→u is last.
// Following successors from the root's first descent visits every directed edge
// once and returns to the start; [AssembleTour] performs that walk and
// [ValidateTour] checks it.
//
// Along the tour a descent lowers the level by one and an ascent raises it,
// so the signed sum of every entry after a descent, up to the end of the tour
// where the walk is back at the root, is the depth of the node that descent enters.
// See [SuffixWeight] and [Depth].
//
// The types here are plain values over [tree.Label] so they can be copied
// between goroutines and encoded by the wire package without extra translation.
package euler
