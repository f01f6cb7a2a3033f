// Package region turns a line stream into a tree of nested regions.
//
// A region (an Encapsulation) starts on a line matching a configured begin
// pattern and ends on a line matching an end pattern. Lines between them
// become its content, and regions nest. Each source owns one Content tree;
// Append is the only mutation and is called from a single goroutine.
//
// End lines always close the innermost open region, whichever pair opened
// it. End lines with nothing open are dropped.
package region
