// Package dag provides a small directed dependency graph with a
// deterministic topological sort.
//
// Nodes keep their insertion order. [Graph.Sort] runs Kahn's algorithm and,
// among nodes that are ready at the same time, always emits the one that was
// added first, so two graphs built from the same declarations sort
// identically. When the graph is not acyclic the returned [*CycleError]
// carries one offending cycle as a list of node IDs.
package dag
