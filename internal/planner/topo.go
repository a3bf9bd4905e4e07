package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ALT-F4-LLC/mailvault/internal/linkfile"
)

// CycleError is returned when the DAG contains a cycle and topological
// sorting is not possible.
type CycleError struct {
	Tables []linkfile.Table
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Tables))
	for i, t := range e.Tables {
		parts[i] = string(t)
	}
	return fmt.Sprintf("cycle detected among tables: %s", strings.Join(parts, ", "))
}

// rank orders tables within a level by their position in linkfile.Tables;
// unknown tables sort last by name.
func rank(a, b linkfile.Table) int {
	ia, ib := slices.Index(linkfile.Tables, a), slices.Index(linkfile.Tables, b)
	switch {
	case ia >= 0 && ib >= 0:
		return ia - ib
	case ia >= 0:
		return -1
	case ib >= 0:
		return 1
	default:
		return strings.Compare(string(a), string(b))
	}
}

// TopoSort performs a topological sort on the DAG using Kahn's algorithm.
// It returns tables grouped by level: level 0 holds tables with no
// dependencies, level 1 tables whose dependencies are all in level 0, and so
// on.
func TopoSort(dag *DAG) ([][]linkfile.Table, error) {
	inDegree := make(map[linkfile.Table]int, len(dag.Nodes))
	for t, node := range dag.Nodes {
		inDegree[t] = len(node.Reverse)
	}

	var queue []linkfile.Table
	for t, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, t)
		}
	}

	var levels [][]linkfile.Table
	processed := 0

	for len(queue) > 0 {
		level := slices.Clone(queue)
		slices.SortFunc(level, rank)
		levels = append(levels, level)
		processed += len(level)

		var next []linkfile.Table
		for _, t := range level {
			for neighbor := range dag.Nodes[t].Forward {
				inDegree[neighbor]--
				if inDegree[neighbor] == 0 {
					next = append(next, neighbor)
				}
			}
		}
		queue = next
	}

	if processed != len(dag.Nodes) {
		var cycle []linkfile.Table
		for t, deg := range inDegree {
			if deg > 0 {
				cycle = append(cycle, t)
			}
		}
		slices.SortFunc(cycle, rank)
		return nil, &CycleError{Tables: cycle}
	}

	return levels, nil
}
