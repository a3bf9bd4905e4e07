package planner

import "github.com/ALT-F4-LLC/mailvault/internal/linkfile"

// Dependency states that rows of Table reference rows of DependsOn, so
// DependsOn rows must be inserted first.
type Dependency struct {
	Table     linkfile.Table
	DependsOn linkfile.Table
}

// RowDependencies are the foreign-key directions between link file tables.
var RowDependencies = []Dependency{
	{linkfile.TableEmail, linkfile.TableContact},
	{linkfile.TableEmail, linkfile.TableLabel},
	{linkfile.TableEmailLabel, linkfile.TableEmail},
	{linkfile.TableEmailLabel, linkfile.TableLabel},
	{linkfile.TableEmailContact, linkfile.TableEmail},
	{linkfile.TableEmailContact, linkfile.TableContact},
	{linkfile.TableFile, linkfile.TableEmail},
}

// Node is a table with forward and reverse dependency edges.
// Forward edges point from a table to the tables that reference it.
// Reverse edges point from a table to the tables it references.
type Node struct {
	Table   linkfile.Table
	Forward map[linkfile.Table]struct{}
	Reverse map[linkfile.Table]struct{}
}

// DAG holds the dependency graph between tables.
type DAG struct {
	Nodes map[linkfile.Table]*Node
}

// BuildDAG constructs a DAG over tables. Dependencies that mention a table
// not in the input are ignored.
func BuildDAG(tables []linkfile.Table, deps []Dependency) *DAG {
	dag := &DAG{
		Nodes: make(map[linkfile.Table]*Node, len(tables)),
	}

	for _, t := range tables {
		dag.Nodes[t] = &Node{
			Table:   t,
			Forward: make(map[linkfile.Table]struct{}),
			Reverse: make(map[linkfile.Table]struct{}),
		}
	}

	for _, d := range deps {
		from, fromOK := dag.Nodes[d.DependsOn]
		to, toOK := dag.Nodes[d.Table]
		if !fromOK || !toOK {
			continue
		}
		from.Forward[d.Table] = struct{}{}
		to.Reverse[d.DependsOn] = struct{}{}
	}

	return dag
}
