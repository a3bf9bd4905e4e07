// Package planner orders link file rows so that every row is inserted after
// the rows it references.
package planner

import "github.com/ALT-F4-LLC/mailvault/internal/linkfile"

// FlushOrder flattens the topological levels of dag into a single table
// order.
func FlushOrder(dag *DAG) ([]linkfile.Table, error) {
	levels, err := TopoSort(dag)
	if err != nil {
		return nil, err
	}
	var order []linkfile.Table
	for _, level := range levels {
		order = append(order, level...)
	}
	return order, nil
}

// DefaultOrder is the flush order for the built-in table dependencies.
func DefaultOrder() []linkfile.Table {
	order, err := FlushOrder(BuildDAG(linkfile.Tables, RowDependencies))
	if err != nil {
		panic(err)
	}
	return order
}

// Order returns rows grouped by table in the given order, keeping the file
// order within each table. Rows of tables not in order are appended last.
func Order(rows []linkfile.Row, order []linkfile.Table) []linkfile.Row {
	buckets := make(map[linkfile.Table][]linkfile.Row, len(order))
	for _, r := range rows {
		buckets[r.Table()] = append(buckets[r.Table()], r)
	}

	out := make([]linkfile.Row, 0, len(rows))
	placed := make(map[linkfile.Table]struct{}, len(order))
	for _, t := range order {
		out = append(out, buckets[t]...)
		placed[t] = struct{}{}
	}
	for _, r := range rows {
		if _, ok := placed[r.Table()]; !ok {
			out = append(out, r)
		}
	}
	return out
}
