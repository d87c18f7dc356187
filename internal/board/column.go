package board

import (
	"github.com/dori/swimlane/internal/model"
)

// ColumnDef describes one column of the board
type ColumnDef struct {
	Status model.Status
	Label  string
}

// Column is a projected bucket of tasks sharing one status. It is rebuilt on
// every store change and has no identity beyond Status.
type Column struct {
	Status model.Status
	Label  string
	Tasks  []model.Task
}

// Count returns the number of tasks in the column
func (c Column) Count() int {
	return len(c.Tasks)
}

// Projection is the result of partitioning a task collection into columns
type Projection struct {
	Columns []Column

	// Tasks whose status matched no column, in input order
	Anomalies []model.Task
}

// AnomalyCount returns how many tasks were left out of every column
func (p Projection) AnomalyCount() int {
	return len(p.Anomalies)
}

// Column returns the column for status, if the projection has one
func (p Projection) Column(status model.Status) (Column, bool) {
	for _, c := range p.Columns {
		if c.Status == status {
			return c, true
		}
	}
	return Column{}, false
}

// DefaultColumns returns the four board columns in board order
func DefaultColumns() []ColumnDef {
	statuses := model.Statuses()
	defs := make([]ColumnDef, 0, len(statuses))
	for _, s := range statuses {
		defs = append(defs, ColumnDef{Status: s, Label: s.Label()})
	}
	return defs
}

// Project partitions tasks into one column per def. Tasks keep the relative
// order of the input; tasks with a status no def names become anomalies.
// When two defs share a status the first one wins and the second is dropped.
func Project(tasks []model.Task, defs []ColumnDef) Projection {
	index := make(map[model.Status]int, len(defs))
	columns := make([]Column, 0, len(defs))
	for _, def := range defs {
		if _, dup := index[def.Status]; dup {
			continue
		}
		label := def.Label
		if label == "" {
			label = def.Status.Label()
		}
		index[def.Status] = len(columns)
		columns = append(columns, Column{Status: def.Status, Label: label, Tasks: []model.Task{}})
	}

	var anomalies []model.Task
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			anomalies = append(anomalies, t)
			continue
		}
		columns[i].Tasks = append(columns[i].Tasks, t)
	}

	return Projection{Columns: columns, Anomalies: anomalies}
}
