// Package schema orders tables so that referenced tables come before the
// tables referencing them.
package schema

import (
	"log"
	"strings"
)

// Build turns (table, referenced table) pairs into graph nodes for tables.
// Self references and references to tables outside tables are dropped;
// names are matched case-insensitively and keep the case of tables.
func Build(tables []string, refs [][2]string) []*Table {
	byKey := make(map[string]*Table, len(tables))
	nodes := make([]*Table, 0, len(tables))
	for _, name := range tables {
		key := strings.ToUpper(name)
		if _, dup := byKey[key]; dup {
			continue
		}
		t := &Table{Name: name, Dependencies: []string{}}
		byKey[key] = t
		nodes = append(nodes, t)
	}

	seen := make(map[[2]string]bool)
	for _, ref := range refs {
		from, to := strings.ToUpper(ref[0]), strings.ToUpper(ref[1])
		if from == to || seen[[2]string{from, to}] {
			continue
		}
		t, ok := byKey[from]
		if !ok {
			continue
		}
		dep, ok := byKey[to]
		if !ok {
			continue
		}
		seen[[2]string{from, to}] = true
		t.Dependencies = append(t.Dependencies, dep.Name)
	}
	return nodes
}

// LoadOrder sorts tables by dependency. Cycles are broken by picking the
// table with the fewest pending dependencies, preferring tables on a cycle.
func LoadOrder(tables []*Table, logger *log.Logger) []*Table {
	if logger == nil {
		logger = log.Default()
	}
	byName := make(map[string]*Table, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
	}

	sorted := make([]*Table, 0, len(tables))
	done := make(map[string]bool, len(tables))

	for len(sorted) < len(tables) {
		added := false
		for _, t := range tables {
			if done[t.Name] || pending(t, done) > 0 {
				continue
			}
			sorted = append(sorted, t)
			done[t.Name] = true
			added = true
		}
		if added {
			continue
		}

		var best *Table
		bestScore := 0
		for _, t := range tables {
			if done[t.Name] {
				continue
			}
			score := -100 * pending(t, done)
			if onCycle(t, byName, done) {
				score += 500
			}
			if best == nil || score > bestScore || (score == bestScore && t.Name < best.Name) {
				best, bestScore = t, score
			}
		}
		sorted = append(sorted, best)
		done[best.Name] = true
		logger.Printf("[Sort] Breaking circular dependency: %s (Score: %d)", best.Name, bestScore)
	}
	return sorted
}

// Names returns the table names in order.
func Names(tables []*Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

func pending(t *Table, done map[string]bool) int {
	n := 0
	for _, dep := range t.Dependencies {
		if !done[dep] {
			n++
		}
	}
	return n
}

// onCycle reports whether a pending dependency of t references t back.
func onCycle(t *Table, byName map[string]*Table, done map[string]bool) bool {
	for _, depName := range t.Dependencies {
		if done[depName] {
			continue
		}
		dep, ok := byName[depName]
		if !ok {
			continue
		}
		for _, back := range dep.Dependencies {
			if back == t.Name {
				return true
			}
		}
	}
	return false
}
