package schema_test

import (
	"bytes"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"db-image/internal/schema"
)

var quiet = log.New(io.Discard, "", 0)

func TestLoadOrder_ComplexCircular(t *testing.T) {
	// A -> B -> C -> D -> E -> A, F -> E, G standalone
	tables := []*schema.Table{
		{Name: "A", Dependencies: []string{"B"}},
		{Name: "B", Dependencies: []string{"C"}},
		{Name: "C", Dependencies: []string{"D"}},
		{Name: "D", Dependencies: []string{"E"}},
		{Name: "E", Dependencies: []string{"A"}},
		{Name: "F", Dependencies: []string{"E"}},
		{Name: "G", Dependencies: []string{}},
	}

	var logs bytes.Buffer
	sorted := schema.LoadOrder(tables, log.New(&logs, "", 0))

	if len(sorted) != len(tables) {
		t.Fatalf("Expected %d tables, got %d", len(tables), len(sorted))
	}
	if sorted[0].Name != "G" {
		t.Errorf("Expected independent table G first, got %s", sorted[0].Name)
	}

	pos := make(map[string]int)
	for i, tbl := range sorted {
		pos[tbl.Name] = i
	}
	if pos["F"] < pos["E"] {
		t.Errorf("Expected F after E, got %v", schema.Names(sorted))
	}
	if !strings.Contains(logs.String(), "Breaking circular dependency") {
		t.Errorf("Expected the cycle break to be logged, got %q", logs.String())
	}
}

func TestLoadOrder_Simple(t *testing.T) {
	// Users -> Orders -> OrderItems
	tables := []*schema.Table{
		{Name: "OrderItems", Dependencies: []string{"Orders"}},
		{Name: "Orders", Dependencies: []string{"Users"}},
		{Name: "Users", Dependencies: []string{}},
	}

	got := schema.Names(schema.LoadOrder(tables, quiet))
	want := []string{"Users", "Orders", "OrderItems"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestBuild(t *testing.T) {
	tables := []string{"Orders", "Customers", "OrderItems"}
	refs := [][2]string{
		{"ORDERS", "customers"},
		{"Orders", "Customers"}, // second column of the same key
		{"OrderItems", "Orders"},
		{"OrderItems", "Products"}, // not imported
		{"Customers", "Customers"}, // self reference
		{"Audit", "Orders"},        // not imported
	}

	nodes := schema.Build(tables, refs)
	if len(nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(nodes))
	}
	deps := make(map[string][]string)
	for _, n := range nodes {
		deps[n.Name] = n.Dependencies
	}
	if !reflect.DeepEqual(deps["Orders"], []string{"Customers"}) {
		t.Errorf("Expected Orders -> [Customers], got %v", deps["Orders"])
	}
	if !reflect.DeepEqual(deps["OrderItems"], []string{"Orders"}) {
		t.Errorf("Expected OrderItems -> [Orders], got %v", deps["OrderItems"])
	}
	if len(deps["Customers"]) != 0 {
		t.Errorf("Expected no dependency for Customers, got %v", deps["Customers"])
	}

	got := schema.Names(schema.LoadOrder(nodes, quiet))
	if want := []string{"Customers", "Orders", "OrderItems"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
