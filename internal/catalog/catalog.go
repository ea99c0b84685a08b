// Package catalog provides the immutable, process-wide description of the
// tables this gateway is allowed to query. The validator's whitelist and the
// SQL agent's prompt both derive from this single object so they can never
// drift apart.
package catalog

import (
	"fmt"
	"strings"
)

// Column describes a single column of an allowed table.
type Column struct {
	Name string
	Type string
}

// Table describes an allowed table and its columns, in declaration order.
type Table struct {
	Name    string
	Columns []Column
}

// Catalog is the immutable set of tables this deployment may query.
// Constructed once at process start via NewCatalog and never mutated; safe
// for unsynchronized concurrent reads.
type Catalog struct {
	tables map[string]Table
	order  []string
}

// NewCatalog builds the fixed three-table banking schema: customers,
// accounts, and transactions, with accounts.customer_id referencing
// customers.id and transactions.account_id referencing accounts.id.
func NewCatalog() *Catalog {
	tables := []Table{
		{
			Name: "customers",
			Columns: []Column{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "text"},
				{Name: "email", Type: "text"},
				{Name: "created_at", Type: "timestamp"},
			},
		},
		{
			Name: "accounts",
			Columns: []Column{
				{Name: "id", Type: "integer"},
				{Name: "customer_id", Type: "integer"},
				{Name: "account_number", Type: "text"},
				{Name: "balance", Type: "numeric"},
				{Name: "created_at", Type: "timestamp"},
			},
		},
		{
			Name: "transactions",
			Columns: []Column{
				{Name: "id", Type: "integer"},
				{Name: "account_id", Type: "integer"},
				{Name: "type", Type: "text"}, // credit | debit
				{Name: "amount", Type: "numeric"},
				{Name: "created_at", Type: "timestamp"},
			},
		},
	}

	c := &Catalog{
		tables: make(map[string]Table, len(tables)),
		order:  make([]string, 0, len(tables)),
	}
	for _, t := range tables {
		c.tables[strings.ToLower(t.Name)] = t
		c.order = append(c.order, t.Name)
	}
	return c
}

// AllowedTables returns the table names this catalog permits, in
// declaration order, using canonical lowercase casing.
func (c *Catalog) AllowedTables() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// TableExists reports whether name (case-insensitive) is an allowed table.
func (c *Catalog) TableExists(name string) bool {
	_, ok := c.tables[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Table returns the descriptor for name, case-insensitive.
func (c *Catalog) Table(name string) (Table, bool) {
	t, ok := c.tables[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// AsPromptText renders a markdown description of the schema suitable for
// injection into the SQL agent's prompt.
func (c *Catalog) AsPromptText() string {
	var b strings.Builder
	b.WriteString("# Schema\n\n")
	for _, name := range c.order {
		t := c.tables[strings.ToLower(name)]
		fmt.Fprintf(&b, "## %s\n", t.Name)
		for _, col := range t.Columns {
			fmt.Fprintf(&b, "- %s (%s)\n", col.Name, col.Type)
		}
		b.WriteString("\n")
	}
	b.WriteString("Foreign keys: accounts.customer_id -> customers.id, transactions.account_id -> accounts.id\n")
	return b.String()
}
