package catalog

import (
	"strings"
	"testing"
)

func TestAllowedTables(t *testing.T) {
	c := NewCatalog()
	got := c.AllowedTables()
	want := []string{"customers", "accounts", "transactions"}
	if len(got) != len(want) {
		t.Fatalf("AllowedTables() = %v, want %v", got, want)
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("AllowedTables()[%d] = %q, want %q", i, got[i], name)
		}
	}
}

func TestTableExistsIsCaseInsensitive(t *testing.T) {
	c := NewCatalog()
	cases := []struct {
		name string
		want bool
	}{
		{"customers", true},
		{"CUSTOMERS", true},
		{"Accounts", true},
		{"  transactions  ", true},
		{"users", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := c.TableExists(tc.name); got != tc.want {
			t.Errorf("TableExists(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTableReturnsColumns(t *testing.T) {
	c := NewCatalog()
	tbl, ok := c.Table("ACCOUNTS")
	if !ok {
		t.Fatal("Table(\"ACCOUNTS\") not found")
	}
	if tbl.Name != "accounts" {
		t.Errorf("Name = %q, want accounts", tbl.Name)
	}
	var names []string
	for _, col := range tbl.Columns {
		names = append(names, col.Name)
	}
	want := []string{"id", "customer_id", "account_number", "balance", "created_at"}
	if len(names) != len(want) {
		t.Fatalf("columns = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("column[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestTableUnknownReturnsFalse(t *testing.T) {
	c := NewCatalog()
	if _, ok := c.Table("nonexistent"); ok {
		t.Error("Table(\"nonexistent\") should not be found")
	}
}

func TestAsPromptTextMentionsEveryTableAndForeignKey(t *testing.T) {
	c := NewCatalog()
	text := c.AsPromptText()
	for _, name := range []string{"customers", "accounts", "transactions"} {
		if !strings.Contains(text, name) {
			t.Errorf("prompt text missing table %q", name)
		}
	}
	if !strings.Contains(text, "accounts.customer_id -> customers.id") {
		t.Error("prompt text missing accounts->customers foreign key")
	}
	if !strings.Contains(text, "transactions.account_id -> accounts.id") {
		t.Error("prompt text missing transactions->accounts foreign key")
	}
}
