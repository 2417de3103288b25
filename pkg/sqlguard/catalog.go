package sqlguard

import "sort"

// TableInfo is the static description the validator needs for one table.
type TableInfo struct {
	Rows           int64
	IndexedColumns []string
}

// Catalog maps an allow-listed table name to its size and indexes.
type Catalog map[string]TableInfo

// DefaultCatalog describes the demo store: clientes, produtos, transacoes.
func DefaultCatalog() Catalog {
	return Catalog{
		"clientes": {
			Rows:           5_000,
			IndexedColumns: []string{"id", "email"},
		},
		"produtos": {
			Rows:           600,
			IndexedColumns: []string{"id", "categoria"},
		},
		"transacoes": {
			Rows:           2_500_000,
			IndexedColumns: []string{"cliente_id", "produto_id", "data_transacao"},
		},
	}
}

// Tables returns the allow-listed table names in lexical order.
func (c Catalog) Tables() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c Catalog) Allowed(name string) bool {
	_, ok := c[name]
	return ok
}
