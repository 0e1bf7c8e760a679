package models

// Table identifies one of the syncable tables. The set is closed: the sync
// engine is purpose-built for these five tables and their foreign-key
// relationships, not for arbitrary schemas.
type Table string

const (
	TableCurrencies   Table = "currencies"
	TableCategories   Table = "categories"
	TableAccounts     Table = "accounts"
	TableBudgets      Table = "budgets"
	TableTransactions Table = "transactions"
)

// AllTables lists every syncable table. The slice is unordered; callers that
// need parent-before-child ordering must go through the dependency graph.
var AllTables = []Table{
	TableCurrencies,
	TableCategories,
	TableAccounts,
	TableBudgets,
	TableTransactions,
}

// TableDependencies declares, for each table, the tables its foreign keys
// reference. A category's parent_id points back into categories itself, which
// is an intra-table reference and therefore not an edge here. The map must
// form a DAG; the dependency graph constructor rejects cycles at startup.
var TableDependencies = map[Table][]Table{
	TableCurrencies:   {},
	TableCategories:   {},
	TableAccounts:     {TableCurrencies},
	TableBudgets:      {TableCategories, TableCurrencies},
	TableTransactions: {TableAccounts, TableCategories},
}

// Valid reports whether t names a known syncable table.
func (t Table) Valid() bool {
	_, ok := TableDependencies[t]
	return ok
}

func (t Table) String() string {
	return string(t)
}
