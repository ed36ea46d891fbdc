package core

// Totals summarises a ledger's entries.
type Totals struct {
	Income  Won
	Expense Won
	Balance Won
}

// CategoryTotal is the summed amount of one (kind, category) group.
type CategoryTotal struct {
	Kind     Kind
	Category string
	Amount   Won
}
