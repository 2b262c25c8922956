package model

import "strings"

// Category is an entry of the fixed transaction category catalogue.
type Category struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"type"`
	Color string `json:"color"`
}

// InvestmentCategory labels investment purchases in the consolidated ledger.
const InvestmentCategory = "Investment"

var categories = []Category{
	{"Salary", Income, "#27ae60"},
	{"Freelance", Income, "#16a085"},
	{"Interest", Income, "#2ecc71"},
	{"Dividends", Income, "#1abc9c"},
	{"Other Income", Income, "#45b39d"},
	{"Rent", Expense, "#e67e22"},
	{"Groceries", Expense, "#e74c3c"},
	{"Utilities", Expense, "#f39c12"},
	{"Transportation", Expense, "#3498db"},
	{"Entertainment", Expense, "#9b59b6"},
	{"Dining", Expense, "#c0392b"},
	{"Healthcare", Expense, "#d35400"},
	{"Shopping", Expense, "#8e44ad"},
	{"Education", Expense, "#2980b9"},
	{"Travel", Expense, "#16a5c9"},
	{"Insurance", Expense, "#7f8c8d"},
	{"Other", Expense, "#95a5a6"},
}

// Categories returns a copy of the catalogue, income categories first.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// LookupCategory finds a catalogue entry by name, ignoring case.
func LookupCategory(name string) (Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
			return c, true
		}
	}
	return Category{}, false
}
