package utils

import "strings"

// JoinWithAnd joins a slice of WHERE clauses with AND operator
func JoinWithAnd(clauses []string) string {
	return strings.Join(clauses, " AND ")
}
