//go:build !race

package ledgerauth

func passwordHashCost() int {
	return 12
}
