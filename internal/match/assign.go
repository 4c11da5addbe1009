package match

import (
	hungarian "github.com/arthurkushman/go-hungarian"
)

// solveAssignment solves the rectangular assignment problem for an
// n x m cost matrix with n <= m. It returns, for every row, the column
// assigned to it such that the total cost is minimal, or -1 if the
// solver left the row unassigned.
//
// The solver maximizes, so each cost c becomes the profit
// maxCost - c + 1. The matrix is padded to m x m with zero-profit
// dummy rows; every real row is assigned exactly once, so the constant
// offset does not change which assignment is optimal.
func solveAssignment(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])

	maxCost := 0.0
	for _, row := range cost {
		for _, c := range row {
			maxCost = max(maxCost, c)
		}
	}

	profit := make([][]float64, m)
	for i := range profit {
		profit[i] = make([]float64, m)
		if i >= n {
			continue
		}
		for j, c := range cost[i] {
			profit[i][j] = maxCost - c + 1
		}
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for row, cols := range hungarian.SolveMax(profit) {
		if row < 0 || row >= n {
			continue
		}
		for col := range cols {
			assign[row] = col
		}
	}
	return assign
}
