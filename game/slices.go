package game

// Slices lists every winning line: rows, columns, then the two diagonals.
var Slices = [8][3]Position{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// WinnerSlices maps each position to the other two cells of every line through it.
// Position 0 for example maps to (1,2), (3,6) and (4,8).
var WinnerSlices [Cells][][2]Position

func init() {
	for _, slice := range Slices {
		for i, pos := range slice {
			var pair [2]Position
			k := 0
			for j, other := range slice {
				if j != i {
					pair[k] = other
					k++
				}
			}
			WinnerSlices[pos] = append(WinnerSlices[pos], pair)
		}
	}
}
