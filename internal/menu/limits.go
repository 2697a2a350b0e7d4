package menu

// Slot count bounds accepted from any front door.
const (
	MinStaples     = 1
	MaxStaples     = 5
	DefaultStaples = 1

	MinDishes     = 1
	MaxDishes     = 10
	DefaultDishes = 3
)

// ClampStaples bounds n to [MinStaples, MaxStaples].
func ClampStaples(n int) int {
	return clamp(n, MinStaples, MaxStaples)
}

// ClampDishes bounds n to [MinDishes, MaxDishes].
func ClampDishes(n int) int {
	return clamp(n, MinDishes, MaxDishes)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
