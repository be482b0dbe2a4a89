package game

// Every draw is a pure function of the day number and a purpose, so replaying
// a day reproduces its rolls exactly.

type drawPurpose uint64

const (
	drawEconomy drawPurpose = iota + 1
	drawSales
	drawStock
)

func daySeed(day int) uint64 {
	return uint64(day)*31337 + 42
}

// draw returns a value in [0, 1).
func draw(day int, purpose drawPurpose, salt uint64) float64 {
	seed := daySeed(day)
	switch purpose {
	case drawEconomy:
		return float64((seed*48271+1)%10000) / 10000
	case drawSales:
		return float64((seed*1103515245+12345)%1000) / 1000
	default:
		z := mix64(seed ^ uint64(purpose)<<56 ^ salt*0x9E3779B97F4A7C15)
		return float64(z>>11) / float64(uint64(1)<<53)
	}
}

// signedDraw maps draw onto [-1, 1).
func signedDraw(day int, purpose drawPurpose, salt uint64) float64 {
	return draw(day, purpose, salt)*2 - 1
}

func mix64(z uint64) uint64 {
	z += 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
