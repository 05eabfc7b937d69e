package domain

// Direction is the side of a swap from the trader's point of view.
// BUY spends the quote token to receive the base token, SELL does the opposite.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Buy || d == Sell
}

func (d Direction) String() string {
	return string(d)
}
