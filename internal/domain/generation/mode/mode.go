package mode

// Mode selects how strictly generated text stays on the supplied context.
type Mode string

// Generation modes.
const (
	// Strict is used for scores near the low threshold: low temperature, short output.
	Strict Mode = "strict"
	// Balanced is used for scores near the high threshold.
	Balanced Mode = "balanced"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Strict || m == Balanced
}
