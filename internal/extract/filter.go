package extract

// stopSigns are punctuation and whitespace tokens that never take part in
// co-occurrence edges.
var stopSigns = map[string]struct{}{
	" ": {}, ".": {}, ",": {}, ":": {}, ";": {}, "!": {}, "?": {}, "-": {}, "_": {},
	"(": {}, ")": {}, "[": {}, "]": {}, "{": {}, "}": {}, "": {}, "\n": {},
	"\"": {}, "'": {}, "/": {}, "\n\n": {},
}

// IsStopSign reports whether token is one of the fixed punctuation/whitespace
// tokens.
func IsStopSign(token string) bool {
	_, ok := stopSigns[token]
	return ok
}

// Filter drops stop words and stop signs, keeping the order of the rest.
func Filter(tokens []string, stop *StopWords) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if IsStopSign(t) || stop.Contains(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// WithoutStopSigns drops only the stop signs.
func WithoutStopSigns(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !IsStopSign(t) {
			out = append(out, t)
		}
	}
	return out
}
