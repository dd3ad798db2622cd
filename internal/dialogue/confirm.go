package dialogue

import "strings"

// confirmation is the result of testing text against yes/no/cancel patterns
type confirmation int

const (
	confirmNone confirmation = iota
	confirmYes
	confirmNo
)

var yesWords = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "yup": true,
	"sure": true, "ok": true, "okay": true, "confirm": true, "correct": true,
	"please": true, "go": true,
}

var noWords = map[string]bool{
	"no": true, "n": true, "nope": true, "nah": true,
	"cancel": true, "stop": true, "abort": true, "nevermind": true,
}

var noPhrases = []string{
	"never mind", "forget it", "don't", "do not", "start over",
}

var yesPhrases = []string{
	"go ahead", "do it", "sounds good", "that's right", "thats right",
}

// matchConfirmation tests whether text is a yes, a no/cancel, or neither.
// Only short messages count: "yes send $40 to someone else" is a new
// instruction, not a confirmation
func matchConfirmation(text string) confirmation {
	lower := strings.ToLower(strings.TrimSpace(text))
	lower = strings.Trim(lower, ".!?")

	for _, phrase := range noPhrases {
		if lower == phrase {
			return confirmNo
		}
	}
	for _, phrase := range yesPhrases {
		if lower == phrase {
			return confirmYes
		}
	}

	words := strings.Fields(lower)
	if len(words) == 0 || len(words) > 2 {
		return confirmNone
	}

	yes, no := 0, 0
	for _, word := range words {
		word = strings.Trim(word, ".!?,")
		switch {
		case yesWords[word]:
			yes++
		case noWords[word]:
			no++
		}
	}

	// "yes please" counts; "yes no" does not
	if no > 0 && yes == 0 {
		return confirmNo
	}
	if yes == len(words) && yes > 0 {
		return confirmYes
	}

	return confirmNone
}