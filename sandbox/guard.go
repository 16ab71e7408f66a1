package sandbox

import "strings"

// Validate rejects code that is empty once surrounding whitespace is removed.
// On rejection it returns the Empty outcome to hand straight back.
func Validate(code string) (Outcome, bool) {
	if strings.TrimSpace(code) == "" {
		return Outcome{
			Error:  MsgNoCode,
			Status: StatusEmpty,
		}, false
	}
	return Outcome{}, true
}
