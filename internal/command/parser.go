package command

import "strings"

// SplitArgs tokenizes the raw text of a slash command. The chat platform
// sends a single whitespace placeholder token when the user typed no
// arguments; that, an empty blob, and all-whitespace blobs all normalize to
// zero arguments.
func SplitArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CheckArity validates the token count against a command's accepted arity
// set. An empty arities set means the command is variadic with at least
// minArgs tokens.
func CheckArity(args []string, arities []int, minArgs int) error {
	if len(arities) == 0 {
		if len(args) < minArgs {
			return ErrWrongArgCount
		}
		return nil
	}
	for _, n := range arities {
		if len(args) == n {
			return nil
		}
	}
	return ErrWrongArgCount
}
