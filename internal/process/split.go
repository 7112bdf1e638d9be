// ABOUTME: SplitCommand normalises the command-line form of the child command.

package process

import "strings"

// SplitCommand returns argv for the child. A single argument containing
// whitespace, as in bio "ping -c 3 localhost", is split on whitespace;
// anything else is passed through untouched.
func SplitCommand(args []string) []string {
	if len(args) == 1 && strings.ContainsAny(args[0], " \t") {
		return strings.Fields(args[0])
	}
	return args
}
