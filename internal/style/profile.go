// ABOUTME: Colour profile detection honouring NO_COLOR and CLICOLOR_FORCE.

package style

import (
	"os"

	"github.com/muesli/termenv"
)

// DetectProfile returns the colour profile for the terminal on stdout.
// noColor forces plain text.
func DetectProfile(noColor bool) termenv.Profile {
	if noColor || termenv.EnvNoColor() {
		return termenv.Ascii
	}
	return termenv.NewOutput(os.Stdout).EnvColorProfile()
}
