package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

func Info(title, message string) error {
	return beeep.Notify(title, message, "")
}

func Done(message string) error {
	return beeep.Alert("Cadence", message, "")
}

// FormatDuePrompt builds the reminder raised when trackers have passed
// their late bound.
func FormatDuePrompt(due int) (string, string) {
	title := "Tracker reminder"
	msg := fmt.Sprintf("You have %d tracker%s past due. Record a completion?", due, plural(due))
	return title, msg
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
