// Package dates resolves free-text due dates ("next Friday 3pm",
// "2026-03-01") into concrete timestamps.
package dates

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// parser handles English calendar/relative phrases. Construction is cheap
// and the parser is stateless after Add, so one package-level instance is
// shared.
var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// Resolve converts text into a timestamp relative to ref. It first tries a
// calendar/relative-phrase parse, then a generic date-string parse. ok is
// false when neither succeeds; callers must then keep any previously
// resolved value untouched, since the user may be mid-edit. Empty or
// whitespace-only text is unresolved, not an error.
func Resolve(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if result, err := parser.Parse(text, ref); err == nil && result != nil {
		return result.Time, true
	}

	if parsed, err := dateparse.ParseIn(text, ref.Location()); err == nil {
		return parsed, true
	}

	return time.Time{}, false
}
