// Package translate formats user facing messages for the host locale.
package translate

import (
	"github.com/jeandeaual/go-locale"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

// DEFAULT_LOCALE is used when the host locale is unknown.
const DEFAULT_LOCALE = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.WithError(err).Warn("translate: locale")
	}

	SetLocales(locales...)
}

// SetLocales selects the message language from BCP 47 locale names,
// most preferred first.
func SetLocales(locales ...string) {
	if len(locales) == 0 {
		locales = []string{DEFAULT_LOCALE}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Error is a sentinel error whose en-US message is translated each time
// it is formatted, so a later SetLocales still applies.
type Error string

func (err Error) Error() string {
	return From(string(err))
}
