// Package translate formats user-facing assembler messages for the
// current locale.
package translate

import (
	"io"
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("ace3710: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// SetLanguage overrides the detected locale, ie "de-CH".
func SetLanguage(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return err
	}

	printer = message.NewPrinter(tag)
	return nil
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Fprintf writes a translated en-US format to w.
func Fprintf(w io.Writer, key message.Reference, args ...any) (int, error) {
	return printer.Fprintf(w, key, args...)
}
