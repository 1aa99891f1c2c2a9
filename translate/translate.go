// Package translate formats user visible messages of the rcu51 emulator
// in the language of the host.
package translate

import (
	"log"
	"sync"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printerOnce sync.Once
	printerMu   sync.RWMutex
	printer     *message.Printer
)

func hostPrinter() *message.Printer {
	printerOnce.Do(func() {
		locales, err := locale.GetLocales()
		if err != nil {
			log.Printf("rcu51: locale: %v", err)
		}

		if len(locales) == 0 {
			locales = []string{"en-US"}
		}

		printerMu.Lock()
		if printer == nil {
			printer = message.NewPrinter(message.MatchLanguage(locales...))
		}
		printerMu.Unlock()
	})

	printerMu.RLock()
	defer printerMu.RUnlock()
	return printer
}

// SetLanguage overrides the host locale.
func SetLanguage(tag language.Tag) {
	printerOnce.Do(func() {})

	printerMu.Lock()
	printer = message.NewPrinter(tag)
	printerMu.Unlock()
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return hostPrinter().Sprintf(key, args...)
}
