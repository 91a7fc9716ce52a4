// Package dict provides the dictionary lookup capability used to validate
// dehyphenation merges. The capability is optional: when no dictionary can
// be loaded the pipeline keeps running with dehyphenation disabled.
package dict

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/client9/gospell"
)

// Oracle reports whether a word is valid in the configured language.
type Oracle interface {
	// IsValidWord reports whether word is a known word. Implementations
	// must be safe for repeated calls with the same word.
	IsValidWord(word string) bool
	// Language returns the locale the oracle was loaded for.
	Language() string
}

// Hunspell is an Oracle backed by hunspell dictionary files (.aff/.dic),
// the same files used by LibreOffice and most Linux distributions.
type Hunspell struct {
	speller *gospell.GoSpell
	lang    string
}

var _ Oracle = (*Hunspell)(nil)

// NewHunspell loads a dictionary from explicit .aff and .dic paths.
func NewHunspell(affPath, dicPath, lang string) (*Hunspell, error) {
	speller, err := gospell.NewGoSpell(affPath, dicPath)
	if err != nil {
		return nil, fmt.Errorf("load dictionary %s: %w", dicPath, err)
	}
	return &Hunspell{speller: speller, lang: lang}, nil
}

// OpenLanguage looks for <lang>.aff and <lang>.dic under dir
// (e.g. /usr/share/hunspell, lang "en_US").
func OpenLanguage(dir, lang string) (*Hunspell, error) {
	aff := filepath.Join(dir, lang+".aff")
	dic := filepath.Join(dir, lang+".dic")
	if _, err := os.Stat(dic); err != nil {
		return nil, fmt.Errorf("dictionary %s not found: %w", lang, err)
	}
	return NewHunspell(aff, dic, lang)
}

// IsValidWord reports whether the word is in the dictionary.
func (h *Hunspell) IsValidWord(word string) bool {
	if word == "" {
		return false
	}
	return h.speller.Spell(word)
}

// Language returns the loaded locale.
func (h *Hunspell) Language() string { return h.lang }

// Unavailable is the explicit no-dictionary variant. Every lookup fails,
// which makes the dehyphenator leave all hyphens untouched.
type Unavailable struct{}

var _ Oracle = Unavailable{}

// IsValidWord always reports false.
func (Unavailable) IsValidWord(string) bool { return false }

// Language returns an empty locale.
func (Unavailable) Language() string { return "" }

// IsAvailable reports whether the oracle is a working dictionary rather
// than the Unavailable placeholder.
func IsAvailable(o Oracle) bool {
	if o == nil {
		return false
	}
	_, missing := o.(Unavailable)
	return !missing
}
