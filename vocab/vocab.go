// Package vocab holds the character sets recognition models decode into.
package vocab

import (
	"fmt"
	"sort"
	"strings"
)

const (
	Digits       = "0123456789"
	ASCIILetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Punctuation  = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	Currency     = "£€¥¢฿"
)

var registry = map[string]string{
	"digits":     Digits,
	"latin":      Digits + ASCIILetters + Punctuation,
	"english":    Digits + ASCIILetters + Punctuation + "°" + Currency,
	"french":     Digits + ASCIILetters + Punctuation + "°" + Currency + "àâéèêëîïôùûüçÀÂÉÈÊËÎÏÔÙÛÜÇ",
	"portuguese": Digits + ASCIILetters + Punctuation + "°" + Currency + "áàâãéêíïóôõúüçÁÀÂÃÉÊÍÏÓÔÕÚÜÇ",
	"spanish":    Digits + ASCIILetters + Punctuation + "°" + Currency + "áéíóúüñÁÉÍÓÚÜÑ¡¿",
	"german":     Digits + ASCIILetters + Punctuation + "°" + Currency + "äöüßÄÖÜẞ",
}

// Get returns the named vocabulary as a rune slice. The rune index is the
// class index recognition models emit.
func Get(name string) ([]rune, error) {
	v, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown vocabulary %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return []rune(v), nil
}

// Names lists the registered vocabularies in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Index builds a rune-to-class lookup for a vocabulary.
func Index(v []rune) map[rune]int {
	idx := make(map[rune]int, len(v))
	for i, r := range v {
		idx[r] = i
	}
	return idx
}
