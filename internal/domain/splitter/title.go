package splitter

import (
	"strconv"
	"strings"
)

// DefaultTitleLength is the longest description produced for one item.
const DefaultTitleLength = 88

const trailingJunk = ",.-()[]{}\\/|~!@#$%^&*_+=`'\" "

// ItemTitle cleans an item title for use as a ledger description: non-printable
// characters are dropped, a "3x" prefix is added for quantities above one, and
// the result is cut at a word boundary to fit maxLen.
func ItemTitle(title string, quantity int, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultTitleLength
	}
	base := ""
	if quantity > 1 {
		base = strconv.Itoa(quantity) + "x"
	}
	return truncateTitle(printable(title), maxLen, base)
}

func printable(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// truncateTitle keeps whole words while they fit, then strips trailing
// punctuation. A word is kept as long as half of it fits in what remains.
func truncateTitle(title string, target int, base string) string {
	var words []string
	if base != "" {
		words = append(words, strings.Fields(base)...)
		target -= len(base)
	}
	for _, word := range strings.Split(title, " ") {
		if float64(len(word))/2 >= float64(target) {
			break
		}
		words = append(words, word)
		target -= len(word) + 1
	}

	truncated := strings.Join(words, " ")
	return strings.TrimRight(truncated, trailingJunk)
}
