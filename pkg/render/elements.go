package render

import "strings"

func set(names string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, n := range strings.Fields(names) {
		m[n] = struct{}{}
	}
	return m
}

// Phrasing content stays on one line in pretty-printed output.
var inlineElements = set(`
	a abbr b bdi bdo br cite code data dfn em i kbd mark q rb rp rt rtc
	ruby s samp small span strong sub sup time u var wbr`)

// Boolean attributes render as a bare name when true and are omitted when
// false.
var booleanAttrs = set(`
	allowfullscreen async autofocus autoplay checked controls default defer
	disabled formnovalidate hidden ismap itemscope loop multiple muted
	nomodule novalidate open playsinline readonly required reversed selected`)

func isInlineElement(tag string) bool {
	_, ok := inlineElements[tag]
	return ok
}

func isBooleanAttr(name string) bool {
	_, ok := booleanAttrs[name]
	return ok
}
