package gen

import (
	"go/token"
	"strconv"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// proxyName returns the unexported proxy type of a contract:
// IUser -> userProxy, Order -> orderProxy.
func proxyName(contract string) string {
	return unexport(trimContractPrefix(contract)) + "Proxy"
}

func trimContractPrefix(name string) string {
	r := []rune(name)
	if len(r) > 1 && r[0] == 'I' && unicode.IsUpper(r[1]) {
		return string(r[1:])
	}
	return name
}

// unexport lowers the leading upper-case run of name, keeping the first
// letter of the following word: ID -> id, URLPath -> urlPath.
func unexport(name string) string {
	r := []rune(name)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	switch {
	case n == 0:
		return name
	case n == len(r):
		return lower.String(name)
	case n > 1:
		n--
	}
	return lower.String(string(r[:n])) + string(r[n:])
}

// slotNames returns the struct field names holding the given contract
// fields. Names never collide with Go keywords or with each other.
func slotNames(fields []string) []string {
	var (
		out  = make([]string, len(fields))
		used = make(map[string]bool, len(fields))
	)
	for i, f := range fields {
		s := unexport(f)
		if token.IsKeyword(s) {
			s += "_"
		}
		for base, n := s, 2; used[s]; n++ {
			s = base + strconv.Itoa(n)
		}
		used[s] = true
		out[i] = s
	}
	return out
}
