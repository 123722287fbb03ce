package sequence

import (
	"regexp"
	"strings"
)

// Variant suffix grammars appended to a product name during matching. The
// strict form covers "_bg" or trailing digits; the loose form additionally
// accepts dotted suffixes such as ".thumbnail" found on remainder files.
const (
	variantSuffix       = `(?:_[^_v.]+|\d+)?`
	variantSuffixDotted = `(?:[_.][^_v]+|\d+)?`
)

func productPattern(productName, suffix string) (*regexp.Regexp, error) {
	return CompilePattern(`.*(` + regexp.QuoteMeta(productName) + suffix + `)`)
}

// MatchMode selects how permissively MatchProduct accepts a name.
type MatchMode int

const (
	// MatchStrict requires the product name plus an optional underscore
	// or digit variant suffix.
	MatchStrict MatchMode = iota
	// MatchLoose additionally accepts dotted suffixes such as
	// ".thumbnail" found on remainder files.
	MatchLoose
	// MatchAny accepts every name. Names both grammars reject map to the
	// bare product name; used for content nested under a folder already
	// matched to the product.
	MatchAny
)

// MatchProduct tests whether name carries productName plus an optional
// variant suffix and returns the matched token. The dot-free grammar is
// preferred when both apply.
func MatchProduct(productName, name string, mode MatchMode) (string, bool) {
	strict, err := productPattern(productName, variantSuffix)
	if err != nil {
		return "", false
	}
	if m := strict.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	if mode == MatchStrict {
		return "", false
	}
	dotted, err := productPattern(productName, variantSuffixDotted)
	if err != nil {
		return "", false
	}
	if m := dotted.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	if mode == MatchAny {
		return productName, true
	}
	return "", false
}

// ProductSuffix extracts the part of a matched token that follows the
// product name, with separator characters trimmed.
func ProductSuffix(productName, token string) string {
	return strings.Trim(strings.TrimPrefix(token, productName), "._")
}
