package sequence

import (
	"regexp"
	"sync"
)

var patternCache sync.Map

// CompilePattern compiles expr with a process-wide cache. Ingest evaluates
// the same configured product and tokenizer patterns once per clip, so the
// cache keeps that from recompiling on every match.
func CompilePattern(expr string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(expr); ok {
		return cached.(*regexp.Regexp), nil
	}
	compiled, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Store(expr, compiled)
	return compiled, nil
}
