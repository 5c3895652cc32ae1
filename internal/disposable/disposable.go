// Package disposable reports whether a domain belongs to a known
// throwaway email provider. The list ships embedded so lookups need no
// network or files at runtime.
package disposable

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed list.txt
var rawList string

var domainSet = sync.OnceValue(func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(rawList, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	return set
})

// IsDisposable returns whether the given domain is a known disposable
// domain.
func IsDisposable(domain string) bool {
	_, ok := domainSet()[strings.ToLower(domain)]
	return ok
}
