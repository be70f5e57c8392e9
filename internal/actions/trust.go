package actions

import "strings"

// TrustSet holds the namespaces an operator considers safe. The zero value trusts nothing.
type TrustSet struct {
	namespaces map[string]struct{}
}

// NewTrustSet builds a TrustSet from namespace entries, ignoring blank values.
func NewTrustSet(namespaces []string) TrustSet {
	trusted := make(map[string]struct{}, len(namespaces))
	for _, namespace := range namespaces {
		trimmedNamespace := strings.TrimSpace(namespace)
		if len(trimmedNamespace) == 0 {
			continue
		}
		trusted[trimmedNamespace] = struct{}{}
	}
	return TrustSet{namespaces: trusted}
}

// IsUntrusted reports whether the namespace is absent from the set.
func (trustSet TrustSet) IsUntrusted(namespace string) bool {
	_, trusted := trustSet.namespaces[namespace]
	return !trusted
}

// Len returns the number of trusted namespaces.
func (trustSet TrustSet) Len() int {
	return len(trustSet.namespaces)
}
