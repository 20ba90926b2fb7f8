package store

import "strings"

const defaultNamespace = "teahouse"

// Keys builds namespaced record keys so every component addresses the
// same records the same way.
type Keys struct {
	namespace string
}

// NewKeys returns a key builder for the given namespace.
func NewKeys(namespace string) Keys {
	if strings.TrimSpace(namespace) == "" {
		namespace = defaultNamespace
	}
	return Keys{namespace: namespace}
}

// Catalog is the whole-catalog record key.
func (k Keys) Catalog() string {
	return k.build("catalog")
}

// Cart is the per-session cart record key.
func (k Keys) Cart(sessionID string) string {
	return k.build("cart", sessionID)
}

// Orders is the order-ledger record key.
func (k Keys) Orders() string {
	return k.build("orders")
}

// Config is the site-configuration record key.
func (k Keys) Config() string {
	return k.build("config")
}

// Users is the user-collection record key.
func (k Keys) Users() string {
	return k.build("users")
}

func (k Keys) build(parts ...string) string {
	namespace := k.namespace
	if namespace == "" {
		namespace = defaultNamespace
	}
	clean := []string{namespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
