package orders

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProductNotFound   = errors.New("orders: product not found")
	ErrOrderNotFound     = errors.New("orders: order not found")
	ErrInvalidTransition = errors.New("orders: invalid status transition")
)

// ValidationError lists the fields that failed validation and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "orders: invalid order: " + strings.Join(parts, "; ")
}
