// Package context holds the typed keys the web front stores in request contexts.
package context

type contextKey string

func value[T any](ctx interface{ Value(any) any }, key contextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)

	return v, ok
}
