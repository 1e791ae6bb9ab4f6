package permission

import (
	"context"
	"sync"
)

type ctxKey struct{}

// lazySet calcula el conjunto una sola vez por request.
type lazySet struct {
	once sync.Once
	fn   func(context.Context) Set
	set  Set
}

// WithLazy adjunta al contexto un conjunto que se resuelve con fn la
// primera vez que se consulta. Las consultas siguientes en el mismo request
// reutilizan el resultado.
func WithLazy(ctx context.Context, fn func(context.Context) Set) context.Context {
	return context.WithValue(ctx, ctxKey{}, &lazySet{fn: fn})
}

// WithSet adjunta un conjunto ya resuelto.
func WithSet(ctx context.Context, s Set) context.Context {
	ls := &lazySet{set: s}
	ls.once.Do(func() {})
	return context.WithValue(ctx, ctxKey{}, ls)
}

// FromContext resuelve (una vez) y retorna el conjunto del request.
// ok=false si no hay conjunto en el contexto.
func FromContext(ctx context.Context) (Set, bool) {
	ls, ok := ctx.Value(ctxKey{}).(*lazySet)
	if !ok || ls == nil {
		return Empty(), false
	}
	ls.once.Do(func() {
		ls.set = ls.fn(ctx)
	})
	return ls.set, true
}

// Has consulta el conjunto del request. Sin conjunto en el contexto
// retorna false.
func Has(ctx context.Context, key string) bool {
	s, _ := FromContext(ctx)
	return s.Has(key)
}
