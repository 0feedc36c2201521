package ports

import "context"

// Locker adquiere locks exclusivos sobre un conjunto de claves. Las claves se toman en orden
// para evitar interbloqueos; release libera todas las adquiridas y es seguro llamarla más de una vez.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}
