package auth

import "time"

// LockoutPolicy define cuándo y por cuánto se bloquea una cuenta por
// intentos fallidos.
//
// Cada vez que el contador llega a Threshold el nivel sube en 1 y la cuenta
// queda bloqueada Windows[nivel-1] (el último valor aplica a niveles
// mayores). El contador se resetea al bloquear y en cada login exitoso; el
// nivel se resetea con login exitoso o desbloqueo.
type LockoutPolicy struct {
	Threshold int
	Windows   []time.Duration
}

// DefaultLockoutPolicy: 5 intentos; 15m, 1h y luego 24h.
var DefaultLockoutPolicy = LockoutPolicy{
	Threshold: 5,
	Windows:   []time.Duration{15 * time.Minute, time.Hour, 24 * time.Hour},
}

// Enabled indica si el bloqueo automático está activo.
func (p LockoutPolicy) Enabled() bool {
	return p.Threshold > 0 && len(p.Windows) > 0
}

// Window retorna la duración del bloqueo para level (>= 1).
func (p LockoutPolicy) Window(level int) time.Duration {
	if len(p.Windows) == 0 || level <= 0 {
		return 0
	}
	if level > len(p.Windows) {
		return p.Windows[len(p.Windows)-1]
	}
	return p.Windows[level-1]
}

// Crossed indica si failures alcanza el umbral.
func (p LockoutPolicy) Crossed(failures int) bool {
	return p.Enabled() && failures >= p.Threshold
}
