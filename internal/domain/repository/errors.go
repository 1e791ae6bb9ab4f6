package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica un conflicto (ej: nombre de rol duplicado).
	ErrConflict = errors.New("conflict")

	// ErrSystemRole indica una operación prohibida sobre un rol de sistema.
	ErrSystemRole = errors.New("system role cannot be modified")

	// ErrAlreadyConsumed indica que un refresh token ya fue rotado.
	ErrAlreadyConsumed = errors.New("refresh token already consumed")

	// ErrNoDatabase indica que no hay base de datos configurada.
	ErrNoDatabase = errors.New("no database configured")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
