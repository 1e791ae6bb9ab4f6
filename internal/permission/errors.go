package permission

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied: la identidad no tiene la clave requerida.
var ErrPermissionDenied = errors.New("permission denied")

// DeniedError lleva la clave que faltó. errors.Is(err, ErrPermissionDenied) es true.
type DeniedError struct {
	Key string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Key)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}
