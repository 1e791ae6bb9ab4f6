package jwt

import "errors"

var (
	// ErrMissingSecret: no hay secreto de firma configurado. Es fatal al arranque.
	ErrMissingSecret = errors.New("jwt: signing secret is not configured")

	// ErrTokenExpired: firma válida pero el token venció.
	ErrTokenExpired = errors.New("jwt: token expired")

	// ErrInvalidSignature: la firma no coincide o el algoritmo no es HS256.
	ErrInvalidSignature = errors.New("jwt: invalid signature")

	// ErrTokenMalformed: el token no se puede decodificar o le faltan claims.
	ErrTokenMalformed = errors.New("jwt: malformed token")

	// ErrMissingDeviceInfo: token sin claim "did" (anterior al scoping por dispositivo).
	ErrMissingDeviceInfo = errors.New("jwt: token has no device id")
)
