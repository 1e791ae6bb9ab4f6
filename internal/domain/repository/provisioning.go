package repository

import "context"

// ProvisioningRepository crea identidades con su credencial.
// El alta de usuarios es responsabilidad del CRUD externo; esto existe para
// seed local y tests.
type ProvisioningRepository interface {
	// CreateIdentity crea la identidad y su credencial.
	// Retorna ErrConflict si username/email/user_id ya existen.
	CreateIdentity(ctx context.Context, identity Identity, cred Credential) error
}
