package permission

// Claves usadas por las rutas de este servicio.
const (
	KeyUsersLock        = "users:manage:lock"
	KeyUsersUnlock      = "users:manage:unlock"
	KeyUsersViewDevices = "users:manage:view_devices"
)

// DefaultCatalog es el catálogo del sistema de administración
// (organizaciones, sucursales, roles, usuarios).
var DefaultCatalog = MustCatalog([]Entry{
	{Key: "organizations:list:view", Description: "Ver organizaciones"},
	{Key: "organizations:list:create", Description: "Crear organizaciones"},
	{Key: "organizations:detail:edit", Description: "Editar organización"},
	{Key: "organizations:detail:delete", Description: "Eliminar organización"},
	{Key: "organizations:settings:edit", Description: "Editar políticas de la organización"},

	{Key: "branches:list:view", Description: "Ver sucursales"},
	{Key: "branches:list:create", Description: "Crear sucursales"},
	{Key: "branches:detail:edit", Description: "Editar sucursal"},
	{Key: "branches:detail:delete", Description: "Eliminar sucursal"},

	{Key: "roles:list:view", Description: "Ver roles"},
	{Key: "roles:list:create", Description: "Crear roles"},
	{Key: "roles:detail:edit", Description: "Editar rol y su matriz de permisos"},
	{Key: "roles:detail:delete", Description: "Eliminar rol"},

	{Key: "users:list:view", Description: "Ver usuarios"},
	{Key: "users:list:create", Description: "Crear usuarios"},
	{Key: "users:detail:edit", Description: "Editar usuario"},
	{Key: "users:detail:delete", Description: "Eliminar usuario"},
	{Key: "users:list:export", Description: "Exportar usuarios"},
	{Key: KeyUsersLock, Description: "Bloquear cuentas"},
	{Key: KeyUsersUnlock, Description: "Desbloquear cuentas"},
	{Key: KeyUsersViewDevices, Description: "Ver dispositivos de un usuario"},
})
