// Package repository define las interfaces de repositorio de dominio.
//
// Son contratos independientes del almacenamiento (memoria, PostgreSQL, Redis).
// Las implementaciones concretas viven en internal/store/{memory,pg,redis}.
//
//	┌──────────────────────────────────────────────────────┐
//	│      auth.Service / session.Registry / permission    │
//	└──────────────────────────────────────────────────────┘
//	                         │
//	                         ▼
//	┌──────────────────────────────────────────────────────┐
//	│            domain/repository (interfaces)            │
//	│ Identity, Credential, Role, DeviceSession, Refresh   │
//	└──────────────────────────────────────────────────────┘
//	                         │
//	         ┌───────────────┼───────────────┐
//	         ▼               ▼               ▼
//	┌──────────────┐ ┌──────────────┐ ┌──────────────┐
//	│ store/memory │ │   store/pg   │ │ store/redis  │
//	└──────────────┘ └──────────────┘ └──────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - "No existe" se reporta como ErrNotFound, nunca como (nil, nil)
//   - Errores de dominio están en errors.go
package repository
