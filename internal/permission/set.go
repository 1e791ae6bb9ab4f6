// Package permission resuelve el conjunto efectivo de permisos de una identidad.
//
// Conjunto efectivo = claves del rol ∪ claves directas del usuario.
// El rol super_admin o la clave "*" en cualquiera de las dos fuentes
// producen un conjunto que permite todo. Este es el único lugar donde se
// evalúa ese bypass: los handlers llaman a Authorize/Check, nunca comparan
// nombres de rol.
package permission

import (
	"sort"
	"strings"
)

// Wildcard es la clave que otorga todos los permisos.
const Wildcard = "*"

// SuperAdminRole es el nombre del rol que otorga todos los permisos.
const SuperAdminRole = "super_admin"

// Set es un conjunto inmutable de claves de permiso.
type Set struct {
	all  bool
	keys map[string]struct{}
}

// All retorna el conjunto que permite todo.
func All() Set {
	return Set{all: true}
}

// Empty retorna el conjunto vacío.
func Empty() Set {
	return Set{}
}

// NewSet construye un conjunto. Si alguna clave es "*" permite todo.
func NewSet(keys ...string) Set {
	s := Set{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if k == Wildcard {
			return All()
		}
		s.keys[k] = struct{}{}
	}
	return s
}

// Union retorna s ∪ other.
func (s Set) Union(other Set) Set {
	if s.all || other.all {
		return All()
	}
	out := Set{keys: make(map[string]struct{}, len(s.keys)+len(other.keys))}
	for k := range s.keys {
		out.keys[k] = struct{}{}
	}
	for k := range other.keys {
		out.keys[k] = struct{}{}
	}
	return out
}

// IsAll indica si el conjunto permite todo.
func (s Set) IsAll() bool { return s.all }

// Has indica si key está permitida. Un conjunto "all" permite cualquier
// string, incluso vacío o claves fuera del catálogo.
func (s Set) Has(key string) bool {
	if s.all {
		return true
	}
	_, ok := s.keys[key]
	return ok
}

// Len retorna la cantidad de claves explícitas (0 para "all").
func (s Set) Len() int { return len(s.keys) }

// Keys retorna las claves ordenadas. Un conjunto "all" retorna ["*"].
func (s Set) Keys() []string {
	if s.all {
		return []string{Wildcard}
	}
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
