package permission

import (
	"fmt"
	"sort"
	"strings"
)

// Entry es una capacidad otorgable: module:page:action.
type Entry struct {
	Key         string `json:"key"`
	Module      string `json:"module"`
	Page        string `json:"page"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// Catalog es la tabla inmutable de permisos conocidos. Se construye una vez
// al arranque; no expone mutadores.
type Catalog struct {
	entries map[string]Entry
	keys    []string
}

// ParseKey separa "module:page:action". Los tres segmentos son obligatorios.
func ParseKey(key string) (module, page, action string, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("permission key %q: want module:page:action", key)
	}
	for _, p := range parts {
		if p == "" || strings.TrimSpace(p) != p {
			return "", "", "", fmt.Errorf("permission key %q: empty or padded segment", key)
		}
	}
	return parts[0], parts[1], parts[2], nil
}

// NewCatalog valida y congela las entradas. Module/Page/Action se derivan de Key.
func NewCatalog(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		m, p, a, err := ParseKey(e.Key)
		if err != nil {
			return nil, err
		}
		if _, dup := c.entries[e.Key]; dup {
			return nil, fmt.Errorf("permission key %q: duplicated", e.Key)
		}
		e.Module, e.Page, e.Action = m, p, a
		c.entries[e.Key] = e
		c.keys = append(c.keys, e.Key)
	}
	sort.Strings(c.keys)
	return c, nil
}

// MustCatalog es NewCatalog que hace panic; para tablas literales.
func MustCatalog(entries []Entry) *Catalog {
	c, err := NewCatalog(entries)
	if err != nil {
		panic(err)
	}
	return c
}

// Keys retorna las claves ordenadas (copia).
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Lookup busca una entrada.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Len retorna la cantidad de entradas.
func (c *Catalog) Len() int { return len(c.keys) }

// Validate retorna error listando las claves desconocidas. "*" es válida.
func (c *Catalog) Validate(keys []string) error {
	var unknown []string
	for _, k := range keys {
		if k == Wildcard {
			continue
		}
		if _, ok := c.entries[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown permission keys: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Page agrupa acciones de una página.
type Page struct {
	Name    string  `json:"name"`
	Actions []Entry `json:"actions"`
}

// Module agrupa páginas de un módulo.
type Module struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
}

// Tree retorna el catálogo agrupado módulo → página → acción, ordenado.
// Es la forma que consume el editor de matriz de permisos.
func (c *Catalog) Tree() []Module {
	var out []Module
	for _, k := range c.keys {
		e := c.entries[k]
		if len(out) == 0 || out[len(out)-1].Name != e.Module {
			out = append(out, Module{Name: e.Module})
		}
		m := &out[len(out)-1]
		if len(m.Pages) == 0 || m.Pages[len(m.Pages)-1].Name != e.Page {
			m.Pages = append(m.Pages, Page{Name: e.Page})
		}
		p := &m.Pages[len(m.Pages)-1]
		p.Actions = append(p.Actions, e)
	}
	return out
}
