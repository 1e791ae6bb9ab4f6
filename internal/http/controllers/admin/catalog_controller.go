package admin

import (
	"net/http"

	dto "github.com/dropDatabas3/orgauth/internal/http/dto/admin"
	"github.com/dropDatabas3/orgauth/internal/http/helpers"
	"github.com/dropDatabas3/orgauth/internal/permission"
)

// CatalogController maneja GET /v2/permissions/catalog.
type CatalogController struct {
	catalog *permission.Catalog
}

func (c *CatalogController) Catalog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "private, max-age=300")
	helpers.WriteJSON(w, http.StatusOK, dto.CatalogResponse{
		Keys:    c.catalog.Keys(),
		Modules: c.catalog.Tree(),
	})
}
