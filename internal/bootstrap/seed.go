// Package bootstrap carga datos iniciales (roles y usuarios) desde un YAML.
// El alta real de usuarios es del CRUD externo; esto es para entornos
// locales, demos y tests de integración.
package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/orgauth/internal/domain/repository"
	"github.com/dropDatabas3/orgauth/internal/ids"
	"github.com/dropDatabas3/orgauth/internal/observability/logger"
	"github.com/dropDatabas3/orgauth/internal/permission"
	"github.com/dropDatabas3/orgauth/internal/security/password"
)

const componentSeed = "bootstrap.seed"

// SeedRole es un rol a crear. ID es obligatorio para que el seed sea idempotente.
type SeedRole struct {
	ID           string   `yaml:"id"`
	Organization string   `yaml:"organization"` // vacío = rol global
	Name         string   `yaml:"name"`
	Category     string   `yaml:"category"`
	Priority     int      `yaml:"priority"`
	Permissions  []string `yaml:"permissions"`
}

// SeedUser es una identidad con su credencial.
type SeedUser struct {
	ID                  string   `yaml:"id"`
	Organization        string   `yaml:"organization"`
	Branch              string   `yaml:"branch"`
	Role                string   `yaml:"role"` // ID de un rol
	UserID              string   `yaml:"user_id"`
	Username            string   `yaml:"username"`
	Email               string   `yaml:"email"`
	Name                string   `yaml:"name"`
	Password            string   `yaml:"password"`
	Permissions         []string `yaml:"permissions"`
	CanLogin            *bool    `yaml:"can_login"`
	IsBlocked           bool     `yaml:"is_blocked"`
	ForcePasswordChange bool     `yaml:"force_password_change"`
}

// SeedFile es el documento YAML completo.
type SeedFile struct {
	Roles []SeedRole `yaml:"roles"`
	Users []SeedUser `yaml:"users"`
}

// Deps contiene lo necesario para aplicar un seed.
type Deps struct {
	Roles        repository.RoleRepository
	Identities   repository.IdentityRepository
	Provisioning repository.ProvisioningRepository
	Catalog      *permission.Catalog // nil = permission.DefaultCatalog
	Params       password.Params     // zero = password.Default
}

// Report resume lo aplicado.
type Report struct {
	RolesCreated int
	RolesSkipped int
	UsersCreated int
	UsersSkipped int
}

// LoadFile lee y parsea un seed YAML.
func LoadFile(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(b)
}

// Parse parsea un seed YAML. Campos desconocidos son error.
func Parse(b []byte) (*SeedFile, error) {
	var f SeedFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// Validate chequea el documento sin tocar storage: claves contra el
// catálogo, campos obligatorios y referencias a roles.
func (f *SeedFile) Validate(catalog *permission.Catalog) error {
	if catalog == nil {
		catalog = permission.DefaultCatalog
	}
	var errs []error
	roles := make(map[string]bool, len(f.Roles))
	for i, r := range f.Roles {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Name) == "" {
			errs = append(errs, fmt.Errorf("roles[%d]: id and name are required", i))
		}
		if roles[r.ID] {
			errs = append(errs, fmt.Errorf("roles[%d]: duplicated id %q", i, r.ID))
		}
		roles[r.ID] = true
		if err := catalog.Validate(r.Permissions); err != nil {
			errs = append(errs, fmt.Errorf("roles[%d] %s: %w", i, r.Name, err))
		}
	}
	for i, u := range f.Users {
		if strings.TrimSpace(u.Organization) == "" || strings.TrimSpace(u.Username) == "" || u.Password == "" {
			errs = append(errs, fmt.Errorf("users[%d]: organization, username and password are required", i))
		}
		if err := catalog.Validate(u.Permissions); err != nil {
			errs = append(errs, fmt.Errorf("users[%d] %s: %w", i, u.Username, err))
		}
	}
	return errors.Join(errs...)
}

// Apply crea roles y usuarios. Lo que ya existe se saltea, así que aplicar
// el mismo seed dos veces es seguro.
func Apply(ctx context.Context, d Deps, f *SeedFile) (Report, error) {
	log := logger.From(ctx).With(logger.Layer("bootstrap"), logger.Component(componentSeed))
	var rep Report

	if d.Catalog == nil {
		d.Catalog = permission.DefaultCatalog
	}
	if d.Params == (password.Params{}) {
		d.Params = password.Default
	}
	if err := f.Validate(d.Catalog); err != nil {
		return rep, err
	}

	for _, r := range f.Roles {
		if _, err := d.Roles.GetByID(ctx, r.ID); err == nil {
			rep.RolesSkipped++
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return rep, fmt.Errorf("role %s: %w", r.ID, err)
		}
		role := repository.Role{
			ID:             r.ID,
			Name:           r.Name,
			Category:       r.Category,
			Priority:       r.Priority,
			IsActive:       true,
			PermissionKeys: r.Permissions,
		}
		if r.Organization != "" {
			org := r.Organization
			role.OrganizationID = &org
		}
		if _, err := d.Roles.Create(ctx, role); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				log.Warn("role name already taken, skipping", logger.String("role", r.Name))
				rep.RolesSkipped++
				continue
			}
			return rep, fmt.Errorf("role %s: %w", r.ID, err)
		}
		rep.RolesCreated++
	}

	for _, u := range f.Users {
		if u.ID != "" {
			if _, err := d.Identities.GetByID(ctx, u.ID); err == nil {
				rep.UsersSkipped++
				continue
			}
		}
		if u.Role != "" {
			if _, err := d.Roles.GetByID(ctx, u.Role); err != nil {
				return rep, fmt.Errorf("user %s: role %s: %w", u.Username, u.Role, err)
			}
		}

		hash, err := password.Hash(d.Params, u.Password)
		if err != nil {
			return rep, fmt.Errorf("user %s: %w", u.Username, err)
		}
		identity := repository.Identity{
			ID:             u.ID,
			OrganizationID: u.Organization,
			UserID:         u.UserID,
			Username:       u.Username,
			Email:          strings.ToLower(strings.TrimSpace(u.Email)),
			Name:           u.Name,
			Permissions:    u.Permissions,
			CanLogin:       u.CanLogin == nil || *u.CanLogin,
			IsBlocked:      u.IsBlocked,
		}
		if identity.ID == "" {
			identity.ID = ids.New()
		}
		if u.Branch != "" {
			b := u.Branch
			identity.BranchID = &b
		}
		if u.Role != "" {
			r := u.Role
			identity.RoleID = &r
		}

		err = d.Provisioning.CreateIdentity(ctx, identity, repository.Credential{
			PasswordHash:        hash,
			ForcePasswordChange: u.ForcePasswordChange,
		})
		if errors.Is(err, repository.ErrConflict) {
			log.Warn("user already exists, skipping", logger.String("username", u.Username))
			rep.UsersSkipped++
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("user %s: %w", u.Username, err)
		}
		rep.UsersCreated++
	}

	log.Info("seed applied",
		logger.Int("roles_created", rep.RolesCreated),
		logger.Int("roles_skipped", rep.RolesSkipped),
		logger.Int("users_created", rep.UsersCreated),
		logger.Int("users_skipped", rep.UsersSkipped))
	return rep, nil
}
