package service

import (
	"context"
	"fmt"
	"sort"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"
)

// --- DTOs ---

type UpdateRolePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"` // Permission codes
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleName string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo      repository.RoleRepository
	txManager repository.TransactionManager
}

func NewRoleService(repo repository.RoleRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{repo: repo, txManager: txManager}
}

// DefaultPermissions lists every permission code the API checks.
var DefaultPermissions = []model.Permission{
	{Code: "clients.read", Name: "View clients", Group: "clients"},
	{Code: "clients.write", Name: "Manage clients", Group: "clients"},
	{Code: "inventory.read", Name: "View inventory", Group: "inventory"},
	{Code: "inventory.write", Name: "Manage inventory", Group: "inventory"},
	{Code: "quotations.read", Name: "View quotations", Group: "quotations"},
	{Code: "quotations.write", Name: "Create and edit quotations", Group: "quotations"},
	{Code: "quotations.approve", Name: "Approve or reject quotations", Group: "quotations"},
	{Code: "quotations.delete", Name: "Delete quotations", Group: "quotations"},
	{Code: "sales.read", Name: "View sales", Group: "sales"},
	{Code: "sales.write", Name: "Create and edit sales", Group: "sales"},
	{Code: "sales.complete", Name: "Complete or cancel sales", Group: "sales"},
	{Code: "sales.delete", Name: "Delete sales", Group: "sales"},
	{Code: "expenses.read", Name: "View expenses", Group: "expenses"},
	{Code: "expenses.write", Name: "Record expenses", Group: "expenses"},
	{Code: "expenses.delete", Name: "Delete expenses", Group: "expenses"},
	{Code: "reports.read", Name: "View reports", Group: "reports"},
	{Code: "users.read", Name: "View users", Group: "users"},
	{Code: "users.write", Name: "Manage users", Group: "users"},
	{Code: "users.delete", Name: "Delete users", Group: "users"},
	{Code: "audit.read", Name: "View audit log", Group: "audit"},
	{Code: "roles.read", Name: "View roles", Group: "roles"},
}

type roleDefinition struct {
	Description string
	PermCodes   []string // nil means every permission
}

// DefaultRoles maps each built-in role to its permission codes.
var DefaultRoles = map[string]roleDefinition{
	model.RoleAdmin: {
		Description: "Administrator with full access",
	},
	model.RoleSeller: {
		Description: "Sales staff: clients, quotations, sales and expenses",
		PermCodes: []string{
			"clients.read", "clients.write",
			"inventory.read", "inventory.write",
			"quotations.read", "quotations.write", "quotations.approve",
			"sales.read", "sales.write", "sales.complete",
			"expenses.read", "expenses.write",
			"reports.read",
		},
	},
	model.RoleDesigner: {
		Description: "Designer: prepares quotations",
		PermCodes: []string{
			"clients.read",
			"inventory.read",
			"quotations.read", "quotations.write",
			"reports.read",
		},
	},
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleName string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	role, err := s.repo.FindByName(ctx, roleName)
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}

	all, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}
	byCode := make(map[string]model.Permission, len(all))
	for _, p := range all {
		byCode[p.Code] = p
	}

	perms := make([]model.Permission, 0, len(req.Permissions))
	for _, code := range req.Permissions {
		p, ok := byCode[code]
		if !ok {
			return nil, apperr.Validation("permissions", fmt.Sprintf("unknown permission %q", code))
		}
		perms = append(perms, p)
	}

	if err := s.repo.ReplacePermissions(ctx, role, perms); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	updated, err := s.repo.FindByName(ctx, roleName)
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}
	resp := toRoleResponse(*updated)
	return &resp, nil
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.repo.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, apperr.FromDB(err, "role")
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the built-in permissions and roles
// and resets the built-in roles to their default permission sets.
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		permByCode := make(map[string]model.Permission, len(DefaultPermissions))
		for _, def := range DefaultPermissions {
			p := def
			if err := s.repo.FindOrCreatePermission(txCtx, &p); err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
			}
			permByCode[p.Code] = p
		}

		names := make([]string, 0, len(DefaultRoles))
		for name := range DefaultRoles {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			def := DefaultRoles[name]
			role := model.Role{Name: name, Description: def.Description, IsSystem: true}
			if err := s.repo.FindOrCreateRole(txCtx, &role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", name, err)
			}

			var perms []model.Permission
			if def.PermCodes == nil {
				for _, p := range DefaultPermissions {
					perms = append(perms, permByCode[p.Code])
				}
			} else {
				for _, code := range def.PermCodes {
					if p, ok := permByCode[code]; ok {
						perms = append(perms, p)
					}
				}
			}
			if err := s.repo.ReplacePermissions(txCtx, &role, perms); err != nil {
				return fmt.Errorf("failed to assign permissions to role '%s': %w", name, err)
			}
		}
		return nil
	})
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   formatTime(r.CreatedAt),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
