package service

import (
	"context"
	"fmt"
	"strings"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/repository"
)

// --- Client DTOs ---

type CreateClientRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Company string `json:"company" binding:"max=200"`
	Phone   string `json:"phone" binding:"max=20"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
	RTN     string `json:"rtn" binding:"max=20"`
	Notes   string `json:"notes"`
}

// UpdateClientRequest is a partial update; nil fields are left unchanged.
type UpdateClientRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=200"`
	Company  *string `json:"company" binding:"omitempty,max=200"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	RTN      *string `json:"rtn" binding:"omitempty,max=20"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"is_active"`
}

type ClientResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	RTN       string `json:"rtn"`
	Notes     string `json:"notes"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ClientQuery struct {
	Search string
	Active *bool
	Page   int
	Limit  int
}

// --- Interface ---

type ClientService interface {
	ListClients(ctx context.Context, q ClientQuery) ([]ClientResponse, int64, error)
	GetClient(ctx context.Context, id string) (ClientResponse, error)
	CreateClient(ctx context.Context, userID string, req CreateClientRequest) (ClientResponse, error)
	UpdateClient(ctx context.Context, userID string, id string, req UpdateClientRequest) (ClientResponse, error)
	DeleteClient(ctx context.Context, userID string, id string) error
}

// --- Implementation ---

type clientService struct {
	clientRepo repository.ClientRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewClientService(clientRepo repository.ClientRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) ClientService {
	return &clientService{clientRepo: clientRepo, auditRepo: auditRepo, txManager: txManager}
}

func toClientResponse(c *model.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Company:   c.Company,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		RTN:       c.RTN,
		Notes:     c.Notes,
		IsActive:  c.IsActive,
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func (s *clientService) ListClients(ctx context.Context, q ClientQuery) ([]ClientResponse, int64, error) {
	clients, total, err := s.clientRepo.List(ctx, repository.ClientFilter{
		Search: q.Search,
		Active: q.Active,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	res := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		res = append(res, toClientResponse(&clients[i]))
	}
	return res, total, nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (ClientResponse, error) {
	clientID, err := parseID("id", id)
	if err != nil {
		return ClientResponse{}, err
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return ClientResponse{}, apperr.FromDB(err, "client")
	}
	return toClientResponse(client), nil
}

func (s *clientService) CreateClient(ctx context.Context, userID string, req CreateClientRequest) (ClientResponse, error) {
	client := model.Client{
		Name:     strings.TrimSpace(req.Name),
		Company:  strings.TrimSpace(req.Company),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Address:  req.Address,
		RTN:      strings.TrimSpace(req.RTN),
		Notes:    req.Notes,
		IsActive: true,
	}
	if client.Name == "" {
		return ClientResponse{}, apperr.Validation("name", "is required")
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Create(txCtx, &client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateClient, client.ID.String(), client.Name, req)
	})
	if err != nil {
		return ClientResponse{}, err
	}
	return toClientResponse(&client), nil
}

func (s *clientService) UpdateClient(ctx context.Context, userID string, id string, req UpdateClientRequest) (ClientResponse, error) {
	clientID, err := parseID("id", id)
	if err != nil {
		return ClientResponse{}, err
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return ClientResponse{}, apperr.FromDB(err, "client")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return ClientResponse{}, apperr.Validation("name", "must not be empty")
		}
		client.Name = name
	}
	if req.Company != nil {
		client.Company = strings.TrimSpace(*req.Company)
	}
	if req.Phone != nil {
		client.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		client.Email = strings.TrimSpace(*req.Email)
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.RTN != nil {
		client.RTN = strings.TrimSpace(*req.RTN)
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Update(txCtx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateClient, client.ID.String(), client.Name, req)
	})
	if err != nil {
		return ClientResponse{}, err
	}
	return toClientResponse(client), nil
}

// DeleteClient deactivates the client; quotations and sales keep referencing it.
func (s *clientService) DeleteClient(ctx context.Context, userID string, id string) error {
	clientID, err := parseID("id", id)
	if err != nil {
		return err
	}
	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		return apperr.FromDB(err, "client")
	}
	client.IsActive = false

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.clientRepo.Update(txCtx, client); err != nil {
			return fmt.Errorf("failed to deactivate client: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeactivateClient, client.ID.String(), client.Name, nil)
	})
}
