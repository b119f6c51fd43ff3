package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rotuprinters/internal/apperr"
	"rotuprinters/internal/model"
	"rotuprinters/internal/pricing"
	"rotuprinters/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type ExpenseRequest struct {
	Description string `json:"description" binding:"required,max=255"`
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	Amount      string `json:"amount" binding:"required"` // Decimal string
}

type ExpenseResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   string `json:"created_at"`
}

type ExpenseQuery struct {
	StartDate string
	EndDate   string
	Search    string
	Page      int
	Limit     int
}

// ExpenseList carries one page plus the amount total of the whole filtered range.
type ExpenseList struct {
	Items       []ExpenseResponse `json:"items"`
	Total       int64             `json:"total"`
	TotalAmount string            `json:"total_amount"`
}

// --- Interface ---

type ExpenseService interface {
	ListExpenses(ctx context.Context, q ExpenseQuery) (ExpenseList, error)
	GetExpense(ctx context.Context, id string) (ExpenseResponse, error)
	CreateExpense(ctx context.Context, userID string, req ExpenseRequest) (ExpenseResponse, error)
	UpdateExpense(ctx context.Context, userID string, id string, req ExpenseRequest) (ExpenseResponse, error)
	DeleteExpense(ctx context.Context, userID string, id string) error
}

type expenseService struct {
	expenseRepo repository.ExpenseRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewExpenseService(
	expenseRepo repository.ExpenseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func toExpenseResponse(e *model.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID.String(),
		Description: e.Description,
		Date:        e.Date.Format("2006-01-02"),
		Amount:      pricing.Format(e.Amount),
		CreatedBy:   optionalIDString(e.CreatedByID),
		CreatedAt:   formatTime(e.CreatedAt),
	}
}

func parseExpense(req ExpenseRequest) (time.Time, decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return time.Time{}, decimal.Zero, apperr.Validation("amount", "must be a decimal number")
	}
	if !amount.IsPositive() {
		return time.Time{}, decimal.Zero, apperr.Validation("amount", "must be greater than 0")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return time.Time{}, decimal.Zero, apperr.Validation("date", "must be a date in YYYY-MM-DD format")
	}
	return date, amount, nil
}

func (s *expenseService) ListExpenses(ctx context.Context, q ExpenseQuery) (ExpenseList, error) {
	start, err := parseDate("start_date", q.StartDate)
	if err != nil {
		return ExpenseList{}, err
	}
	end, err := parseDate("end_date", q.EndDate)
	if err != nil {
		return ExpenseList{}, err
	}
	filter := repository.ExpenseFilter{Search: q.Search, Page: q.Page, Limit: q.Limit}
	if start != nil {
		filter.StartDate = *start
	}
	if end != nil {
		filter.EndDate = *end
	}

	expenses, total, sum, err := s.expenseRepo.List(ctx, filter)
	if err != nil {
		return ExpenseList{}, fmt.Errorf("failed to list expenses: %w", err)
	}
	res := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		res = append(res, toExpenseResponse(&expenses[i]))
	}
	return ExpenseList{Items: res, Total: total, TotalAmount: pricing.Format(sum)}, nil
}

func (s *expenseService) GetExpense(ctx context.Context, id string) (ExpenseResponse, error) {
	expenseID, err := parseID("id", id)
	if err != nil {
		return ExpenseResponse{}, err
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return ExpenseResponse{}, apperr.FromDB(err, "expense")
	}
	return toExpenseResponse(expense), nil
}

func (s *expenseService) CreateExpense(ctx context.Context, userID string, req ExpenseRequest) (ExpenseResponse, error) {
	date, amount, err := parseExpense(req)
	if err != nil {
		return ExpenseResponse{}, err
	}
	expense := model.Expense{
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		Amount:      amount,
		CreatedByID: actorID(userID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Create(txCtx, &expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionCreateExpense, expense.ID.String(), expense.Description, req)
	})
	if err != nil {
		return ExpenseResponse{}, err
	}
	return toExpenseResponse(&expense), nil
}

func (s *expenseService) UpdateExpense(ctx context.Context, userID string, id string, req ExpenseRequest) (ExpenseResponse, error) {
	expenseID, err := parseID("id", id)
	if err != nil {
		return ExpenseResponse{}, err
	}
	date, amount, err := parseExpense(req)
	if err != nil {
		return ExpenseResponse{}, err
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return ExpenseResponse{}, apperr.FromDB(err, "expense")
	}
	expense.Description = strings.TrimSpace(req.Description)
	expense.Date = date
	expense.Amount = amount

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Update(txCtx, expense); err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionUpdateExpense, expense.ID.String(), expense.Description, req)
	})
	if err != nil {
		return ExpenseResponse{}, err
	}
	return toExpenseResponse(expense), nil
}

func (s *expenseService) DeleteExpense(ctx context.Context, userID string, id string) error {
	expenseID, err := parseID("id", id)
	if err != nil {
		return err
	}
	expense, err := s.expenseRepo.FindByID(ctx, expenseID)
	if err != nil {
		return apperr.FromDB(err, "expense")
	}
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.expenseRepo.Delete(txCtx, expense.ID); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, userID, model.ActionDeleteExpense, expense.ID.String(), expense.Description, map[string]any{
			"amount": pricing.Format(expense.Amount),
			"date":   expense.Date.Format("2006-01-02"),
		})
	})
}
