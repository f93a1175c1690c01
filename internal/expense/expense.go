package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shinwari-dera/backend-pos/internal/common"
	"github.com/shinwari-dera/backend-pos/internal/events"
)

var (
	ErrNotFound     = errors.New("expense not found")
	ErrInvalidInput = errors.New("invalid expense input")
)

// Category buckets an expense for reporting.
type Category string

const (
	CategoryMeat       Category = "Meat"
	CategoryVegetables Category = "Vegetables"
	CategoryGrocery    Category = "Grocery"
	CategoryUtilities  Category = "Utilities"
	CategoryRent       Category = "Rent"
	CategorySalary     Category = "Salary"
	CategoryOther      Category = "Other"
)

// ValidCategory reports whether c is a known expense category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryMeat, CategoryVegetables, CategoryGrocery, CategoryUtilities,
		CategoryRent, CategorySalary, CategoryOther:
		return true
	}
	return false
}

// Expense is one recorded outgoing payment.
type Expense struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	StaffID     string    `json:"staffId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store persists expenses.
type Store interface {
	Create(ctx context.Context, e Expense) (Expense, error)
	List(ctx context.Context, from, to time.Time, category Category, limit int) ([]Expense, error)
}

// Publisher receives domain events after successful mutations.
type Publisher interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) error
}

// Service records and lists expenses.
type Service struct {
	Store  Store
	Events Publisher
}

func (s *Service) Record(ctx context.Context, e Expense) (Expense, error) {
	if !ValidCategory(e.Category) {
		return Expense{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, e.Category)
	}
	if e.Amount <= 0 {
		return Expense{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return Expense{}, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	if e.StaffID == "" {
		if staffID, ok := common.StaffID(ctx); ok {
			e.StaffID = staffID
		}
	}
	created, err := s.Store.Create(ctx, e)
	if err != nil {
		return Expense{}, err
	}
	if s.Events != nil {
		_ = s.Events.Emit(ctx, events.TopicExpenseRecorded, created.ID, map[string]any{
			"expenseId": created.ID,
			"category":  created.Category,
			"amount":    created.Amount,
		})
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, from, to time.Time, category Category, limit int) ([]Expense, error) {
	if category != "" && !ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Store.List(ctx, from, to, category, limit)
}
