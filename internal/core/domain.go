package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recurrence describes how often a rule fires.
type Recurrence string

const (
	OneTime  Recurrence = "one-time"
	Daily    Recurrence = "daily"
	Weekly   Recurrence = "weekly"
	Biweekly Recurrence = "biweekly"
	Monthly  Recurrence = "monthly"
	Yearly   Recurrence = "yearly"
)

// Category is the fixed classification a rule belongs to.
type Category string

const (
	Salary        Category = "salary"
	Food          Category = "food"
	Transport     Category = "transport"
	Utilities     Category = "utilities"
	Entertainment Category = "entertainment"
	Shopping      Category = "shopping"
	Health        Category = "health"
	Education     Category = "education"
	Savings       Category = "savings"
	Rent          Category = "rent"
	Subscriptions Category = "subscriptions"
	Other         Category = "other"
)

var (
	ErrEmptyName         = errors.New("empty rule name")
	ErrZeroAmount        = errors.New("amount must be non-zero")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidDate       = errors.New("invalid date")
)

// Rule is a single one-time or recurring money movement. Positive amounts
// are income, negative amounts are expenses.
type Rule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Recurrence Recurrence      `json:"type"`
	Category   Category        `json:"category"`
	Anchor     Date            `json:"date"`
	End        Date            `json:"endDate"`
}

// NewRuleID returns a fresh unique rule identifier. Uniqueness is the only
// hard requirement on ids; edited rules always get a new one.
func NewRuleID() string {
	return uuid.NewString()
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if len(r.Name) > 200 {
		return errors.New("rule name too long (max 200 characters)")
	}
	if r.Amount.IsZero() {
		return ErrZeroAmount
	}
	if !r.Recurrence.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, r.Recurrence)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
	}
	if err := r.Anchor.Validate(); err != nil {
		return fmt.Errorf("%w: anchor %v", ErrInvalidDate, err)
	}
	// An end date before the anchor is not an error: the rule simply
	// produces no occurrences.
	return nil
}

// IsIncome reports whether the rule adds to the balance.
func (r Rule) IsIncome() bool {
	return r.Amount.Sign() > 0
}

func (r Recurrence) Valid() bool {
	switch r {
	case OneTime, Daily, Weekly, Biweekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// ParseRecurrence rejects values outside the closed enumeration.
func ParseRecurrence(s string) (Recurrence, error) {
	r := Recurrence(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
	}
	return r, nil
}

var recurrenceLabels = map[Recurrence]string{
	OneTime:  "One-time",
	Daily:    "Daily",
	Weekly:   "Weekly",
	Biweekly: "Bi-weekly",
	Monthly:  "Monthly",
	Yearly:   "Yearly",
}

// Label returns the display name for the recurrence kind.
func (r Recurrence) Label() string {
	if l, ok := recurrenceLabels[r]; ok {
		return l
	}
	return string(r)
}

var categories = []Category{
	Salary, Food, Transport, Utilities, Entertainment, Shopping,
	Health, Education, Savings, Rent, Subscriptions, Other,
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory rejects values outside the closed enumeration.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Categories returns the full enumeration in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

var categoryEmojis = map[Category]string{
	Salary:        "💰",
	Food:          "🍔",
	Transport:     "🚗",
	Utilities:     "💡",
	Entertainment: "🎮",
	Shopping:      "🛍️",
	Health:        "🏥",
	Education:     "📚",
	Savings:       "🏦",
	Rent:          "🏠",
	Subscriptions: "📱",
	Other:         "📝",
}

// Emoji returns the display icon for the category.
func (c Category) Emoji() string {
	if e, ok := categoryEmojis[c]; ok {
		return e
	}
	return categoryEmojis[Other]
}

// SortRulesForDisplay orders rules the way list views render them: income
// before expenses, then by descending magnitude.
func SortRulesForDisplay(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.IsIncome() != b.IsIncome() {
			return a.IsIncome()
		}
		return a.Amount.Abs().GreaterThan(b.Amount.Abs())
	})
}
