package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"spendlens/internal/core"
)

// Fixture is a complete ledger loaded from a JSON document. It is used to
// seed stores for local runs and tests; amounts are decimal strings.
type Fixture struct {
	Users        []core.User
	Categories   []core.Category
	Transactions []core.Transaction
	BudgetRules  []core.BudgetRule
}

type fixtureDoc struct {
	Users []struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"users"`
	Categories []struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"user_id"`
		Name   string `json:"name"`
		Type   string `json:"type"`
	} `json:"categories"`
	Transactions []struct {
		UserID      int64  `json:"user_id"`
		AccountID   int64  `json:"account_id"`
		CategoryID  int64  `json:"category_id"`
		Amount      string `json:"amount"`
		Type        string `json:"type"`
		Date        string `json:"date"`
		Description string `json:"description"`
	} `json:"transactions"`
	BudgetRules []struct {
		UserID     int64  `json:"user_id"`
		CategoryID int64  `json:"category_id"`
		Amount     string `json:"amount"`
		Period     string `json:"period"`
		StartDate  string `json:"start_date"`
		EndDate    string `json:"end_date"`
	} `json:"budget_rules"`
}

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return DecodeFixture(f)
}

// DecodeFixture parses a fixture document. Every record is validated; the
// first invalid one aborts decoding.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	var doc fixtureDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	fx := &Fixture{}
	for _, u := range doc.Users {
		fx.Users = append(fx.Users, core.User{ID: u.ID, Email: u.Email, Name: u.Name})
	}
	for _, c := range doc.Categories {
		cat := core.Category{ID: c.ID, UserID: c.UserID, Name: c.Name, Type: core.TransactionType(c.Type)}
		if err := cat.Validate(); err != nil {
			return nil, fmt.Errorf("category %d: %w", c.ID, err)
		}
		fx.Categories = append(fx.Categories, cat)
	}
	for i, t := range doc.Transactions {
		amount, err := core.ParseAmount(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d amount %q: %w", i, t.Amount, err)
		}
		date, err := core.ParseDate(t.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		tx := core.Transaction{
			UserID:      t.UserID,
			AccountID:   t.AccountID,
			CategoryID:  t.CategoryID,
			Amount:      amount,
			Type:        core.TransactionType(t.Type),
			Date:        date,
			Description: t.Description,
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		fx.Transactions = append(fx.Transactions, tx)
	}
	for i, br := range doc.BudgetRules {
		amount, err := core.ParseAmount(br.Amount)
		if err != nil {
			return nil, fmt.Errorf("budget rule %d amount %q: %w", i, br.Amount, err)
		}
		start, err := core.ParseDate(br.StartDate)
		if err != nil {
			return nil, fmt.Errorf("budget rule %d: %w", i, err)
		}
		var end core.Date
		if br.EndDate != "" {
			if end, err = core.ParseDate(br.EndDate); err != nil {
				return nil, fmt.Errorf("budget rule %d: %w", i, err)
			}
		}
		rule := core.BudgetRule{
			UserID:     br.UserID,
			CategoryID: br.CategoryID,
			Amount:     amount,
			Period:     core.Period(br.Period),
			StartDate:  start,
			EndDate:    end,
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("budget rule %d: %w", i, err)
		}
		fx.BudgetRules = append(fx.BudgetRules, rule)
	}
	return fx, nil
}

// UserIDs returns every user referenced by the fixture, declared or not.
func (fx *Fixture) UserIDs() []int64 {
	seen := map[int64]bool{}
	var out []int64
	add := func(id int64) {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, u := range fx.Users {
		add(u.ID)
	}
	for _, c := range fx.Categories {
		add(c.UserID)
	}
	for _, t := range fx.Transactions {
		add(t.UserID)
	}
	return out
}
