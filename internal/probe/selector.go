package probe

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Strategy is how a Selector finds its element
type Strategy int

const (
	ByCSS Strategy = iota
	ByRole
	ByTestID
	ByText
	ByLabel
)

func (s Strategy) String() string {
	switch s {
	case ByCSS:
		return "css"
	case ByRole:
		return "role"
	case ByTestID:
		return "test-id"
	case ByText:
		return "text"
	case ByLabel:
		return "label"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Selector names an element by one explicit strategy
type Selector struct {
	Strategy Strategy
	Value    string // CSS selector, ARIA role, test id, text or label
	Name     string // accessible name; ByRole only
}

// CSS selects by CSS selector
func CSS(selector string) Selector { return Selector{Strategy: ByCSS, Value: selector} }

// Role selects by ARIA role and accessible name
func Role(role, name string) Selector { return Selector{Strategy: ByRole, Value: role, Name: name} }

// TestID selects by data-testid
func TestID(id string) Selector { return Selector{Strategy: ByTestID, Value: id} }

// TextSel selects by visible text
func TextSel(text string) Selector { return Selector{Strategy: ByText, Value: text} }

// Label selects a form control by its label
func Label(label string) Selector { return Selector{Strategy: ByLabel, Value: label} }

func (s Selector) String() string {
	if s.Strategy == ByRole && s.Name != "" {
		return fmt.Sprintf("role=%s[name=%q]", s.Value, s.Name)
	}
	return fmt.Sprintf("%s=%s", s.Strategy, s.Value)
}

// Locatable is the part of playwright.Page selectors resolve against
type Locatable interface {
	Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator
	GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator
	GetByTestId(testId interface{}) playwright.Locator
	GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator
	GetByLabel(text interface{}, options ...playwright.PageGetByLabelOptions) playwright.Locator
}

var _ Locatable = (playwright.Page)(nil)

// Resolve builds the Playwright locator for s on page
func (s Selector) Resolve(page Locatable) (playwright.Locator, error) {
	if s.Value == "" {
		return nil, fmt.Errorf("empty %s selector", s.Strategy)
	}
	switch s.Strategy {
	case ByCSS:
		return page.Locator(s.Value), nil
	case ByRole:
		var opts playwright.PageGetByRoleOptions
		if s.Name != "" {
			opts.Name = s.Name
		}
		return page.GetByRole(playwright.AriaRole(s.Value), opts), nil
	case ByTestID:
		return page.GetByTestId(s.Value), nil
	case ByText:
		return page.GetByText(s.Value), nil
	case ByLabel:
		return page.GetByLabel(s.Value), nil
	}
	return nil, fmt.Errorf("unknown selector strategy %s", s.Strategy)
}
