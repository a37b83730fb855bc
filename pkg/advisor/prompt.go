package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/klokku/spendwise/pkg/budget"
	"github.com/klokku/spendwise/pkg/conversation"
	"github.com/klokku/spendwise/pkg/currency"
	"github.com/klokku/spendwise/pkg/ledger"
)

const (
	promptTitle         = "Student Finance Advisor."
	analysisInstruction = "Analyze these expenses and give 3 saving tips:"
)

type Prompt struct {
	SystemInstruction string
	Text              string
}

// Inline returns the prompt as a single text for providers without a separate
// system instruction field.
func (p Prompt) Inline() string {
	if p.SystemInstruction == "" {
		return p.Text
	}
	return p.SystemInstruction + "\n\n" + p.Text
}

type expenseEntry struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Desc   string  `json:"desc"`
}

type PromptBuilder struct {
	systemInstruction string
	formatter         *currency.Formatter
}

func NewPromptBuilder(systemInstruction string, formatter *currency.Formatter) *PromptBuilder {
	return &PromptBuilder{systemInstruction: systemInstruction, formatter: formatter}
}

// Analysis asks for saving tips on the full ledger.
func (b *PromptBuilder) Analysis(records []ledger.Record, summary budget.Summary) (Prompt, error) {
	expenses, err := b.expenses(records)
	if err != nil {
		return Prompt{}, err
	}

	var sb strings.Builder
	sb.WriteString(promptTitle + "\n")
	sb.WriteString(b.budgetLine(summary) + "\n")
	sb.WriteString(analysisInstruction + " ")
	sb.WriteString(expenses)

	return Prompt{SystemInstruction: b.systemInstruction, Text: sb.String()}, nil
}

// Chat continues the conversation. history holds the turns before message, all of them are sent.
func (b *PromptBuilder) Chat(records []ledger.Record, summary budget.Summary, history []conversation.Turn, message string) (Prompt, error) {
	expenses, err := b.expenses(records)
	if err != nil {
		return Prompt{}, err
	}

	var sb strings.Builder
	sb.WriteString(promptTitle + "\n")
	sb.WriteString(b.budgetLine(summary) + "\n")
	sb.WriteString("Expenses: " + expenses + "\n")
	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role.Label(), turn.Content)
		}
	}
	fmt.Fprintf(&sb, "\n%s: %s\n", conversation.RoleUser.Label(), message)

	return Prompt{SystemInstruction: b.systemInstruction, Text: sb.String()}, nil
}

func (b *PromptBuilder) budgetLine(summary budget.Summary) string {
	return fmt.Sprintf("Budget goal: %s. Total spent: %s. Remaining: %s.",
		b.formatter.Format(summary.Goal),
		b.formatter.Format(summary.TotalSpent),
		b.formatter.Format(summary.Remaining),
	)
}

func (b *PromptBuilder) expenses(records []ledger.Record) (string, error) {
	entries := make([]expenseEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, expenseEntry{
			Date:   r.Date.Format(ledger.DateLayout),
			Amount: r.Amount.InexactFloat64(),
			Desc:   r.Description,
		})
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to encode expenses: %w", err)
	}
	return string(payload), nil
}
