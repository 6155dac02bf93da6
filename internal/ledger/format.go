package ledger

import (
	"fmt"
	"strings"
)

// FormatINR renders a rupee amount with Indian digit grouping,
// e.g. 1234567 -> "₹12,34,567".
func FormatINR(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")

	// Last group of three, then groups of two.
	n := len(digits)
	if n <= 3 {
		b.WriteString(digits)
		return b.String()
	}
	head := digits[:n-3]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	groups = append(groups, digits[n-3:])
	b.WriteString(strings.Join(groups, ","))
	return b.String()
}

// PendingSummary builds the reply text for active obligations.
func PendingSummary(obligations []Obligation) string {
	if len(obligations) == 0 {
		return "No pending obligations! You're all clear."
	}

	lines := []string{"Pending obligations:"}
	var total int64
	for i, ob := range obligations {
		line := fmt.Sprintf("%d. %s — %s", i+1, ob.PersonName, FormatINR(ob.RemainingAmount))
		if ob.Kind == KindRecurring {
			line += " (recurring)"
		}
		if ob.Direction == DirectionIOwe {
			line += " (you owe)"
		}
		if ob.Note != "" {
			line += " — " + ob.Note
		}
		lines = append(lines, line)
		total += ob.RemainingAmount
	}
	lines = append(lines, fmt.Sprintf("Total pending: %s", FormatINR(total)))
	return strings.Join(lines, "\n")
}

// SettledSummary builds the reply text for settled obligations.
func SettledSummary(obligations []Obligation) string {
	if len(obligations) == 0 {
		return "No settled obligations yet."
	}

	lines := []string{"Settled obligations:"}
	for i, ob := range obligations {
		line := fmt.Sprintf("%d. %s — %s", i+1, ob.PersonName, FormatINR(ob.TotalAmount))
		if ob.Note != "" {
			line += " — " + ob.Note
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
