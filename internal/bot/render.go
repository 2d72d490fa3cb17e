package bot

import (
	"fmt"
	"strings"

	"github.com/hwbot/partswatch/internal/core/domain"
)

// FormatPrice renders minor currency units as a dollar amount.
func FormatPrice(minor int64) string {
	return fmt.Sprintf("%d.%02d$", minor/100, minor%100)
}

// RenderComponent renders one listing as a numbered chat line.
func RenderComponent(index int, c domain.Component) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. ", index)
	if c.Link != "" {
		fmt.Fprintf(&b, "[%s](%s)", c.Title, c.Link)
	} else {
		b.WriteString(c.Title)
	}
	fmt.Fprintf(&b, "; %s", FormatPrice(c.Price))
	if c.Brand != "" {
		fmt.Fprintf(&b, "; %s", c.Brand)
	}
	if c.Model != "" {
		fmt.Fprintf(&b, "; %s", c.Model)
	}
	for _, attr := range domain.ShapeOf(c.Category).Attributes {
		if v, ok := c.Attrs[attr]; ok {
			fmt.Fprintf(&b, "; %s", v)
		}
	}
	return b.String()
}

// RenderPage renders one page of listings starting at offset. more reports
// whether records remain past this page.
func RenderPage(records []domain.Component, offset, pageSize int) (text string, more bool) {
	if offset >= len(records) {
		return "", false
	}

	end := offset + pageSize
	if end > len(records) {
		end = len(records)
	}

	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		lines = append(lines, RenderComponent(i+1, records[i]))
	}
	return strings.Join(lines, "\n"), end < len(records)
}

// RenderHistoryEntry renders one saved query as a menu line.
func RenderHistoryEntry(e domain.HistoryEntry) string {
	return fmt.Sprintf("%s %s %s %s-%s (%d)",
		e.CreatedAt.Format("2006-01-02 15:04"),
		e.Command,
		e.Category.DisplayName(),
		FormatPrice(e.PriceFrom),
		FormatPrice(e.PriceUpTo),
		len(e.Result))
}
