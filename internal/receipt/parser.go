package receipt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Line heuristics, applied independently per line. The id and total patterns
// match anywhere in the line; the item patterns are anchored and tried in
// priority order until one matches.
var (
	idPattern    = regexp.MustCompile(`(?i)(?:receipt|order|invoice)\s*#?\s*:?\s*(\w+)`)
	totalPattern = regexp.MustCompile(`(?i)total\s*:?\s*\$?(\d+\.?\d*)`)

	// name-first with optional quantity marker: "Juice x2 $10.00"
	itemNameFirst = regexp.MustCompile(`^([^$\d]+?)\s+x?(\d+)?\s*\$?(\d+\.?\d*)$`)
	// quantity-first: "2x Juice $10.00"
	itemQtyFirst = regexp.MustCompile(`^(\d+)x?\s+([^$\d]+?)\s+\$?(\d+\.?\d*)$`)
	// bare name/price: "Juice $10.00"
	itemBare = regexp.MustCompile(`^([^$\d]+?)\s+\$?(\d+\.?\d*)$`)
)

// Parser applies the receipt heuristics with configured bounds.
type Parser struct {
	// MinTextLength is the cheap reject threshold before line scanning.
	MinTextLength int
	// MaxRawContent caps the raw text carried on an accepted receipt.
	MaxRawContent int
}

// NewParser returns a Parser with the given bounds; non-positive values fall
// back to the defaults (10 and 5000).
func NewParser(minTextLength, maxRawContent int) *Parser {
	if minTextLength <= 0 {
		minTextLength = 10
	}
	if maxRawContent <= 0 {
		maxRawContent = 5000
	}
	return &Parser{MinTextLength: minTextLength, MaxRawContent: maxRawContent}
}

// Parse scans text line by line and returns a structured receipt, or nil when
// the text is not a receipt. A receipt is accepted iff at least one line item
// was captured and a positive total was found; there are no partial results.
//
// Later matches win for the receipt id and the total. A line claimed by the
// id or total pattern is not also considered as a line item, so label lines
// like "TOTAL: $27.00" do not leak into the item list.
func (p *Parser) Parse(text string) *Receipt {
	if len(text) < p.MinTextLength {
		return nil
	}

	var (
		items     []Item
		total     float64
		receiptID string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		labeled := false
		if m := idPattern.FindStringSubmatch(line); m != nil {
			receiptID = m[1]
			labeled = true
		}
		if m := totalPattern.FindStringSubmatch(line); m != nil {
			total = parseAmount(m[1])
			labeled = true
		}
		if labeled {
			continue
		}

		if item, ok := matchItem(line); ok {
			items = append(items, item)
		}
	}

	if len(items) == 0 || total == 0 {
		return nil
	}

	if receiptID == "" {
		receiptID = fmt.Sprintf("R%d", time.Now().UnixMilli())
	}

	raw := text
	if len(raw) > p.MaxRawContent {
		raw = raw[:p.MaxRawContent]
	}

	return &Receipt{
		ReceiptID:  receiptID,
		Timestamp:  nowISO8601(),
		Items:      items,
		Total:      total,
		ItemCount:  len(items),
		RawContent: raw,
	}
}

// matchItem tries the three item shapes in priority order.
func matchItem(line string) (Item, bool) {
	if m := itemNameFirst.FindStringSubmatch(line); m != nil {
		qty := 1
		if m[2] != "" {
			qty = parseQuantity(m[2])
		}
		return Item{Name: strings.TrimSpace(m[1]), Quantity: qty, Price: parseAmount(m[3])}, true
	}
	if m := itemQtyFirst.FindStringSubmatch(line); m != nil {
		return Item{Name: strings.TrimSpace(m[2]), Quantity: parseQuantity(m[1]), Price: parseAmount(m[3])}, true
	}
	if m := itemBare.FindStringSubmatch(line); m != nil {
		return Item{Name: strings.TrimSpace(m[1]), Quantity: 1, Price: parseAmount(m[2])}, true
	}
	return Item{}, false
}

func parseAmount(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "."), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseQuantity(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
