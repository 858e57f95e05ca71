// Package receipt turns scraped print-job text into structured receipts using
// layered line heuristics. Parsing is pure: no I/O, no shared state.
package receipt

import "time"

// Item is a single receipt line item.
type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Receipt is a parsed point-of-sale receipt ready for submission.
type Receipt struct {
	ReceiptID  string  `json:"receiptId"`
	TerminalID string  `json:"terminalId"`
	LocationID string  `json:"locationId"`
	Timestamp  string  `json:"timestamp"`
	Items      []Item  `json:"items"`
	Total      float64 `json:"total"`
	ItemCount  int     `json:"itemCount"`
	RawContent string  `json:"rawContent"`
}

// Stamp fills in the terminal-scoped fields the parser has no knowledge of.
func (r *Receipt) Stamp(terminalID, locationID string) {
	r.TerminalID = terminalID
	r.LocationID = locationID
}

func nowISO8601() string {
	return time.Now().UTC().Format(time.RFC3339)
}
