// parsecheck runs a spool file (or a built-in sample) through the
// extract→parse stages offline and prints the result.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/posbridge/receipt-interceptor/internal/extract"
	"github.com/posbridge/receipt-interceptor/internal/receipt"
)

const sampleJob = `================================
       RESTAURANT XYZ
================================
Receipt #: 5001

--------------------------------
ITEMS:
Shawarma x1 $12.00
Juice x2 $10.00
Fries x1 $5.00
--------------------------------
TOTAL: $27.00
================================
Thank you!
`

func main() {
	var buf []byte
	if len(os.Args) > 1 {
		var err error
		buf, err = os.ReadFile(os.Args[1])
		if err != nil {
			log.Fatalf("reading %s: %v", os.Args[1], err)
		}
	} else {
		buf = []byte(sampleJob)
	}

	text := extract.Text(buf)
	fmt.Printf("extracted %d chars of printable text\n\n", len(text))

	parser := receipt.NewParser(0, 0)
	rec := parser.Parse(text)
	if rec == nil {
		fmt.Println("no receipt found")
		os.Exit(1)
	}

	fmt.Printf("Receipt ID: %s\n", rec.ReceiptID)
	fmt.Printf("Items: %d\n", rec.ItemCount)
	for _, item := range rec.Items {
		fmt.Printf("  - %s x%d = $%.2f\n", item.Name, item.Quantity, item.Price)
	}
	fmt.Printf("\nTotal: $%.2f\n", rec.Total)
	fmt.Printf("Timestamp: %s\n", rec.Timestamp)
}
