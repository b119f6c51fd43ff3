package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Document number prefixes
const (
	QuotationPrefix = "COT-"
	InvoicePrefix   = "FAC-"
)

// nextDocumentNumber increments the numeric suffix of last, e.g.
// COT-000041 -> COT-000042. An empty or unparsable last starts at 1.
func nextDocumentNumber(prefix, last string) string {
	n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
	if err != nil || n < 0 {
		n = 0
	}
	return fmt.Sprintf("%s%06d", prefix, n+1)
}
