// Package codes derives the human readable identifiers printed on export
// batches and on each producer's share of a batch.
package codes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"export-tracking-service/tracking/models"
)

const batchCodePrefix = "LOTE"

// MaxProducersPerBatch is the number of sub-code letters available (A to Z).
const MaxProducersPerBatch = 26

// GenerateBatchCode returns LOTE-<year>-<last 6 digits of epoch millis>.
// Two codes generated in the same millisecond collide, so callers must
// serialize creation.
func GenerateBatchCode(now time.Time) string {
	millis := strconv.FormatInt(now.UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("%s-%d-%s", batchCodePrefix, now.Year(), millis)
}

// GenerateSubCodes annotates each producer with <suffix>-<letter>, the letter
// being 'A' plus the producer position.
func GenerateSubCodes(batchCode string, producers []models.Producer) []models.BatchProducer {
	suffix := Suffix(batchCode)
	out := make([]models.BatchProducer, 0, len(producers))
	for i, p := range producers {
		out = append(out, models.BatchProducer{
			Producer: p,
			SubCode:  suffix + "-" + string(rune('A'+i)),
		})
	}
	return out
}

// Suffix returns the numeric part of a batch code, the third dash
// separated segment.
func Suffix(batchCode string) string {
	parts := strings.Split(batchCode, "-")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
