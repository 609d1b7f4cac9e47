// Package timeline merges the creation, sealing and checkpoint events of a
// shipment into one chronological list. Nothing here is persisted; the
// list is re-derived from the entity on every read.
package timeline

import (
	"fmt"
	"sort"
	"strconv"

	"export-tracking-service/tracking/aggregation"
	"export-tracking-service/tracking/models"
)

// Build derives the timeline of a batch.
func Build(batch models.Batch) []models.Event {
	events := make([]models.Event, 0, len(batch.Checkpoints)+2)

	totals := aggregation.ProductTotals(batch.Producers)
	events = append(events, models.Event{
		Type:        string(models.EventCreated),
		Timestamp:   batch.CreatedAt,
		Title:       "Lote Criado",
		Description: fmt.Sprintf("%d produtores agregados • %s", len(batch.Producers), aggregation.FormatTotals(totals)),
		Category:    models.EventCreated,
	})

	if batch.Sealed {
		sealedAt := batch.CreatedAt
		if batch.SealedAt != nil {
			sealedAt = *batch.SealedAt
		}
		events = append(events, models.Event{
			Type:        string(models.EventSealed),
			Timestamp:   sealedAt,
			Title:       "Lote Selado",
			Description: fmt.Sprintf("Selado por %s • Integridade garantida", batch.SealedBy),
			Category:    models.EventSealed,
		})
	}

	for _, cp := range batch.Checkpoints {
		events = append(events, checkpointEvent(cp))
	}

	Sort(events)
	return events
}

// BuildProduct derives the timeline of a legacy product.
func BuildProduct(product models.Product) []models.Event {
	events := make([]models.Event, 0, len(product.Checkpoints)+1)
	events = append(events, models.Event{
		Type:        string(models.EventCreated),
		Timestamp:   product.CreatedAt,
		Title:       "Produto Registado",
		Description: fmt.Sprintf("%s • %vt • %s → %s", product.Name, product.Quantity, product.Origin, product.Destination),
		Category:    models.EventCreated,
	})
	for _, cp := range product.Checkpoints {
		events = append(events, checkpointEvent(cp))
	}
	Sort(events)
	return events
}

// Sort orders events by timestamp. Events without a timestamp go last and
// ties keep their insertion order.
func Sort(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Timestamp, events[j].Timestamp
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.Before(b)
		}
	})
}

func checkpointEvent(cp models.Checkpoint) models.Event {
	return models.Event{
		Type:      string(models.EventCheckpoint),
		Timestamp: cp.Timestamp,
		Title:     cp.Desc,
		Description: fmt.Sprintf("%s • %s • %s • Lat: %s, Lng: %s",
			cp.Transport, cp.Status, cp.Operator, formatCoord(cp.Lat), formatCoord(cp.Lng)),
		Category: models.EventCheckpoint,
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
