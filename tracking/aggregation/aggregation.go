// Package aggregation rolls per-producer product quantities up to batch
// level totals. All quantities are tonnes.
package aggregation

import (
	"fmt"
	"sort"
	"strings"

	"export-tracking-service/tracking/models"
)

// ProductTotals sums each product's quantity across producers. Producers
// without a product mapping contribute nothing.
func ProductTotals(producers []models.BatchProducer) map[string]float64 {
	totals := make(map[string]float64)
	for _, p := range producers {
		addAll(totals, p.BatchProducts)
	}
	return totals
}

// BatchTotal is the grand total of every product of every producer.
func BatchTotal(producers []models.BatchProducer) float64 {
	var total float64
	for _, p := range producers {
		total += ProducerTotal(p.BatchProducts)
	}
	return total
}

// ProducerTotal sums one producer's product mapping.
func ProducerTotal(products map[string]float64) float64 {
	var total float64
	for _, qty := range products {
		total += qty
	}
	return total
}

// SelectionProductTotals is ProductTotals applied to a selection that has
// not been turned into a batch yet.
func SelectionProductTotals(selections []models.ProducerSelection) map[string]float64 {
	totals := make(map[string]float64)
	for _, s := range selections {
		addAll(totals, s.Products)
	}
	return totals
}

// SelectionTotal is the live total shown while producers are being picked.
func SelectionTotal(selections []models.ProducerSelection) float64 {
	var total float64
	for _, s := range selections {
		total += ProducerTotal(s.Products)
	}
	return total
}

// FormatTonnes renders a quantity with one decimal place.
func FormatTonnes(qty float64) string {
	return fmt.Sprintf("%.1f", qty)
}

// FormatTotals renders totals as "Cacau: 0.5t, Café: 3.5t", sorted by name.
func FormatTotals(totals map[string]float64) string {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %st", name, FormatTonnes(totals[name])))
	}
	return strings.Join(parts, ", ")
}

func addAll(totals, products map[string]float64) {
	for name, qty := range products {
		totals[name] += qty
	}
}
