package services

import (
	"context"
	"math"
	"sort"

	"export-tracking-service/tracking/models"
	"export-tracking-service/tracking/repositories"
)

const recentBatchCount = 5

type DashboardStats struct {
	TotalBatches     int            `json:"totalBatches"`
	SealedBatches    int            `json:"sealedBatches"`
	SealedPercentage float64        `json:"sealedPercentage"`
	InTransit        int            `json:"inTransit"`
	Delivered        int            `json:"delivered"`
	TotalVolume      float64        `json:"totalVolume"`
	Producers        int            `json:"producers"`
	Checkpoints      int            `json:"checkpoints"`
	AvgCheckpoints   float64        `json:"averageCheckpoints"`
	RecentBatches    []models.Batch `json:"recentBatches"`
}

type DashboardService struct {
	batches   repositories.BatchStore
	producers repositories.ProducerStore
}

func NewDashboardService(batches repositories.BatchStore, producers repositories.ProducerStore) *DashboardService {
	return &DashboardService{batches: batches, producers: producers}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	batches, err := s.batches.ListBatches(ctx)
	if err != nil {
		return nil, err
	}
	producers, err := s.producers.ListProducers(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalBatches: len(batches),
		Producers:    len(producers),
	}
	for _, b := range batches {
		if b.Sealed {
			stats.SealedBatches++
		}
		switch b.Status {
		case models.BatchInTransit:
			stats.InTransit++
		case models.BatchDelivered:
			stats.Delivered++
		}
		stats.TotalVolume += b.TotalQuantity
		stats.Checkpoints += len(b.Checkpoints)
	}
	if stats.TotalBatches > 0 {
		pct := float64(stats.SealedBatches) / float64(stats.TotalBatches) * 100
		stats.SealedPercentage = math.Round(pct)
		avg := float64(stats.Checkpoints) / float64(stats.TotalBatches)
		stats.AvgCheckpoints = math.Round(avg*10) / 10
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].CreatedAt.After(batches[j].CreatedAt)
	})
	if len(batches) > recentBatchCount {
		batches = batches[:recentBatchCount]
	}
	stats.RecentBatches = batches
	return stats, nil
}
