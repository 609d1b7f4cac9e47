package models

import (
	"strings"
	"time"
)

// Place is a structured country/city pair.
type Place struct {
	Country string `gorm:"size:100" json:"country,omitempty"`
	City    string `gorm:"size:100" json:"city,omitempty"`
}

func (p Place) String() string {
	city := strings.TrimSpace(p.City)
	country := strings.TrimSpace(p.Country)
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case city != "":
		return city
	default:
		return country
	}
}

func (p Place) IsZero() bool {
	return strings.TrimSpace(p.City) == "" && strings.TrimSpace(p.Country) == ""
}

// BatchProducer is a producer snapshot taken when the batch was built.
type BatchProducer struct {
	Producer
	SubCode       string             `json:"subCode"`
	BatchProducts map[string]float64 `json:"batchProducts,omitempty"`
	BatchQuantity float64            `json:"batchQuantity"`
}

// Batch represents batches table
type Batch struct {
	ID            string          `gorm:"primaryKey;size:64" json:"id"`
	BatchCode     string          `gorm:"size:32;not null;index" json:"batchCode"`
	Name          string          `gorm:"size:200" json:"name,omitempty"`
	Origin        Place           `gorm:"embedded;embeddedPrefix:origin_" json:"origin"`
	Destination   Place           `gorm:"embedded;embeddedPrefix:destination_" json:"destination"`
	TransportMode TransportMode   `gorm:"size:20;not null" json:"modoTransporte"`
	TotalQuantity float64         `gorm:"not null" json:"totalQuantity"`
	Producers     []BatchProducer `gorm:"serializer:json;type:jsonb" json:"producers"`
	CreatedAt     time.Time       `gorm:"not null" json:"createdAt"`
	Sealed        bool            `gorm:"not null;default:false" json:"sealed"`
	SealedBy      string          `gorm:"size:100" json:"sealedBy,omitempty"`
	SealedAt      *time.Time      `json:"sealedAt,omitempty"`
	Status        BatchStatus     `gorm:"size:20;not null;index" json:"status"`
	Checkpoints   []Checkpoint    `gorm:"polymorphic:Owner;polymorphicValue:batches" json:"checkpoints"`
	Version       int64           `gorm:"not null;default:0" json:"version"`
}

// Seal attests the batch integrity. It can only happen once.
func (b *Batch) Seal(actor string, at time.Time) error {
	if b.Sealed {
		return ErrAlreadySealed
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrEmptyActor
	}
	sealedAt := at.UTC()
	b.Sealed = true
	b.SealedBy = actor
	b.SealedAt = &sealedAt
	if !b.Status.AtLeast(BatchSealed) {
		b.Status = BatchSealed
	}
	return nil
}

// CanRecordCheckpoint returns the precondition error that blocks a new
// checkpoint, if any.
func (b *Batch) CanRecordCheckpoint() error {
	if !b.Sealed {
		return ErrNotSealed
	}
	if b.Status == BatchDelivered {
		return ErrAlreadyDelivered
	}
	return nil
}

// AppendCheckpoint records cp and advances the status.
func (b *Batch) AppendCheckpoint(cp Checkpoint) error {
	if err := b.CanRecordCheckpoint(); err != nil {
		return err
	}
	cp.Seq = len(b.Checkpoints)
	b.Checkpoints = append(b.Checkpoints, cp)
	if cp.IsDelivery() {
		b.Status = BatchDelivered
	} else {
		b.Status = BatchInTransit
	}
	return nil
}

func (b *Batch) LastCheckpoint() (Checkpoint, bool) {
	if len(b.Checkpoints) == 0 {
		return Checkpoint{}, false
	}
	return b.Checkpoints[len(b.Checkpoints)-1], true
}

// ProductNames returns the distinct product names declared by the producers.
func (b *Batch) ProductNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range b.Producers {
		for name := range p.BatchProducts {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
