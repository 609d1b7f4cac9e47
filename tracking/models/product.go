package models

import (
	"fmt"
	"strings"
	"time"
)

// Product is a single tracked item that is not traceable to producers.
type Product struct {
	ID            string        `gorm:"primaryKey;size:64" json:"id"`
	Name          string        `gorm:"size:200;not null" json:"name"`
	Quantity      float64       `gorm:"not null" json:"quantity"`
	Origin        string        `gorm:"size:200" json:"origin"`
	Destination   string        `gorm:"size:200" json:"destination"`
	TransportMode TransportMode `gorm:"size:20;not null" json:"modoTransporte"`
	Status        ProductStatus `gorm:"size:30;not null;index" json:"status"`
	Checkpoints   []Checkpoint  `gorm:"polymorphic:Owner;polymorphicValue:products" json:"checkpoints"`
	CreatedAt     time.Time     `gorm:"not null" json:"createdAt"`
	Version       int64         `gorm:"not null;default:0" json:"version"`
}

// AppendCheckpoint records cp. Products are not sealed and a checkpoint is
// accepted even after delivery.
func (p *Product) AppendCheckpoint(cp Checkpoint) {
	cp.Seq = len(p.Checkpoints)
	p.Checkpoints = append(p.Checkpoints, cp)
	if cp.IsDelivery() {
		p.Status = ProductDelivered
		return
	}
	if p.Status != ProductDelivered {
		p.Status = ProductInTransit
	}
}

// EditCheckpoint rewrites the description of checkpoint i and credits actor.
func (p *Product) EditCheckpoint(i int, desc, actor string) error {
	if i < 0 || i >= len(p.Checkpoints) {
		return ErrCheckpointIndex
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrEmptyActor
	}
	p.Checkpoints[i].Desc = fmt.Sprintf("%s (editado por %s)", desc, actor)
	p.Checkpoints[i].Operator = actor
	return nil
}

func (p *Product) MarkDelivered() {
	p.Status = ProductDelivered
}

func (p *Product) LastCheckpoint() (Checkpoint, bool) {
	if len(p.Checkpoints) == 0 {
		return Checkpoint{}, false
	}
	return p.Checkpoints[len(p.Checkpoints)-1], true
}

// DisplayStatus derives the status shown for the product.
func (p *Product) DisplayStatus() ProductStatus {
	if p.Status == ProductDelivered {
		return ProductDelivered
	}
	if len(p.Checkpoints) == 0 {
		return ProductAwaitingDispatch
	}
	return ProductInTransit
}
