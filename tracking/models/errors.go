package models

import "errors"

var (
	ErrAlreadySealed    = errors.New("batch is already sealed")
	ErrNotSealed        = errors.New("batch must be sealed before recording checkpoints")
	ErrAlreadyDelivered = errors.New("shipment is already delivered")
	ErrCheckpointIndex  = errors.New("checkpoint index out of range")
	ErrEmptyActor       = errors.New("actor name is required")
)
