package models

// BatchStatus is the lifecycle stage of a Batch.
type BatchStatus string

const (
	BatchCreated   BatchStatus = "Criado"
	BatchSealed    BatchStatus = "Selado"
	BatchInTransit BatchStatus = "Em trânsito"
	BatchDelivered BatchStatus = "Entregue"
)

var batchStatusRank = map[BatchStatus]int{
	BatchCreated:   0,
	BatchSealed:    1,
	BatchInTransit: 2,
	BatchDelivered: 3,
}

// Valid reports whether s is one of the known batch statuses.
func (s BatchStatus) Valid() bool {
	_, ok := batchStatusRank[s]
	return ok
}

// AtLeast reports whether s is the same stage as other or a later one.
func (s BatchStatus) AtLeast(other BatchStatus) bool {
	return batchStatusRank[s] >= batchStatusRank[other]
}

func (s BatchStatus) IsFinal() bool {
	return s == BatchDelivered
}

// ProductStatus is the lifecycle stage of a legacy single-item Product.
type ProductStatus string

const (
	ProductAwaitingDispatch ProductStatus = "Aguardando despacho"
	ProductInTransit        ProductStatus = "Em trânsito"
	ProductDelivered        ProductStatus = "Entregue"
)

func (s ProductStatus) IsFinal() bool {
	return s == ProductDelivered
}

// CheckpointDelivered is the checkpoint status that closes a shipment.
const CheckpointDelivered = "Entregue"

// CheckpointInTransit is the default checkpoint status.
const CheckpointInTransit = "Em trânsito"

type TransportMode string

const (
	TransportCar   TransportMode = "Carro"
	TransportPlane TransportMode = "Avião"
	TransportShip  TransportMode = "Navio"
	TransportTruck TransportMode = "Camião"
	TransportTrain TransportMode = "Comboio"
)

// TransportModes lists every accepted mode in display order.
var TransportModes = []TransportMode{
	TransportCar,
	TransportPlane,
	TransportShip,
	TransportTruck,
	TransportTrain,
}

func (m TransportMode) Valid() bool {
	for _, mode := range TransportModes {
		if m == mode {
			return true
		}
	}
	return false
}

// IsAir reports whether the mode skips road routing.
func (m TransportMode) IsAir() bool {
	return m == TransportPlane
}
