package contracts

// Shipment is one equipment delivery tracked by the scheduler.
type Shipment struct {
	EquipmentID          string `json:"equipment_id"`
	Description          string `json:"description,omitempty"`
	Country              string `json:"country"`
	Supplier             string `json:"supplier,omitempty"`
	OriginalDeliveryDate string `json:"original_delivery_date"`
	CurrentDeliveryDate  string `json:"current_delivery_date"`
	Status               string `json:"status,omitempty"`
}
