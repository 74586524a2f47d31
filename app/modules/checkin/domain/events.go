package checkindomain

// Scanner command topics on the bus.
const (
	RedeemRequestedV1 = "tourney.checkin.redeem.requested.v1"
	RedeemResultV1    = "tourney.checkin.redeem.result.v1"
)

// RedeemRequestedPayloadV1 asks the desk to redeem a scanned token.
type RedeemRequestedPayloadV1 struct {
	TokenValue string `json:"token_value"`
	ScannedBy  string `json:"scanned_by,omitempty"`
	DeviceID   string `json:"device_id,omitempty"`
}

// RedeemResultPayloadV1 reports the outcome of a redeem command.
type RedeemResultPayloadV1 struct {
	Success  bool           `json:"success"`
	Reason   string         `json:"reason,omitempty"`
	Message  string         `json:"message,omitempty"`
	DeviceID string         `json:"device_id,omitempty"`
	Record   *CheckInRecord `json:"record,omitempty"`
}
