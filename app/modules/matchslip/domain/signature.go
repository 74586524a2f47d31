package matchslipdomain

import (
	"strings"
	"time"
)

// SignatureType is how a player attested to the results.
type SignatureType string

const (
	SignatureTouch   SignatureType = "touch"
	SignaturePin     SignatureType = "pin"
	SignatureDigital SignatureType = "digital"
)

func (t SignatureType) IsValid() bool {
	switch t {
	case SignatureTouch, SignaturePin, SignatureDigital:
		return true
	}
	return false
}

// AvailableMethods lists the signature types legal under the phone-ban flag.
func AvailableMethods(phoneBanned bool) []SignatureType {
	if phoneBanned {
		return []SignatureType{SignaturePin, SignatureDigital}
	}
	return []SignatureType{SignatureTouch, SignaturePin, SignatureDigital}
}

// DeviceInfo describes the device a signature came from.
type DeviceInfo struct {
	UserAgent string `json:"user_agent"`
	Screen    string `json:"screen,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	Language  string `json:"language,omitempty"`
}

var mobileMarkers = []string{"mobile", "iphone", "ipod", "android", "ipad", "tablet", "phone"}

// IsMobile applies a user-agent heuristic.
func (d DeviceInfo) IsMobile() bool {
	ua := strings.ToLower(d.UserAgent)
	for _, m := range mobileMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// Signature is one player's attestation.
type Signature struct {
	PlayerID   string        `json:"player_id"`
	Type       SignatureType `json:"signature_type"`
	Data       string        `json:"signature_data"`
	Timestamp  time.Time     `json:"timestamp"`
	DeviceInfo DeviceInfo    `json:"device_info"`
}

// CheckPolicy rejects signatures the phone ban forbids.
func (s Signature) CheckPolicy(phoneBanned bool) error {
	if !phoneBanned {
		return nil
	}
	if s.Type == SignatureTouch {
		return withDetail(ErrPolicyViolation, "touch signatures unavailable under phone ban")
	}
	if s.DeviceInfo.IsMobile() {
		return withDetail(ErrPolicyViolation, "mobile devices not permitted")
	}
	return nil
}
