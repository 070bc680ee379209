package punch

import "time"

// Collection is the datastore collection punch events are written to.
const Collection = "punches"

type Type string

const (
	TypeClockIn    Type = "CLOCK_IN"
	TypeBreakStart Type = "BREAK_START"
	TypeBreakEnd   Type = "BREAK_END"
	TypeClockOut   Type = "CLOCK_OUT"
)

var Types = []Type{TypeClockIn, TypeBreakStart, TypeBreakEnd, TypeClockOut}

func (t Type) Valid() bool {
	switch t {
	case TypeClockIn, TypeBreakStart, TypeBreakEnd, TypeClockOut:
		return true
	}
	return false
}

type Origin string

const (
	OriginOnline        Origin = "online"
	OriginOfflineQueue  Origin = "offline_queue"
	OriginJustification Origin = "justification_approved"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type DeviceInfo struct {
	UserAgent string `json:"userAgent"`
	Platform  string `json:"platform"`
	Language  string `json:"language"`
}

// Event is one clock action. Immutable once persisted.
type Event struct {
	UserID         string      `json:"userId"`
	UserName       string      `json:"userName,omitempty"`
	TenantID       string      `json:"tenantId"`
	Type           Type        `json:"type"`
	Geolocation    Coordinates `json:"geolocation"`
	DistanceMeters int         `json:"distanceMeters"`
	WithinGeofence bool        `json:"withinGeofence"`
	DeviceInfo     DeviceInfo  `json:"deviceInfo"`
	SourceIP       string      `json:"sourceIp"`
	Origin         Origin      `json:"origin"`
	// CreatedAt is server time, set on persistence. While an event sits in
	// the offline queue only CreatedAtLocal is populated; the sync pass
	// stamps CreatedAt and it becomes authoritative.
	CreatedAt            time.Time  `json:"createdAt"`
	CreatedAtLocal       *time.Time `json:"createdAtLocal,omitempty"`
	RetroactiveTimestamp *time.Time `json:"retroactiveTimestamp,omitempty"`
}

// EffectiveTime returns the timestamp that attendance calculations group by:
// an approved retroactive timestamp wins over the server timestamp, which in
// turn supersedes the client-local timestamp of a still-queued event.
func (e Event) EffectiveTime() time.Time {
	if e.RetroactiveTimestamp != nil {
		return *e.RetroactiveTimestamp
	}
	if !e.CreatedAt.IsZero() {
		return e.CreatedAt
	}
	if e.CreatedAtLocal != nil {
		return *e.CreatedAtLocal
	}
	return time.Time{}
}
