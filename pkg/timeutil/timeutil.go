// Package timeutil renders UTC instants in a user's time zone.
package timeutil

import (
	"strings"
	"sync"
	"time"

	// Bundled zone database for hosts without /usr/share/zoneinfo.
	_ "time/tzdata"
)

// DisplayLayout renders as "HH:mm dd/MM/yyyy".
const DisplayLayout = "15:04 02/01/2006"

var zoneCache sync.Map // map[string]*time.Location

// ToLocal converts t into the named zone. Blank or unknown zones return t
// in UTC.
func ToLocal(t time.Time, zone string) time.Time {
	loc, ok := location(zone)
	if !ok {
		return t.UTC()
	}
	return t.In(loc)
}

// FormatLocal renders t in the named zone using DisplayLayout.
func FormatLocal(t time.Time, zone string) string {
	return ToLocal(t, zone).Format(DisplayLayout)
}

// IsValidZone reports whether zone names a loadable location.
func IsValidZone(zone string) bool {
	_, ok := location(zone)
	return ok
}

func location(zone string) (*time.Location, bool) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil, false
	}
	if cached, found := zoneCache.Load(zone); found {
		return cached.(*time.Location), true
	}

	loaded, err := time.LoadLocation(zone)
	if err != nil {
		return nil, false
	}
	zoneCache.Store(zone, loaded)
	return loaded, true
}
