package config

import (
	"github.com/denisbrodbeck/machineid"
)

const appID = "lgap"

// DefaultName derives the bridge name from the machine id, so the name
// stays the same across restarts without configuration.
func DefaultName() string {
	id, err := machineid.ProtectedID(appID)
	if err != nil || len(id) < 12 {
		return appID
	}
	return appID + "/" + id[:12]
}
