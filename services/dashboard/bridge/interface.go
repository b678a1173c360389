package bridge

import "github.com/iulianpascalau/container-dashboard/services/dashboard/common"

// View defines the scheduler-side operations the bridge needs: folding an
// accepted event into the snapshot and requesting a full coordinated refresh
type View interface {
	ApplyLiveUpdate(event common.LiveUpdateEvent)
	Refresh()
	IsInterfaceNil() bool
}
