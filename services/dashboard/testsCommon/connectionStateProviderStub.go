package testsCommon

import "github.com/iulianpascalau/container-dashboard/services/dashboard/common"

// ConnectionStateProviderStub -
type ConnectionStateProviderStub struct {
	ConnectionStateHandler func() common.ConnectionState
}

// ConnectionState -
func (stub *ConnectionStateProviderStub) ConnectionState() common.ConnectionState {
	if stub.ConnectionStateHandler != nil {
		return stub.ConnectionStateHandler()
	}
	return common.ConnectionDisconnected
}

// IsInterfaceNil -
func (stub *ConnectionStateProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
