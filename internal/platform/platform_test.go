package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCurrentRequest(t *testing.T) {
	req := DefaultCurrentRequest()

	assert.Equal(t, 0x203, req.Priority)
	assert.Equal(t, 0x300, req.Scenario)
	assert.Zero(t, req.MaxAccuracy)
	assert.Equal(t, int64(2000), req.TimeoutMs)
}

func TestBusinessError_UnwrapsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("subscribe: %w", NewError(CodeSwitchOff, "receiver %s closed", "/dev/ttyS0"))

	var be *BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, CodeSwitchOff, be.Code)
	assert.Equal(t, "receiver /dev/ttyS0 closed", be.Message)
	assert.Contains(t, err.Error(), "3301100")
}

func TestObserveRequest_JSON(t *testing.T) {
	var req ObserveRequest
	err := json.Unmarshal([]byte(`{"priority":515,"scenario":768,"timeInterval":5,"distanceInterval":10}`), &req)
	require.NoError(t, err)

	assert.Equal(t, ObserveRequest{
		Priority:         PriorityFirstFix,
		Scenario:         ScenarioUnset,
		TimeInterval:     5,
		DistanceInterval: 10,
	}, req)
}
