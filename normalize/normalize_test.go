package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgap/agentgap/qualys"
	"github.com/agentgap/agentgap/types"
)

func rawFromJSON(t *testing.T, payload string) qualys.HostAsset {
	t.Helper()
	var raw qualys.HostAsset
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

const awsRecord = `{
	"id": 12345,
	"name": "web-01",
	"created": "2026-08-29T10:00:00Z",
	"modified": "2026-08-30T11:30:00Z",
	"cloudProvider": "AWS",
	"trackingMethod": "EC2",
	"sourceInfo": {"list": [
		{"Ec2AssetSourceSimple": {
			"accountId": "111122223333",
			"region": "us-east-1",
			"instanceId": "i-0abc123",
			"instanceType": "t3.large",
			"instanceState": "RUNNING",
			"privateIpAddress": "10.0.1.5",
			"publicIpAddress": "54.1.2.3",
			"ec2InstanceTags": {"tags": {"list": [
				{"EC2Tags": {"key": "env", "value": "prod"}},
				{"EC2Tags": {"key": "team", "value": "web"}}
			]}}
		}}
	]}
}`

func TestRecordAWS(t *testing.T) {
	asset, err := Record(rawFromJSON(t, awsRecord), types.CloudAWS)
	require.NoError(t, err)

	assert.Equal(t, "12345", asset.AssetID)
	assert.Equal(t, "web-01", asset.Name)
	assert.Equal(t, types.CloudAWS, asset.CloudProvider)
	assert.Equal(t, "111122223333", asset.AccountID)
	assert.Equal(t, "us-east-1", asset.Region)
	assert.Equal(t, "i-0abc123", asset.InstanceID)
	assert.Equal(t, "t3.large", asset.InstanceType)
	assert.Equal(t, "10.0.1.5", asset.PrivateIP)
	assert.Equal(t, "54.1.2.3", asset.PublicIP)
	assert.Equal(t, types.StateRunning, asset.State)
	assert.Equal(t, types.SourceConnector, asset.Source)
	assert.False(t, asset.HasAgent)
	assert.Equal(t, time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), asset.CreatedAt)
	assert.Equal(t, map[string]string{"env": "prod", "team": "web"}, asset.Tags)
}

func TestRecordAzure(t *testing.T) {
	raw := rawFromJSON(t, `{
		"id": 777,
		"name": "vm-eastus",
		"created": "2026-08-01T00:00:00Z",
		"modified": "2026-08-02T00:00:00Z",
		"cloudProvider": "AZURE",
		"sourceInfo": {"list": [
			{"AzureAssetSourceSimple": {
				"subscriptionId": "sub-42",
				"location": "eastus",
				"vmId": "vm-8f2",
				"vmSize": "Standard_D2s_v3",
				"state": "deallocated",
				"azureVmTags": {"tags": {"list": [
					{"AzureTags": {"key": "owner", "value": "data"}}
				]}}
			}}
		]}
	}`)

	asset, err := Record(raw, types.CloudAzure)
	require.NoError(t, err)
	assert.Equal(t, "sub-42", asset.AccountID)
	assert.Equal(t, "eastus", asset.Region)
	assert.Equal(t, "vm-8f2", asset.InstanceID)
	assert.Equal(t, "Standard_D2s_v3", asset.InstanceType)
	assert.Equal(t, types.StateStopped, asset.State)
	assert.Equal(t, map[string]string{"owner": "data"}, asset.Tags)
}

func TestRecordGCP(t *testing.T) {
	raw := rawFromJSON(t, `{
		"id": 900,
		"name": "gke-node-1",
		"created": "2026-08-01T00:00:00Z",
		"modified": "2026-08-02T00:00:00Z",
		"sourceInfo": {"list": [
			{"GcpAssetSourceSimple": {
				"projectId": "proj-9",
				"zone": "europe-west1-b",
				"instanceId": 5812345678901234,
				"machineType": "e2-standard-4",
				"state": "RUNNING",
				"labels": {"list": [
					{"GcpLabels": {"key": "cluster", "value": "main"}}
				]}
			}}
		]}
	}`)

	asset, err := Record(raw, types.CloudGCP)
	require.NoError(t, err)
	assert.Equal(t, "proj-9", asset.AccountID)
	assert.Equal(t, "europe-west1-b", asset.Region)
	assert.Equal(t, "5812345678901234", asset.InstanceID)
	assert.Equal(t, types.CloudGCP, asset.CloudProvider)
	assert.Equal(t, map[string]string{"cluster": "main"}, asset.Tags)
}

func TestRecordAgentPresent(t *testing.T) {
	raw := rawFromJSON(t, `{
		"id": 1,
		"created": "2026-08-01T00:00:00Z",
		"modified": "2026-08-02T00:00:00Z",
		"agentInfo": {"agentId": "a-1"},
		"sourceInfo": {"list": [{"AgentAssetSource": {"agentId": "a-1"}}]}
	}`)

	asset, err := Record(raw, types.CloudAWS)
	require.NoError(t, err)
	assert.True(t, asset.HasAgent)
	assert.Equal(t, types.SourceAgent, asset.Source)
}

func TestRecordBadTimestamp(t *testing.T) {
	raw := rawFromJSON(t, `{"id": 2, "created": "N/A", "modified": "2026-08-02T00:00:00Z"}`)

	_, err := Record(raw, types.CloudAWS)
	require.Error(t, err)

	var normErr *types.NormalizationError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, "created", normErr.Field)
	assert.Equal(t, "2", normErr.AssetID)
}

func TestRecordMissingTimestamp(t *testing.T) {
	raw := rawFromJSON(t, `{"id": 3, "created": "2026-08-01T00:00:00Z"}`)

	_, err := Record(raw, types.CloudAWS)
	var normErr *types.NormalizationError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, "updated", normErr.Field)
}

func TestRecordNoSourceInfo(t *testing.T) {
	raw := rawFromJSON(t, `{"id": 4, "created": "2026-08-01T00:00:00Z", "modified": "2026-08-02T00:00:00Z", "trackingMethod": "IP"}`)

	asset, err := Record(raw, types.CloudAWS)
	require.NoError(t, err)
	// incomplete attribution is the filter chain's problem, not ours
	assert.Empty(t, asset.AccountID)
	assert.Equal(t, types.StateUnknown, asset.State)
	assert.Equal(t, types.SourceScanner, asset.Source)
}

func TestMapStateVocabulary(t *testing.T) {
	cases := map[string]types.AssetState{
		"RUNNING":       types.StateRunning,
		"running":       types.StateRunning,
		"deallocated":   types.StateStopped,
		"SHUTTING_DOWN": types.StateStopping,
		"TERMINATED":    types.StateTerminated,
		"chaotic":       types.StateUnknown,
		"":              types.StateUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, mapState(raw), "state %q", raw)
	}
}

func TestMapSourceTrackingFallback(t *testing.T) {
	raw := rawFromJSON(t, `{"id": 5, "trackingMethod": "QAGENT"}`)
	assert.Equal(t, types.SourceAgent, mapSource(raw))

	raw = rawFromJSON(t, `{"id": 6, "trackingMethod": "DNS"}`)
	assert.Equal(t, types.SourceScanner, mapSource(raw))

	raw = rawFromJSON(t, `{"id": 7, "trackingMethod": "VM_ID"}`)
	assert.Equal(t, types.SourceConnector, mapSource(raw))
}
