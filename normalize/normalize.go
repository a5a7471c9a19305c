// Package normalize maps raw aggregator records onto the canonical Asset
// shape. Each cloud provider has its own explicit field mapping selected by
// the provider tag; there is no reflective probing of record shapes.
package normalize

import (
	"time"

	"github.com/agentgap/agentgap/qualys"
	"github.com/agentgap/agentgap/types"
)

// cloudDetail is the provider-independent view of one source info entry.
type cloudDetail struct {
	accountID    string
	region       string
	instanceID   string
	instanceType string
	rawState     string
	privateIP    string
	publicIP     string
	tags         map[string]string
}

// Record normalizes one raw host asset. A missing or unparseable required
// timestamp fails this record only; the caller skips and counts it.
func Record(raw qualys.HostAsset, cloud types.CloudProvider) (types.Asset, error) {
	createdAt, err := parseTimestamp(raw, "created", raw.Created)
	if err != nil {
		return types.Asset{}, err
	}
	updatedAt, err := parseTimestamp(raw, "updated", raw.Modified)
	if err != nil {
		return types.Asset{}, err
	}

	detail := extractDetail(raw, cloud)

	provider := cloud
	if raw.CloudProvider != "" {
		if parsed, err := types.ParseCloudProvider(raw.CloudProvider); err == nil {
			provider = parsed
		}
	}

	return types.Asset{
		AssetID:       raw.ID.String(),
		Name:          raw.Name,
		CloudProvider: provider,
		AccountID:     detail.accountID,
		Region:        detail.region,
		InstanceID:    detail.instanceID,
		InstanceType:  detail.instanceType,
		PrivateIP:     detail.privateIP,
		PublicIP:      detail.publicIP,
		State:         mapState(detail.rawState),
		Source:        mapSource(raw),
		HasAgent:      raw.HasAgent(),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		Tags:          detail.tags,
	}, nil
}

// extractDetail walks the source info list and applies the mapping table for
// the requested provider. Records with no matching entry keep empty optional
// fields; the empty account ID excludes them downstream.
func extractDetail(raw qualys.HostAsset, cloud types.CloudProvider) cloudDetail {
	if raw.SourceInfo == nil {
		return cloudDetail{}
	}

	for _, entry := range raw.SourceInfo.List {
		switch cloud {
		case types.CloudAWS:
			if entry.EC2 != nil {
				return fromEC2(entry.EC2)
			}
		case types.CloudAzure:
			if entry.Azure != nil {
				return fromAzure(entry.Azure)
			}
		case types.CloudGCP:
			if entry.GCP != nil {
				return fromGCP(entry.GCP)
			}
		}
	}
	return cloudDetail{}
}

func fromEC2(src *qualys.EC2Source) cloudDetail {
	return cloudDetail{
		accountID:    src.AccountID,
		region:       src.Region,
		instanceID:   src.InstanceID,
		instanceType: src.InstanceType,
		rawState:     src.InstanceState,
		privateIP:    src.PrivateIP,
		publicIP:     src.PublicIP,
		tags:         src.TagMap(),
	}
}

func fromAzure(src *qualys.AzureSource) cloudDetail {
	return cloudDetail{
		accountID:    src.SubscriptionID,
		region:       src.Location,
		instanceID:   src.VMID,
		instanceType: src.VMSize,
		rawState:     src.State,
		privateIP:    src.PrivateIP,
		publicIP:     src.PublicIP,
		tags:         src.TagMap(),
	}
}

func fromGCP(src *qualys.GCPSource) cloudDetail {
	return cloudDetail{
		accountID:    src.ProjectID,
		region:       src.Zone,
		instanceID:   src.InstanceID.String(),
		instanceType: src.MachineType,
		rawState:     src.State,
		privateIP:    src.PrivateIP,
		publicIP:     src.PublicIP,
		tags:         src.TagMap(),
	}
}

func parseTimestamp(raw qualys.HostAsset, field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &types.NormalizationError{
			AssetID: raw.ID.String(), Field: field, Reason: "missing required timestamp"}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &types.NormalizationError{
			AssetID: raw.ID.String(), Field: field, Reason: "cannot parse " + value}
	}
	return ts.UTC(), nil
}
