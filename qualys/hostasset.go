package qualys

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agentgap/agentgap/types"
)

const (
	hostAssetPath   = "/qps/rest/2.0/search/am/hostasset"
	defaultPageSize = 1000
)

// SearchQuery describes one host asset search.
type SearchQuery struct {
	Cloud        types.CloudProvider
	CreatedAfter time.Time // zero means no created criterion
	UpdatedAfter time.Time // zero means no updated criterion
	PageSize     int
}

// HostAsset is the raw aggregator record for one host. Provider-specific
// details live in SourceInfo entries.
type HostAsset struct {
	ID             json.Number     `json:"id"`
	Name           string          `json:"name"`
	Created        string          `json:"created"`
	Modified       string          `json:"modified"`
	CloudProvider  string          `json:"cloudProvider"`
	TrackingMethod string          `json:"trackingMethod"`
	AgentInfo      json.RawMessage `json:"agentInfo,omitempty"`
	SourceInfo     *SourceInfo     `json:"sourceInfo,omitempty"`
}

// HasAgent reports whether the record carries agent info. An absent, null,
// or empty agentInfo object all mean no agent.
func (h HostAsset) HasAgent() bool {
	switch strings.TrimSpace(string(h.AgentInfo)) {
	case "", "null", "{}":
		return false
	}
	return true
}

// SourceInfo holds the per-source detail list for a host.
type SourceInfo struct {
	List []SourceEntry `json:"list"`
}

// SourceEntry is one element of the source info list. Exactly one of the
// pointer fields is set per entry.
type SourceEntry struct {
	EC2     *EC2Source      `json:"Ec2AssetSourceSimple,omitempty"`
	Azure   *AzureSource    `json:"AzureAssetSourceSimple,omitempty"`
	GCP     *GCPSource      `json:"GcpAssetSourceSimple,omitempty"`
	Agent   json.RawMessage `json:"AgentAssetSource,omitempty"`
	Scanner json.RawMessage `json:"QualysAssetSource,omitempty"`
}

// KV is a single tag or label pair.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EC2Source carries the AWS-specific host detail.
type EC2Source struct {
	AccountID     string `json:"accountId"`
	Region        string `json:"region"`
	InstanceID    string `json:"instanceId"`
	InstanceType  string `json:"instanceType"`
	InstanceState string `json:"instanceState"`
	PrivateIP     string `json:"privateIpAddress"`
	PublicIP      string `json:"publicIpAddress"`
	Tags          struct {
		Tags struct {
			List []struct {
				EC2Tags *KV `json:"EC2Tags,omitempty"`
			} `json:"list"`
		} `json:"tags"`
	} `json:"ec2InstanceTags"`
}

// TagMap flattens the nested EC2 tag list.
func (s *EC2Source) TagMap() map[string]string {
	tags := make(map[string]string)
	for _, item := range s.Tags.Tags.List {
		if item.EC2Tags != nil {
			tags[item.EC2Tags.Key] = item.EC2Tags.Value
		}
	}
	return tags
}

// AzureSource carries the Azure-specific host detail.
type AzureSource struct {
	SubscriptionID string `json:"subscriptionId"`
	Location       string `json:"location"`
	VMID           string `json:"vmId"`
	VMSize         string `json:"vmSize"`
	State          string `json:"state"`
	PrivateIP      string `json:"privateIpAddress"`
	PublicIP       string `json:"publicIpAddress"`
	Tags           struct {
		Tags struct {
			List []struct {
				AzureTags *KV `json:"AzureTags,omitempty"`
			} `json:"list"`
		} `json:"tags"`
	} `json:"azureVmTags"`
}

// TagMap flattens the nested Azure tag list.
func (s *AzureSource) TagMap() map[string]string {
	tags := make(map[string]string)
	for _, item := range s.Tags.Tags.List {
		if item.AzureTags != nil {
			tags[item.AzureTags.Key] = item.AzureTags.Value
		}
	}
	return tags
}

// GCPSource carries the GCP-specific host detail.
type GCPSource struct {
	ProjectID   string      `json:"projectId"`
	Zone        string      `json:"zone"`
	InstanceID  json.Number `json:"instanceId"`
	MachineType string      `json:"machineType"`
	State       string      `json:"state"`
	PrivateIP   string      `json:"privateIpAddress"`
	PublicIP    string      `json:"publicIpAddress"`
	Labels      struct {
		List []struct {
			GcpLabels *KV `json:"GcpLabels,omitempty"`
		} `json:"list"`
	} `json:"labels"`
}

// TagMap flattens the GCP label list.
func (s *GCPSource) TagMap() map[string]string {
	tags := make(map[string]string)
	for _, item := range s.Labels.List {
		if item.GcpLabels != nil {
			tags[item.GcpLabels.Key] = item.GcpLabels.Value
		}
	}
	return tags
}

type hostAssetEnvelope struct {
	ServiceResponse struct {
		ResponseCode   string      `json:"responseCode"`
		HasMoreRecords string      `json:"hasMoreRecords"`
		LastID         json.Number `json:"lastId"`
		Data           []struct {
			HostAsset HostAsset `json:"HostAsset"`
		} `json:"data"`
	} `json:"ServiceResponse"`
}

// HostAssetPager drives the host asset search one page at a time. It is not
// restartable: once exhausted, build a new pager for a fresh sequence.
type HostAssetPager struct {
	client *Client
	query  SearchQuery
	lastID string
	done   bool
}

// SearchHostAssets starts a new paginated search. No request is made until
// the first NextPage call.
func (c *Client) SearchHostAssets(query SearchQuery) *HostAssetPager {
	if query.PageSize <= 0 {
		query.PageSize = defaultPageSize
	}
	return &HostAssetPager{client: c, query: query}
}

// HasMorePages reports whether another NextPage call can yield records.
func (p *HostAssetPager) HasMorePages() bool {
	return !p.done
}

// NextPage fetches the next page of raw records. The id cursor from the
// previous response is threaded into the request filters.
func (p *HostAssetPager) NextPage(ctx context.Context) ([]HostAsset, error) {
	if p.done {
		return nil, fmt.Errorf("pager exhausted")
	}

	payload := buildSearchRequest(p.query, p.lastID)
	body, err := p.client.postAPI(ctx, hostAssetPath, "application/xml", payload)
	if err != nil {
		p.done = true
		return nil, err
	}

	var envelope hostAssetEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		p.done = true
		return nil, &types.TransportError{Op: hostAssetPath,
			Err: fmt.Errorf("malformed response: %w", err)}
	}

	resp := envelope.ServiceResponse
	records := make([]HostAsset, 0, len(resp.Data))
	for _, item := range resp.Data {
		records = append(records, item.HostAsset)
	}

	if resp.HasMoreRecords == "true" && resp.LastID.String() != "" && len(records) > 0 {
		p.lastID = resp.LastID.String()
	} else {
		p.done = true
	}
	if len(records) == 0 {
		p.done = true
	}

	p.client.logger.WithContext(ctx).Debug().
		Int("records", len(records)).
		Bool("more", !p.done).
		Msg("fetched host asset page")

	return records, nil
}

// buildSearchRequest renders the qps/rest search body. Cutoff criteria are
// also enforced client-side by the filter chain.
func buildSearchRequest(q SearchQuery, lastID string) []byte {
	var criteria string
	criteria += fmt.Sprintf(`<Criteria field="cloudProviderType" operator="EQUALS">%s</Criteria>`, q.Cloud)
	if !q.CreatedAfter.IsZero() {
		criteria += fmt.Sprintf(`<Criteria field="created" operator="GREATER">%s</Criteria>`,
			q.CreatedAfter.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if !q.UpdatedAfter.IsZero() {
		criteria += fmt.Sprintf(`<Criteria field="updated" operator="GREATER">%s</Criteria>`,
			q.UpdatedAfter.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if lastID != "" {
		criteria += fmt.Sprintf(`<Criteria field="id" operator="GREATER">%s</Criteria>`, lastID)
	}

	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<ServiceRequest>
    <preferences><limitResults>%d</limitResults></preferences>
    <filters>%s</filters>
</ServiceRequest>`, q.PageSize, criteria))
}
