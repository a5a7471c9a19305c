package types

import (
	"fmt"
	"strings"
	"time"
)

// CloudProvider identifies which cloud a record came from.
type CloudProvider string

const (
	CloudAWS   CloudProvider = "AWS"
	CloudAzure CloudProvider = "AZURE"
	CloudGCP   CloudProvider = "GCP"
)

// ParseCloudProvider validates a provider string (case-insensitive).
func ParseCloudProvider(s string) (CloudProvider, error) {
	switch CloudProvider(strings.ToUpper(s)) {
	case CloudAWS:
		return CloudAWS, nil
	case CloudAzure:
		return CloudAzure, nil
	case CloudGCP:
		return CloudGCP, nil
	}
	return "", fmt.Errorf("unknown cloud provider: %q (valid: AWS, AZURE, GCP)", s)
}

// AssetState is the canonical instance state. Provider vocabularies are
// mapped onto this closed set during normalization.
type AssetState string

const (
	StateRunning    AssetState = "RUNNING"
	StateStopped    AssetState = "STOPPED"
	StateTerminated AssetState = "TERMINATED"
	StatePending    AssetState = "PENDING"
	StateStopping   AssetState = "STOPPING"
	StateUnknown    AssetState = "UNKNOWN"
)

// AssetSource is how the aggregator discovered an asset.
type AssetSource string

const (
	SourceConnector AssetSource = "CONNECTOR"
	SourceAgent     AssetSource = "AGENT"
	SourceScanner   AssetSource = "SCANNER"
)

// Asset is the canonical record of one cloud compute instance. It is built
// exactly once during normalization; after the pipeline attaches the account
// alias it is never mutated again.
type Asset struct {
	AssetID       string            `json:"asset_id"`
	Name          string            `json:"name"`
	CloudProvider CloudProvider     `json:"cloud_provider"`
	AccountID     string            `json:"account_id"`
	AccountAlias  string            `json:"account_alias,omitempty"`
	Region        string            `json:"region,omitempty"`
	InstanceID    string            `json:"instance_id,omitempty"`
	InstanceType  string            `json:"instance_type,omitempty"`
	PrivateIP     string            `json:"private_ip,omitempty"`
	PublicIP      string            `json:"public_ip,omitempty"`
	State         AssetState        `json:"state"`
	Source        AssetSource       `json:"source"`
	HasAgent      bool              `json:"has_agent"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// AccountLabel is the display form used in reports: "id (alias)" when an
// alias differs from the account ID, otherwise just the ID.
func (a Asset) AccountLabel() string {
	if a.AccountAlias == "" || a.AccountAlias == a.AccountID {
		return a.AccountID
	}
	return fmt.Sprintf("%s (%s)", a.AccountID, a.AccountAlias)
}
