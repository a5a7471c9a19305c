package qualys

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentgap/agentgap/types"
)

// Connector is one cloud connector registered on the platform.
type Connector struct {
	Name         string `json:"name"`
	AWSAccountID string `json:"awsAccountId"`
	AccountAlias string `json:"accountAlias"`
	Description  string `json:"description"`
	State        string `json:"state"`
}

type connectorList struct {
	Content []Connector `json:"content"`
}

// ListConnectors fetches the registered connectors for one cloud via the
// gateway Connector v1.0 API.
func (c *Client) ListConnectors(ctx context.Context, cloud types.CloudProvider) ([]Connector, error) {
	body, err := c.getGateway(ctx, fmt.Sprintf("/connectors/v1.0/%s/list", cloud))
	if err != nil {
		return nil, err
	}

	var list connectorList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &types.TransportError{Op: "list connectors",
			Err: fmt.Errorf("malformed response: %w", err)}
	}
	return list.Content, nil
}

type v3Envelope struct {
	ServiceResponse struct {
		Data []map[string]json.RawMessage `json:"data"`
	} `json:"ServiceResponse"`
}

type awsDataConnector struct {
	Name         string `json:"name"`
	AWSAccountID string `json:"awsAccountId"`
	AccountAlias string `json:"accountAlias"`
}

type azureDataConnector struct {
	Name       string `json:"name"`
	AuthRecord struct {
		SubscriptionID string `json:"subscriptionId"`
	} `json:"authRecord"`
}

type gcpDataConnector struct {
	Name       string `json:"name"`
	AuthRecord struct {
		ProjectID string `json:"projectId"`
	} `json:"authRecord"`
}

// AccountAliases fetches account/subscription/project display names for one
// cloud. For AWS the Connector v1.0 listing is consulted first; the v3.0
// asset data connector API then fills accounts still missing an alias.
func (c *Client) AccountAliases(ctx context.Context, cloud types.CloudProvider) (map[string]string, error) {
	aliases := make(map[string]string)

	if cloud == types.CloudAWS {
		connectors, err := c.ListConnectors(ctx, cloud)
		if err != nil {
			return nil, err
		}
		for _, conn := range connectors {
			alias := firstNonEmpty(conn.AccountAlias, conn.Name, conn.Description)
			if conn.AWSAccountID != "" && alias != "" {
				aliases[conn.AWSAccountID] = alias
			}
		}
	}

	if err := c.fillDataConnectorAliases(ctx, cloud, aliases); err != nil {
		return nil, err
	}

	c.logger.WithContext(ctx).Info().
		Int("aliases", len(aliases)).
		Str("cloud", string(cloud)).
		Msg("fetched account aliases")
	return aliases, nil
}

func (c *Client) fillDataConnectorAliases(ctx context.Context, cloud types.CloudProvider, aliases map[string]string) error {
	endpoint, key := dataConnectorRoute(cloud)

	payload := []byte(`{"ServiceRequest": {}}`)
	body, err := c.postAPI(ctx, "/qps/rest/3.0/search/am/"+endpoint, "application/json", payload)
	if err != nil {
		return err
	}

	var envelope v3Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &types.TransportError{Op: endpoint,
			Err: fmt.Errorf("malformed response: %w", err)}
	}

	for _, item := range envelope.ServiceResponse.Data {
		raw, ok := item[key]
		if !ok {
			continue
		}
		id, alias, err := extractDataConnector(cloud, raw)
		if err != nil {
			continue
		}
		// v1.0 aliases win; only fill the gaps
		if id != "" && alias != "" {
			if _, exists := aliases[id]; !exists {
				aliases[id] = alias
			}
		}
	}
	return nil
}

func dataConnectorRoute(cloud types.CloudProvider) (endpoint, key string) {
	switch cloud {
	case types.CloudAzure:
		return "azureassetdataconnector", "AzureAssetDataConnector"
	case types.CloudGCP:
		return "gcpassetdataconnector", "GcpAssetDataConnector"
	default:
		return "awsassetdataconnector", "AwsAssetDataConnector"
	}
}

func extractDataConnector(cloud types.CloudProvider, raw json.RawMessage) (id, alias string, err error) {
	switch cloud {
	case types.CloudAzure:
		var conn azureDataConnector
		if err := json.Unmarshal(raw, &conn); err != nil {
			return "", "", err
		}
		return conn.AuthRecord.SubscriptionID, conn.Name, nil
	case types.CloudGCP:
		var conn gcpDataConnector
		if err := json.Unmarshal(raw, &conn); err != nil {
			return "", "", err
		}
		return conn.AuthRecord.ProjectID, conn.Name, nil
	default:
		var conn awsDataConnector
		if err := json.Unmarshal(raw, &conn); err != nil {
			return "", "", err
		}
		return conn.AWSAccountID, firstNonEmpty(conn.AccountAlias, conn.Name), nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
