package normalize

import (
	"strings"

	"github.com/agentgap/agentgap/qualys"
	"github.com/agentgap/agentgap/types"
)

// stateVocab maps provider state strings (uppercased) onto the canonical
// closed set. Unlisted values become StateUnknown and never fail a record.
var stateVocab = map[string]types.AssetState{
	"RUNNING":       types.StateRunning,
	"PENDING":       types.StatePending,
	"PROVISIONING":  types.StatePending,
	"STAGING":       types.StatePending,
	"STOPPED":       types.StateStopped,
	"DEALLOCATED":   types.StateStopped,
	"SUSPENDED":     types.StateStopped,
	"STOPPING":      types.StateStopping,
	"DEALLOCATING":  types.StateStopping,
	"SHUTTING_DOWN": types.StateStopping,
	"SHUTTING-DOWN": types.StateStopping,
	"TERMINATED":    types.StateTerminated,
	"DELETED":       types.StateTerminated,
}

func mapState(raw string) types.AssetState {
	if raw == "" {
		return types.StateUnknown
	}
	if state, ok := stateVocab[strings.ToUpper(raw)]; ok {
		return state
	}
	return types.StateUnknown
}

// trackingSources maps the host tracking method to a discovery source,
// used when the source info list names no known source.
var trackingSources = map[string]types.AssetSource{
	"QAGENT":      types.SourceAgent,
	"INSTANCE_ID": types.SourceConnector,
	"VM_ID":       types.SourceConnector,
	"EC2":         types.SourceConnector,
	"AZURE":       types.SourceConnector,
	"GCP":         types.SourceConnector,
	"IP":          types.SourceScanner,
	"DNS":         types.SourceScanner,
	"NETBIOS":     types.SourceScanner,
}

// mapSource derives the discovery source. Connector entries take precedence
// over agent and scanner entries when a host is known to several.
func mapSource(raw qualys.HostAsset) types.AssetSource {
	var sawAgent, sawScanner bool

	if raw.SourceInfo != nil {
		for _, entry := range raw.SourceInfo.List {
			if entry.EC2 != nil || entry.Azure != nil || entry.GCP != nil {
				return types.SourceConnector
			}
			if len(entry.Agent) > 0 {
				sawAgent = true
			}
			if len(entry.Scanner) > 0 {
				sawScanner = true
			}
		}
	}

	switch {
	case sawAgent:
		return types.SourceAgent
	case sawScanner:
		return types.SourceScanner
	}

	if src, ok := trackingSources[strings.ToUpper(raw.TrackingMethod)]; ok {
		return src
	}
	return types.SourceScanner
}
