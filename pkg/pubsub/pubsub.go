// Package pubsub fans out conversion graph events to live subscribers, such
// as browsers connected to the inspection server over Server-Sent Events.
package pubsub

import "encoding/json"

// TopicConversionGraph is the only topic. It names the subscribe route and
// is stamped on every event.
const TopicConversionGraph = "conversion_graph"

// Event types published on TopicConversionGraph.
const (
	EventGraphUpdated = "graph_updated"
	EventPolicyError  = "policy_error"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`    // EventGraphUpdated or EventPolicyError
	Data    json.RawMessage `json:"data"`    // GraphUpdate or PolicyError
	Version int             `json:"version"` // Sequence number, starting at 1
}

// GraphUpdate is the payload of EventGraphUpdated.
type GraphUpdate struct {
	Source       string `json:"source"` // "builtin" or the policy file applied
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	RoundTrips   int    `json:"round_trips"`
	MaxPathDepth int    `json:"max_path_depth"` // -1 for unbounded
}

// PolicyError is the payload of EventPolicyError. The previous graph stays
// active.
type PolicyError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}
