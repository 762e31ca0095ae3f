package intent

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ChannelID identifies a channel. It is opaque to the output pipeline.
type ChannelID = uuid.UUID

// Node places an intent at a start time relative to its effect, with
// optional subordinate nodes folded into it.
type Node struct {
	Intent       Intent
	StartTime    time.Duration
	Subordinates []SubordinateNode
}

// SubordinateNode attaches a node to a root through an operation.
type SubordinateNode struct {
	Node      *Node
	Operation Operation
}

// NewNode creates a node for intent starting at start.
func NewNode(in Intent, start time.Duration) *Node {
	return &Node{Intent: in, StartTime: start}
}

// EndTime is the first time at which the node is no longer active.
func (n *Node) EndTime() time.Duration {
	return n.StartTime + n.Intent.TimeSpan()
}

// ActiveAt reports whether t falls inside [StartTime, EndTime).
func (n *Node) ActiveAt(t time.Duration) bool {
	return t >= n.StartTime && t < n.EndTime()
}

// StateAt evaluates the node at effect-relative time t on layer.
// Subordinates inactive at t are left out. Returns nil if the node itself
// is inactive.
func (n *Node) StateAt(t time.Duration, layer byte) *State {
	if !n.ActiveAt(t) {
		return nil
	}
	s := NewState(n.Intent, t-n.StartTime, layer)
	for _, sub := range n.Subordinates {
		if sub.Node == nil {
			continue
		}
		if child := sub.Node.StateAt(t, layer); child != nil {
			s.SubordinateStates = append(s.SubordinateStates, SubordinateState{
				State:     child,
				Operation: sub.Operation,
			})
		}
	}
	return s
}

// ChannelIntents maps a channel to its single root node.
type ChannelIntents map[ChannelID]*Node

// ChannelIDs returns the channel ids in a stable order.
func (ci ChannelIntents) ChannelIDs() []ChannelID {
	ids := make([]ChannelID, 0, len(ci))
	for id := range ci {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ChannelID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}

// AddIntentNodeToChannel roots node on the channel, or attaches it as a
// subordinate of the existing root through op. A nil node is ignored.
func (ci ChannelIntents) AddIntentNodeToChannel(id ChannelID, node *Node, op Operation) {
	if node == nil {
		return
	}
	root, ok := ci[id]
	if !ok {
		ci[id] = node
		return
	}
	root.Subordinates = append(root.Subordinates, SubordinateNode{Node: node, Operation: op})
}

// AddIntentNodesToChannels merges every root of other into ci using the
// same rule as AddIntentNodeToChannel.
func (ci ChannelIntents) AddIntentNodesToChannels(other ChannelIntents, op Operation) {
	for _, id := range other.ChannelIDs() {
		ci.AddIntentNodeToChannel(id, other[id], op)
	}
}
