package mqtt

import "fmt"

// Topic prefixes for the show MQTT hierarchy.
const (
	// TopicPrefixShow is the base for every show topic.
	TopicPrefixShow = "graylogic"

	// TopicPrefixDevice is the base for hardware device lifecycle topics.
	TopicPrefixDevice = "graylogic/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for show MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.ShowOutput("stage", 0)
//	// Returns: "graylogic/output/stage/0"
type Topics struct{}

// =============================================================================
// Show Topics
// =============================================================================

// ShowOutput returns the topic carrying the frames of one chain member of
// an MQTT output module.
//
// Example: graylogic/output/stage/1
func (Topics) ShowOutput(module string, chainIndex int) string {
	return fmt.Sprintf("%s/output/%s/%d", TopicPrefixShow, module, chainIndex)
}

// ShowIntent returns the topic live intents are received on.
//
// Example: graylogic/show/intent
func (Topics) ShowIntent() string {
	return fmt.Sprintf("%s/show/intent", TopicPrefixShow)
}

// ShowPlayback returns the topic the playback position is reported on.
//
// Example: graylogic/show/playback
func (Topics) ShowPlayback() string {
	return fmt.Sprintf("%s/show/playback", TopicPrefixShow)
}

// =============================================================================
// Device Topics
// =============================================================================

// DeviceEvent returns the topic for lifecycle events of one hardware device.
//
// Example: graylogic/device/stage/fault
func (Topics) DeviceEvent(device, kind string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixDevice, device, kind)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: graylogic/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllShowOutputs returns a pattern matching every output frame.
//
// Pattern: graylogic/output/+/+
func (Topics) AllShowOutputs() string {
	return fmt.Sprintf("%s/output/+/+", TopicPrefixShow)
}

// AllDeviceEvents returns a pattern matching every device lifecycle event.
//
// Pattern: graylogic/device/+/+
func (Topics) AllDeviceEvents() string {
	return fmt.Sprintf("%s/+/+", TopicPrefixDevice)
}

// AllTopics returns a pattern matching all show topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: graylogic/#
func (Topics) AllTopics() string {
	return "graylogic/#"
}
