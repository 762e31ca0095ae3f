// Package execution is the playback engine feeding the output pipeline.
//
// A Playback holds scheduled effects, each a ChannelIntents mapping placed
// on a layer at a start position. Every device thread calls UpdateState
// once per tick; the engine evaluates all active effects at the current
// position and atomically publishes a snapshot that controllers read
// through ChannelStates.
//
// Effects can also be injected at runtime as JSON over MQTT; see
// LiveMessage and Playback.HandleLiveIntent.
//
// # Usage
//
//	pb := execution.NewPlayback()
//	pb.ScheduleNow(execution.Effect{
//	    Name:    "intro",
//	    Intents: intents,
//	    Layer:   10,
//	}, 0)
//
//	_ = mqttClient.Subscribe(mqtt.Topics{}.ShowIntent(), 1, pb.HandleLiveIntent)
package execution
