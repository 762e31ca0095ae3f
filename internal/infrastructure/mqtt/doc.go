// Package mqtt provides MQTT client connectivity for the show controller.
//
// This package manages:
//   - Connection to a Mosquitto broker with auto-reconnect
//   - Publishing output frames and device events with QoS guarantees
//   - The live intent subscription feeding playback
//   - Last Will and Testament (LWT) for offline detection
//
// # Topic Layout
//
//	graylogic/show/intent             live intents in (see execution.LiveMessage)
//	graylogic/output/{module}/{chain} frames from MQTT output modules
//	graylogic/device/{name}/{kind}    hardware thread lifecycle events
//	graylogic/system/status           online/offline status (retained, LWT)
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.ShowIntent(), 1, playback.HandleLiveIntent)
//
//	topic := mqtt.Topics{}.ShowOutput("stage", 0)
//	client.Publish(topic, frame, 0, false)
package mqtt
