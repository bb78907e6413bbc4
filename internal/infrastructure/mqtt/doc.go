// Package mqtt provides MQTT client connectivity for the WordClock bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for availability detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge publishes the clock's state snapshot to a retained topic and
// accepts partial-state commands on a set topic, so home automation
// consumers can control the clock without speaking its HTTP API:
//
//	WordClock device ↔ bridge ↔ MQTT broker ↔ consumers
//
// # Security Considerations
//
//   - TLS is recommended for non-local brokers (cfg.Broker.TLS=true)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, clockID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	client.Subscribe(topics.Set(clockID), 1,
//	    func(topic string, payload []byte) error {
//	        // handle command
//	        return nil
//	    })
//
//	client.PublishRetained(topics.State(clockID), snapshotJSON)
package mqtt
