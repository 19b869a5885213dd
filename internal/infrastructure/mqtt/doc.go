// Package mqtt connects gatekeeper to an MQTT broker for outbound notifications.
//
// The client is publish-only. It maintains a retained status topic (with a
// Last Will so a crash is visible as "offline") and carries user change
// events that downstream services use to drop cached permission state.
//
// # Topics
//
//	<prefix>/status              retained online/offline status
//	<prefix>/events/users/<id>   user.created, user.updated, user.deleted
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(client.Topics().UserEvents(42), payload, client.QoS(), false)
package mqtt
