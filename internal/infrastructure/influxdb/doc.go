// Package influxdb writes gatekeeper's authorization decisions and login
// outcomes to InfluxDB as time series.
//
// It wraps the official influxdb-client-go v2 library. Writes are
// non-blocking and batched; asynchronous failures are reported through the
// SetOnError callback. The integration is optional: Connect returns
// ErrDisabled when influxdb.enabled is false.
//
// # Measurements
//
//	auth_decision  tags: route, code     fields: authorized (bool), count
//	login_attempt  tags: result          fields: count
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAuthDecision("DELETE /api/users/{id}", "FORBIDDEN", false)
package influxdb
