package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by gatekeeper.
const (
	MeasurementAuthDecision = "auth_decision"
	MeasurementLoginAttempt = "login_attempt"
)

// WriteAuthDecision records one authorization decision for route.
// code is the decision code ("AUTHORIZED", "FORBIDDEN", ...).
func (c *Client) WriteAuthDecision(route, code string, authorized bool) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(authDecisionPoint(route, code, authorized, time.Now()))
}

// WriteLoginAttempt records the outcome of a login request.
func (c *Client) WriteLoginAttempt(result string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(loginAttemptPoint(result, time.Now()))
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func authDecisionPoint(route, code string, authorized bool, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementAuthDecision,
		map[string]string{
			"route": route,
			"code":  code,
		},
		map[string]any{
			"authorized": authorized,
			"count":      1,
		},
		ts,
	)
}

func loginAttemptPoint(result string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementLoginAttempt,
		map[string]string{"result": result},
		map[string]any{"count": 1},
		ts,
	)
}
