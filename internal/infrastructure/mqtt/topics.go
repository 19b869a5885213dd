package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "gatekeeper"

// Topics builds gatekeeper's MQTT topic names under a common prefix.
//
//	topics := mqtt.NewTopics("gatekeeper")
//	topics.UserEvents(42) // "gatekeeper/events/users/42"
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix, trimming surrounding slashes.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Status is the retained online/offline topic.
//
// Example: gatekeeper/status
func (t Topics) Status() string {
	return t.prefix + "/status"
}

// UserEvents is the topic for change notifications about one user.
//
// Example: gatekeeper/events/users/42
func (t Topics) UserEvents(userID int64) string {
	return fmt.Sprintf("%s/events/users/%d", t.prefix, userID)
}

// AllUserEvents is the wildcard subscription matching every user topic.
//
// Example: gatekeeper/events/users/+
func (t Topics) AllUserEvents() string {
	return t.prefix + "/events/users/+"
}
