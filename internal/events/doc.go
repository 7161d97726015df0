// Package events defines the event types exchanged over the message bus
// and the publish/subscribe contracts the components depend on. The bus
// is assumed to deliver at least once with no ordering guarantee across
// partitions; consumers must be idempotent and consult persisted state
// rather than trusting event order.
package events
