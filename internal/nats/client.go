package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types published by the scheduling service
const (
	EventTenantCreated       = "scheduling.tenant.created"
	EventTenantStatusChanged = "scheduling.tenant.status_changed"
	EventCaseCreated         = "scheduling.case.created"
	EventSlotDeleted         = "scheduling.slot.deleted"
)

// TenantCreatedEvent is published when a tenant is provisioned
type TenantCreatedEvent struct {
	EventType      string    `json:"event_type"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	MailboxAddress string    `json:"mailbox_address"`
	AdminEmail     string    `json:"admin_email"`
	Timestamp      time.Time `json:"timestamp"`
}

// TenantStatusChangedEvent is published when a tenant is toggled
type TenantStatusChangedEvent struct {
	EventType string    `json:"event_type"`
	TenantID  string    `json:"tenant_id"`
	IsActive  bool      `json:"is_active"`
	Timestamp time.Time `json:"timestamp"`
}

// CaseCreatedEvent is published when the intake pipeline materializes a case
type CaseCreatedEvent struct {
	EventType     string    `json:"event_type"`
	CaseID        string    `json:"case_id"`
	PublicID      string    `json:"public_id"`
	TenantID      string    `json:"tenant_id,omitempty"`
	Title         string    `json:"title"`
	CandidateName string    `json:"candidate_name"`
	Source        string    `json:"source"`
	Timestamp     time.Time `json:"timestamp"`
}

// SlotDeletedEvent is published when a slot (and its availabilities) is removed
type SlotDeletedEvent struct {
	EventType string    `json:"event_type"`
	SlotID    string    `json:"slot_id"`
	CaseID    string    `json:"case_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Client wraps the NATS connection
type Client struct {
	conn *nats.Conn
}

// Config holds NATS connection configuration
type Config struct {
	URL string
}

// DefaultConfig returns the default NATS configuration
func DefaultConfig() *Config {
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = nats.DefaultURL
	}
	return &Config{URL: url}
}

// NewClient creates a new NATS client
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	log.Printf("[NATS] Connecting to %s", cfg.URL)

	opts := []nats.Option{
		nats.Name("scheduling-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[NATS] Disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Client{conn: conn}, nil
}

// Close drains and closes the connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// IsConnected reports the connection state
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// publish marshals and publishes an event; failures are logged, not fatal.
// Event delivery is best effort: the write that triggered the event has
// already committed.
func (c *Client) publish(subject string, event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[NATS] Failed to marshal %s event: %v", subject, err)
		return
	}
	if err := c.conn.Publish(subject, data); err != nil {
		log.Printf("[NATS] Failed to publish %s event: %v", subject, err)
	}
}

// PublishTenantCreated publishes a tenant.created event
func (c *Client) PublishTenantCreated(event *TenantCreatedEvent) {
	event.EventType = EventTenantCreated
	event.Timestamp = time.Now().UTC()
	c.publish(EventTenantCreated, event)
}

// PublishTenantStatusChanged publishes a tenant.status_changed event
func (c *Client) PublishTenantStatusChanged(event *TenantStatusChangedEvent) {
	event.EventType = EventTenantStatusChanged
	event.Timestamp = time.Now().UTC()
	c.publish(EventTenantStatusChanged, event)
}

// PublishCaseCreated publishes a case.created event
func (c *Client) PublishCaseCreated(event *CaseCreatedEvent) {
	event.EventType = EventCaseCreated
	event.Timestamp = time.Now().UTC()
	c.publish(EventCaseCreated, event)
}

// PublishSlotDeleted publishes a slot.deleted event
func (c *Client) PublishSlotDeleted(event *SlotDeletedEvent) {
	event.EventType = EventSlotDeleted
	event.Timestamp = time.Now().UTC()
	c.publish(EventSlotDeleted, event)
}
