package mqtt

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jkaberg/ebike-sim/internal/config"
)

// MessageHandler receives the topic and raw payload of an inbound message.
type MessageHandler func(topic string, payload []byte)

type subscription struct {
	qos     byte
	handler MessageHandler
}

// Client wraps the MQTT client with additional functionality
type Client struct {
	client   mqtt.Client
	clientID string
	logger   *logrus.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClientID returns a fresh client id for one simulator process.
func NewClientID() string {
	return "ebike-sim-" + uuid.NewString()[:8]
}

// NewClient creates a new MQTT client with support for both WebSocket and standard MQTT protocols.
// The broker does not need to be up: the first connect and every reconnect
// are retried in the background.
func NewClient(mqttURL, clientID string, logger *logrus.Logger) (*Client, error) {
	parsedURL, err := url.Parse(mqttURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT URL: %w", err)
	}

	if clientID == "" {
		clientID = NewClientID()
	}

	opts := mqtt.NewClientOptions()

	var brokerURL string
	switch parsedURL.Scheme {
	case "ws", "tcp":
		brokerURL = mqttURL
	case "wss":
		brokerURL = mqttURL
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	case "mqtt":
		brokerURL = strings.Replace(mqttURL, "mqtt://", "tcp://", 1)
	case "mqtts":
		brokerURL = strings.Replace(mqttURL, "mqtts://", "ssl://", 1)
		// Disable certificate verification to support self-signed certs
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	default:
		return nil, fmt.Errorf("unsupported protocol scheme: %s (supported: ws, wss, mqtt, mqtts, tcp)", parsedURL.Scheme)
	}

	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetProtocolVersion(4) // 3.1.1
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetOrderMatters(false)

	if parsedURL.User != nil {
		username := parsedURL.User.Username()
		password, _ := parsedURL.User.Password()
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	c := &Client{
		clientID: clientID,
		logger:   logger,
		subs:     make(map[string]subscription),
	}

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.WithError(err).Warn("MQTT connection lost")
	})

	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		logger.Debug("MQTT reconnecting...")
	})

	opts.SetConnectionAttemptHandler(func(broker *url.URL, tlsCfg *tls.Config) *tls.Config {
		logger.WithField("broker", cleanURL(broker.String())).Debug("MQTT connection attempt")
		return tlsCfg
	})

	var connects int
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		connects++
		if connects == 1 {
			logger.Info("MQTT connected")
		} else {
			logger.Info("MQTT reconnected")
		}
		// Clean session: the broker forgot our subscriptions.
		c.resubscribe()
	})

	c.client = mqtt.NewClient(opts)

	token := c.client.Connect()
	if token.WaitTimeout(config.MQTTTimeout) && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	logger.WithFields(logrus.Fields{
		"broker":    cleanURL(mqttURL),
		"protocol":  parsedURL.Scheme,
		"client_id": clientID,
		"connected": c.client.IsConnected(),
	}).Info("MQTT client started")

	return c, nil
}

// WrapClient builds a Client around an existing paho client. Subscriptions
// are only replayed by clients created with NewClient.
func WrapClient(client mqtt.Client, clientID string, logger *logrus.Logger) *Client {
	return &Client{
		client:   client,
		clientID: clientID,
		logger:   logger,
		subs:     make(map[string]subscription),
	}
}

// Publish publishes a message to the specified topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)

	// Avoid potential deadlocks: wait for completion with a timeout instead of indefinitely.
	if !token.WaitTimeout(config.MQTTTimeout) {
		return fmt.Errorf("publish to topic %s timed out after %s", topic, config.MQTTTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"topic":    topic,
		"qos":      qos,
		"size":     len(payload),
		"retained": retained,
	}).Debug("Published MQTT message")

	return nil
}

// Subscribe registers handler for topic. The subscription is kept and
// replayed after every reconnect. When the client is offline the call only
// records it.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	if !c.client.IsConnected() {
		c.logger.WithField("topic", topic).Debug("MQTT offline, subscription deferred")
		return nil
	}
	return c.subscribe(topic, qos, handler)
}

func (c *Client) subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Topic(), m.Payload())
	})

	// Prevent indefinite blocking on slow or lost connections.
	if !token.WaitTimeout(config.MQTTTimeout) {
		return fmt.Errorf("subscribe to topic %s timed out after %s", topic, config.MQTTTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	c.logger.WithField("topic", topic).Debug("Subscribed to MQTT topic")
	return nil
}

func (c *Client) resubscribe() {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for t, s := range c.subs {
		subs[t] = s
	}
	c.mu.Unlock()

	for topic, s := range subs {
		if err := c.subscribe(topic, s.qos, s.handler); err != nil {
			c.logger.WithError(err).Warn("MQTT resubscribe failed")
		}
	}
}

// Subscriptions returns the topics currently registered.
func (c *Client) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]string, 0, len(c.subs))
	for t := range c.subs {
		topics = append(topics, t)
	}
	return topics
}

// IsConnected returns true if the client is connected
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Disconnect waits up to quiesce milliseconds for in-flight work, then disconnects
func (c *Client) Disconnect(quiesce uint) {
	c.client.Disconnect(quiesce)
	c.logger.Debug("MQTT client disconnected")
}

// ClientID returns the MQTT client id
func (c *Client) ClientID() string {
	return c.clientID
}

// cleanURL removes credentials from URL for logging
func cleanURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if parsed.User != nil {
		parsed.User = url.UserPassword("***", "***")
	}

	return parsed.String()
}
