// This file contains the background consumer that listens to the portal's
// event queues and appends structured lines to logs/portal.log.  It stands
// in for the external providers (email delivery, order notifications) at
// the broker boundary.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer connects to RabbitMQ, declares the portal's durable queues
// and consumes from both.  Each message is appended to logs/portal.log in a
// single-line, human-friendly format.  The function runs a reconnect loop;
// processing errors are logged and the offending message rejected so the
// server keeps operating.
func StartConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("portal-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("portal-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("portal-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{OrderCreatedQueue, NewsletterSubscribedQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	orders, err := ch.Consume(OrderCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", OrderCreatedQueue, err)
	}
	subs, err := ch.Consume(NewsletterSubscribedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", NewsletterSubscribedQueue, err)
	}

	for {
		select {
		case d, ok := <-orders:
			if !ok {
				return errors.New("order deliveries channel closed")
			}
			ackOrReject(d, handleOrderCreated(d.Body))
		case d, ok := <-subs:
			if !ok {
				return errors.New("newsletter deliveries channel closed")
			}
			ackOrReject(d, handleNewsletterSubscribed(d.Body))
		}
	}
}

func ackOrReject(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("portal-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

func handleOrderCreated(body []byte) error {
	var ev OrderCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	line := fmt.Sprintf("[%s] Order created | order_id=%d | user_id=%d | ticket=\"%s\" | category=%s | qty=%d | total=%d cents\n",
		ev.CreatedAt, ev.OrderID, ev.UserID, ev.TicketName, ev.Category, ev.Quantity, ev.TotalPriceCents)
	return appendLog(line)
}

func handleNewsletterSubscribed(body []byte) error {
	var ev NewsletterSubscribedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return appendLog(fmt.Sprintf("[%s] Newsletter subscription | email=%s\n", ev.SubscribedAt, ev.Email))
}

func appendLog(line string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "portal.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
