// Package amqp publica los eventos StockChanged del ledger en RabbitMQ para
// que los observadores (UI en vivo, integraciones) los consuman. El core solo
// emite: la entrega, deduplicación y fan-out son responsabilidad del broker y
// sus consumidores.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tu-usuario/stock-ledger/internal/application/ledger"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

var _ ledger.ChangeNotifier = (*Notifier)(nil)

// Notifier publica StockChanged como JSON en una cola durable.
type Notifier struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *logger.Logger
}

// NewNotifier abre conexión y canal, y declara la cola durable.
func NewNotifier(url, queue string, log *logger.Logger) (*Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &Notifier{conn: conn, ch: ch, queue: queue, log: log}, nil
}

// Publish envía el evento. At-most-once: sin confirmaciones ni reintentos;
// el motor de movimientos suprime (y registra) cualquier fallo.
func (n *Notifier) Publish(ctx context.Context, event ledger.StockChanged) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}

// Close cierra canal y conexión.
func (n *Notifier) Close() {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		_ = n.conn.Close()
	}
}
