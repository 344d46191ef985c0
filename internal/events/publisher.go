// Package events announces committed transfers to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/nats-io/nats.go"

	"wallet-ledger/internal/domain"
)

const DefaultTransferSubject = "wallet.transfer.completed"

// Publisher is notified after a transfer has been durably committed.
type Publisher interface {
	PublishTransferCompleted(ctx context.Context, tx *domain.Transaction) error
}

// TransferCompleted is the event body. It is serialised as RFC 8785 canonical JSON so
// consumers can hash or sign it byte-for-byte.
type TransferCompleted struct {
	TransactionRef string    `json:"transaction_ref"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Amount         int64     `json:"amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewTransferCompleted(tx *domain.Transaction) TransferCompleted {
	return TransferCompleted{
		TransactionRef: tx.Ref,
		SenderID:       tx.SenderID,
		ReceiverID:     tx.ReceiverID,
		Amount:         tx.Amount,
		Status:         string(tx.Status),
		CreatedAt:      tx.CreatedAt.UTC(),
	}
}

// Encode returns the canonical JSON form of the event.
func (e TransferCompleted) Encode() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// msgPublisher is the subset of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

type NATSPublisher struct {
	conn    msgPublisher
	subject string
}

func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return newNATSPublisher(nc, subject)
}

func newNATSPublisher(conn msgPublisher, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultTransferSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// PublishTransferCompleted sends the event with the transaction reference as
// Nats-Msg-Id, letting JetStream streams drop redeliveries of the same transfer.
func (p *NATSPublisher) PublishTransferCompleted(ctx context.Context, tx *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := NewTransferCompleted(tx).Encode()
	if err != nil {
		return fmt.Errorf("encode transfer event: %w", err)
	}

	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, tx.Ref)

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// NopPublisher drops every event; used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransferCompleted(context.Context, *domain.Transaction) error {
	return nil
}
