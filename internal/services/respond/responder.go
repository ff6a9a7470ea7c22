// Package respond sends encrypted responses to an app over its session.
package respond

import (
	"context"
	"time"

	"tonbridge/internal/crypto"
	"tonbridge/internal/domain"
	"tonbridge/internal/protocol/rpc"
)

// DefaultTTL is how long the relay keeps a response for an offline app.
const DefaultTTL = 300 * time.Second

// Responder encrypts responses with the session key and posts them.
type Responder struct {
	Relay domain.RelayClient
	TTL   time.Duration
}

func New(relay domain.RelayClient) Responder {
	return Responder{Relay: relay, TTL: DefaultTTL}
}

// Success answers requestID with result.
func (r Responder) Success(ctx context.Context, sess domain.AppSession, requestID string, result any) error {
	sc, err := crypto.SessionCryptoFromPrivate(sess.SessionPrivateKey)
	if err != nil {
		return err
	}
	ct, err := rpc.BuildSuccess(requestID, result, sess.PeerPublicKey, sc)
	if err != nil {
		return err
	}
	return r.post(ctx, sess, ct)
}

// Error answers requestID with code. An empty message uses the code's
// default text.
func (r Responder) Error(ctx context.Context, sess domain.AppSession, requestID string, code domain.ErrorCode, message string) error {
	sc, err := crypto.SessionCryptoFromPrivate(sess.SessionPrivateKey)
	if err != nil {
		return err
	}
	ct, err := rpc.BuildError(requestID, code, message, sess.PeerPublicKey, sc)
	if err != nil {
		return err
	}
	return r.post(ctx, sess, ct)
}

func (r Responder) post(ctx context.Context, sess domain.AppSession, ct []byte) error {
	ttl := r.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return r.Relay.PostMessage(ctx, sess.ClientID, sess.PeerClientID, ct, ttl)
}
