package interfaces

import (
	"context"
	"crypto/ed25519"

	domaintypes "tonbridge/internal/domain/types"
)

// PrivateKeyProvider hands out wallet signing keys.
type PrivateKeyProvider interface {
	PrivateKey(ctx context.Context, wallet domaintypes.WalletID) (ed25519.PrivateKey, error)
}

// TransactionBuilder turns transfer outputs into chain transactions.
type TransactionBuilder interface {
	Build(
		ctx context.Context,
		wallet domaintypes.Wallet,
		outputs []domaintypes.Output,
	) (domaintypes.UnsignedTransaction, error)
	Sign(
		ctx context.Context,
		tx domaintypes.UnsignedTransaction,
		key ed25519.PrivateKey,
	) (domaintypes.BOC, error)
}

// ChainService submits and emulates transactions.
type ChainService interface {
	Submit(ctx context.Context, boc domaintypes.BOC) (domaintypes.Receipt, error)
	// Estimate emulates an unsigned transaction.
	Estimate(ctx context.Context, tx domaintypes.UnsignedTransaction) (domaintypes.Estimate, error)
}

// ManifestLoader fetches app manifests.
type ManifestLoader interface {
	Load(ctx context.Context, manifestURL string) (domaintypes.AppManifest, error)
}

// Dispatcher receives decrypted requests from the event subscription, in
// stream order.
type Dispatcher interface {
	Dispatch(ctx context.Context, session domaintypes.AppSession, plaintext []byte)
}
