package interfaces

import (
	"context"

	domaintypes "tonbridge/internal/domain/types"
)

// AppSessionStore persists connected app sessions per wallet.
type AppSessionStore interface {
	// SaveAppSession inserts or wholesale replaces the session for
	// (session.WalletID, session.PeerClientID).
	SaveAppSession(ctx context.Context, session domaintypes.AppSession) error
	LoadAppSession(
		ctx context.Context,
		wallet domaintypes.WalletID,
		peer domaintypes.ClientID,
	) (domaintypes.AppSession, bool, error)
	ListAppSessions(ctx context.Context, wallet domaintypes.WalletID) ([]domaintypes.AppSession, error)
	DeleteAppSession(
		ctx context.Context,
		wallet domaintypes.WalletID,
		peer domaintypes.ClientID,
	) (bool, error)
}

// CursorStore persists the relay resume cursor per wallet. SaveCursor must
// be durable when it returns.
type CursorStore interface {
	LoadCursor(ctx context.Context, wallet domaintypes.WalletID) (domaintypes.ResumeCursor, bool, error)
	SaveCursor(ctx context.Context, cursor domaintypes.ResumeCursor) error
}

// WalletStore persists wallet signing keys encrypted under a passphrase.
type WalletStore interface {
	SaveWallet(passphrase string, key domaintypes.WalletKey) error
	LoadWallet(passphrase string, id domaintypes.WalletID) (domaintypes.WalletKey, bool, error)
	ListWallets() ([]domaintypes.WalletID, error)
}
