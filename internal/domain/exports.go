package domain

import (
	interfaces "tonbridge/internal/domain/interfaces"
	types "tonbridge/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	WalletID             = types.WalletID
	ClientID             = types.ClientID
	Fingerprint          = types.Fingerprint
	Network              = types.Network
	Wallet               = types.Wallet
	WalletKey            = types.WalletKey
	ConnectionParameters = types.ConnectionParameters
	CapabilityRequest    = types.CapabilityRequest
	AddressProof         = types.AddressProof
	AuthChallenge        = types.AuthChallenge
	UnknownCapability    = types.UnknownCapability
	CapabilityGrant      = types.CapabilityGrant
	TonProof             = types.TonProof
	ProofDomain          = types.ProofDomain
	AppManifest          = types.AppManifest
	DeviceInfo           = types.DeviceInfo
	AppSession           = types.AppSession
	ResumeCursor         = types.ResumeCursor
	RelayEvent           = types.RelayEvent
	RelayEnvelope        = types.RelayEnvelope
	Method               = types.Method
	AppRequest           = types.AppRequest
	Output               = types.Output
	ErrorCode            = types.ErrorCode
	BOC                  = types.BOC
	UnsignedTransaction  = types.UnsignedTransaction
	Receipt              = types.Receipt
	RiskLevel            = types.RiskLevel
	Estimate             = types.Estimate
	X25519Public         = types.X25519Public
	X25519Private        = types.X25519Private
	Ed25519Public        = types.Ed25519Public
	Ed25519Private       = types.Ed25519Private
)

// Constants re-exported from the types subpackage.
const (
	NetworkMainnet = types.NetworkMainnet
	NetworkTestnet = types.NetworkTestnet

	ItemAddress = types.ItemAddress
	ItemProof   = types.ItemProof

	MethodSendTransaction = types.MethodSendTransaction
	MethodDisconnect      = types.MethodDisconnect

	ErrorCodeUnknown            = types.ErrorCodeUnknown
	ErrorCodeBadRequest         = types.ErrorCodeBadRequest
	ErrorCodeUnknownApp         = types.ErrorCodeUnknownApp
	ErrorCodeUserDeclined       = types.ErrorCodeUserDeclined
	ErrorCodeMethodNotSupported = types.ErrorCodeMethodNotSupported

	RiskUnknown = types.RiskUnknown
	RiskLow     = types.RiskLow
	RiskHigh    = types.RiskHigh
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	RelayClient        = interfaces.RelayClient
	EventStream        = interfaces.EventStream
	AppSessionStore    = interfaces.AppSessionStore
	CursorStore        = interfaces.CursorStore
	WalletStore        = interfaces.WalletStore
	PrivateKeyProvider = interfaces.PrivateKeyProvider
	TransactionBuilder = interfaces.TransactionBuilder
	ChainService       = interfaces.ChainService
	ManifestLoader     = interfaces.ManifestLoader
	Dispatcher         = interfaces.Dispatcher
)
