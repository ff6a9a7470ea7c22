// Package connecturi parses and builds connection request URIs.
//
// A connection URI has the form
//
//	<scheme>://?v=<version>&id=<hexClientId>&r=<urlEncodedJson>[&ret=<strategy>]
//
// where r decodes to {"manifestUrl": string, "items": [{"name": ...}, ...]}.
// Universal links (https URLs registered by a wallet) carry the same query.
//
// Parsing is pure. Errors are *ParseError values matchable with errors.Is
// against ErrInvalidScheme, ErrMissingField, ErrUnsupportedVersion and
// ErrMalformedPayload. Items with unknown names are kept as
// domain.UnknownCapability so newer apps are not rejected outright.
package connecturi
