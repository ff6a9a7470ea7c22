package tonproof_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"

	"tonbridge/internal/protocol/tonproof"
)

var addr = "-1:" + strings.Repeat("0a", 32)

func TestMessage_Layout(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	msg, err := tonproof.Message(addr, "app.example", ts, "nonce")
	if err != nil {
		t.Fatalf("message: %v", err)
	}

	want := []byte("ton-proof-item-v2/")
	want = append(want, 0xff, 0xff, 0xff, 0xff)
	want = append(want, bytes.Repeat([]byte{0x0a}, 32)...)
	want = binary.LittleEndian.AppendUint32(want, 11)
	want = append(want, "app.example"...)
	want = binary.LittleEndian.AppendUint64(want, 1700000000)
	want = append(want, "nonce"...)
	if !bytes.Equal(msg, want) {
		t.Fatalf("message layout mismatch:\n got %x\nwant %x", msg, want)
	}
}

func TestSignVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	proof, err := tonproof.Sign(priv, addr, "app.example", time.Now(), "p1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if proof.Domain.LengthBytes != 11 || proof.Payload != "p1" {
		t.Fatalf("unexpected proof %+v", proof)
	}
	if !tonproof.Verify(pub, addr, proof) {
		t.Fatal("valid proof rejected")
	}

	tampered := proof
	tampered.Payload = "p2"
	if tonproof.Verify(pub, addr, tampered) {
		t.Fatal("tampered payload accepted")
	}
	if tonproof.Verify(pub, "0:"+strings.Repeat("0a", 32), proof) {
		t.Fatal("proof accepted for another address")
	}
}

func TestParseRawAddress_Invalid(t *testing.T) {
	for _, a := range []string{"", "0", "x:00", "0:zz", "0:" + strings.Repeat("ab", 31)} {
		if _, _, err := tonproof.ParseRawAddress(a); !errors.Is(err, tonproof.ErrInvalidAddress) {
			t.Fatalf("%q: err = %v", a, err)
		}
	}
}
