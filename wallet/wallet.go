// Package wallet models the external wallet-signature collaborator. The
// service requires the terms message to be signed by the wallet that owns
// the mining address; the signature is produced outside this program.
package wallet

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

//go:generate mockgen -package mocks -destination mocks/signer.go . Signer

// Signer obtains a wallet signature over a message. Implementations may
// block on user interaction; they should honor ctx cancellation.
type Signer interface {
	Sign(ctx context.Context, message string) (*Signature, error)
}

// Signature is an externally produced wallet signature together with the
// public key that verifies it.
type Signature struct {
	Signature string
	PubKey    string
}

const pubKeyHexLen = 64

// ConsoleSigner walks the user through producing a data signature in a
// browser wallet and reads the result from the terminal.
type ConsoleSigner struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsoleSigner(in io.Reader, out io.Writer) *ConsoleSigner {
	return &ConsoleSigner{in: bufio.NewReader(in), out: out}
}

func (s *ConsoleSigner) Sign(ctx context.Context, message string) (*Signature, error) {
	fmt.Fprintln(s.out, "Message to sign:")
	fmt.Fprintln(s.out, message)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Sign it with your wallet (wallet console: api.signData(address, hex(message)))")
	fmt.Fprintln(s.out, "and paste the outputs below.")

	signature, err := s.readLine("Signature: ")
	if err != nil {
		return nil, err
	}
	pubKey, err := s.readLine("Public key: ")
	if err != nil {
		return nil, err
	}

	if len(pubKey) != pubKeyHexLen {
		return nil, fmt.Errorf("invalid public key length: %d (expected %d)", len(pubKey), pubKeyHexLen)
	}
	if _, err := hex.DecodeString(pubKey); err != nil {
		return nil, fmt.Errorf("public key is not valid hex: %w", err)
	}

	return &Signature{Signature: signature, PubKey: pubKey}, nil
}

func (s *ConsoleSigner) readLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
