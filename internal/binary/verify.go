package binary

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Verifier checks fetched artifacts against a SHA256 digest and, when a
// keyring is configured, an OpenPGP detached signature.
type Verifier struct {
	keyringPath string
}

// NewVerifier creates a verifier. An empty keyringPath disables signature checks.
func NewVerifier(keyringPath string) *Verifier {
	return &Verifier{keyringPath: keyringPath}
}

// HasKeyring reports whether signature verification is configured.
func (v *Verifier) HasKeyring() bool {
	return v != nil && v.keyringPath != ""
}

// VerifySHA256 compares the digest of path with the expected hex value.
func (v *Verifier) VerifySHA256(path, expected string) (*VerificationResult, error) {
	actual, err := calculateSHA256(path)
	if err != nil {
		return &VerificationResult{
			Method:  VerificationSHA256,
			Success: false,
			Error:   fmt.Errorf("calculate checksum: %w", err),
		}, err
	}

	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		mismatch := fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s", actual, expected)
		return &VerificationResult{
			Method:  VerificationSHA256,
			Success: false,
			Error:   mismatch,
		}, fmt.Errorf("checksum mismatch")
	}

	return &VerificationResult{
		Method:  VerificationSHA256,
		Success: true,
	}, nil
}

// VerifySignature checks a detached signature (armored or binary) of path
// against the configured keyring.
func (v *Verifier) VerifySignature(path, signaturePath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{
			Method:  VerificationGPG,
			Success: false,
			Error:   err,
		}, err
	}

	if !v.HasKeyring() {
		return fail(fmt.Errorf("no keyring configured"))
	}

	keyring, err := loadKeyring(v.keyringPath)
	if err != nil {
		return fail(fmt.Errorf("load keyring: %w", err))
	}

	sig, err := os.ReadFile(signaturePath)
	if err != nil {
		return fail(fmt.Errorf("read signature: %w", err))
	}

	binaryFile, err := os.Open(path)
	if err != nil {
		return fail(fmt.Errorf("open artifact: %w", err))
	}
	defer binaryFile.Close()

	if isArmored(sig) {
		_, err = openpgp.CheckArmoredDetachedSignature(keyring, binaryFile, bytes.NewReader(sig), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(keyring, binaryFile, bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fail(fmt.Errorf("verify signature: %w", err))
	}

	return &VerificationResult{
		Method:  VerificationGPG,
		Success: true,
	}, nil
}

// armorPrefix starts every ASCII-armored OpenPGP block.
const armorPrefix = "-----BEGIN PGP"

// isArmored reports whether data is ASCII-armored rather than raw packets.
func isArmored(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(armorPrefix))
}

// loadKeyring reads an armored or binary public keyring.
func loadKeyring(path string) (openpgp.EntityList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	read := openpgp.ReadKeyRing
	if isArmored(data) {
		read = openpgp.ReadArmoredKeyRing
	}
	keyring, err := read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("read keyring: %w", err)
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}

// calculateSHA256 calculates the SHA256 hash of a file
func calculateSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
