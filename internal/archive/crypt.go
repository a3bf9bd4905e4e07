package archive

import (
	"bufio"
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

// Encrypted container layout:
//
//	magic "MVE1" | time u32 | memory u32 | threads u8 | salt [16] | nonce [12]
//	then chunks of: length u32 | AES-256-GCM ciphertext
//
// Each chunk seals up to chunkSize bytes. The chunk index is XORed into the
// low bytes of the nonce and a one-byte final flag is authenticated, so
// reordered, truncated or extended streams fail to decrypt.
var magic = []byte("MVE1")

const (
	chunkSize = 64 * 1024
	saltLen   = 16
	keyLen    = 32
	headerLen = 4 + 4 + 4 + 1 + saltLen + 12
)

var (
	// ErrNotEncrypted is returned when decrypting data without the
	// container magic.
	ErrNotEncrypted = errors.New("not an encrypted archive")

	// ErrWrongPassword is returned when the first chunk fails to
	// authenticate.
	ErrWrongPassword = errors.New("wrong password")

	// ErrTruncated is returned when the stream ends before the final chunk.
	ErrTruncated = errors.New("encrypted archive is truncated")

	// ErrCorrupted is returned when a later chunk fails to authenticate or
	// data follows the final chunk.
	ErrCorrupted = errors.New("encrypted archive is corrupted")
)

// Params are the argon2id key derivation settings.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultParams returns the key derivation settings used for new archives.
func DefaultParams() Params {
	return Params{Time: 3, Memory: 64 * 1024, Threads: 4}
}

func (p Params) valid() bool {
	return p.Time >= 1 && p.Time <= 64 && p.Memory >= 8 && p.Memory <= 4<<20 && p.Threads >= 1
}

func newAEAD(password string, salt []byte, p Params) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, keyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func chunkNonce(base []byte, index uint64) []byte {
	nonce := bytes.Clone(base)
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], index)
	for i := range ctr {
		nonce[len(nonce)-8+i] ^= ctr[i]
	}
	return nonce
}

func finalFlag(final bool) []byte {
	if final {
		return []byte{1}
	}
	return []byte{0}
}

// EncryptStream reads src to the end and writes the encrypted container to
// dst.
func EncryptStream(dst io.Writer, src io.Reader, password string, p Params) error {
	if password == "" {
		return errors.New("password must not be empty")
	}
	if !p.valid() {
		return fmt.Errorf("invalid key derivation parameters %+v", p)
	}

	header := make([]byte, headerLen)
	copy(header, magic)
	binary.BigEndian.PutUint32(header[4:], p.Time)
	binary.BigEndian.PutUint32(header[8:], p.Memory)
	header[12] = p.Threads
	salt := header[13 : 13+saltLen]
	nonce := header[13+saltLen:]
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	aead, err := newAEAD(password, salt, p)
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}
	if _, err := dst.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	br := bufio.NewReaderSize(src, chunkSize)
	plain := make([]byte, chunkSize)
	var sealed []byte
	for index := uint64(0); ; index++ {
		n, err := io.ReadFull(br, plain)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("reading plaintext: %w", err)
		}
		final := n < chunkSize
		if !final {
			if _, perr := br.Peek(1); errors.Is(perr, io.EOF) {
				final = true
			}
		}

		sealed = aead.Seal(sealed[:0], chunkNonce(nonce, index), plain[:n], finalFlag(final))
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(sealed)))
		if _, err := dst.Write(length[:]); err != nil {
			return fmt.Errorf("writing chunk: %w", err)
		}
		if _, err := dst.Write(sealed); err != nil {
			return fmt.Errorf("writing chunk: %w", err)
		}
		if final {
			return nil
		}
	}
}

// DecryptStream reads an encrypted container from src and writes the
// plaintext to dst. Plaintext is written chunk by chunk, so on error dst may
// hold a prefix of the data; callers writing to files should discard them.
func DecryptStream(dst io.Writer, src io.Reader, password string) error {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(src, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if bytes.HasPrefix(header, magic) {
				return ErrTruncated
			}
			return ErrNotEncrypted
		}
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(header[:4], magic) {
		return ErrNotEncrypted
	}
	p := Params{
		Time:    binary.BigEndian.Uint32(header[4:]),
		Memory:  binary.BigEndian.Uint32(header[8:]),
		Threads: header[12],
	}
	if !p.valid() {
		return fmt.Errorf("%w: invalid key derivation parameters", ErrCorrupted)
	}
	salt := header[13 : 13+saltLen]
	nonce := header[13+saltLen:]

	aead, err := newAEAD(password, salt, p)
	if err != nil {
		return fmt.Errorf("creating cipher: %w", err)
	}

	maxSealed := uint32(chunkSize + aead.Overhead())
	sealed := make([]byte, maxSealed)
	var plain []byte
	for index := uint64(0); ; index++ {
		var length [4]byte
		if _, err := io.ReadFull(src, length[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return ErrTruncated
			}
			return fmt.Errorf("reading chunk: %w", err)
		}
		n := binary.BigEndian.Uint32(length[:])
		if n > maxSealed || n < uint32(aead.Overhead()) {
			return ErrCorrupted
		}
		if _, err := io.ReadFull(src, sealed[:n]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return ErrTruncated
			}
			return fmt.Errorf("reading chunk: %w", err)
		}

		final := false
		out, err := aead.Open(plain[:0], chunkNonce(nonce, index), sealed[:n], finalFlag(false))
		if err != nil {
			out, err = aead.Open(plain[:0], chunkNonce(nonce, index), sealed[:n], finalFlag(true))
			final = err == nil
		}
		if err != nil {
			if index == 0 {
				return ErrWrongPassword
			}
			return ErrCorrupted
		}
		plain = out
		if _, err := dst.Write(plain); err != nil {
			return fmt.Errorf("writing plaintext: %w", err)
		}
		if final {
			var extra [1]byte
			if k, _ := src.Read(extra[:]); k > 0 {
				return ErrCorrupted
			}
			return nil
		}
	}
}

// EncryptFile encrypts src into dst.
func EncryptFile(dst, src, password string, p Params) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	return writeFile(dst, func(w io.Writer) error {
		return EncryptStream(w, in, password, p)
	})
}

// DecryptFile decrypts src into dst. dst is removed when decryption fails.
func DecryptFile(dst, src, password string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	return writeFile(dst, func(w io.Writer) error {
		return DecryptStream(w, bufio.NewReader(in), password)
	})
}

func writeFile(path string, fn func(w io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	bw := bufio.NewWriter(out)
	err = fn(bw)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

// IsEncrypted reports whether the file at path starts with the container
// magic.
func IsEncrypted(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	head := make([]byte, len(magic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	return bytes.Equal(head[:n], magic), nil
}
