package archive

import (
	"bytes"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testParams = Params{Time: 1, Memory: 64, Threads: 1}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPackUnpackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	lite := writeTemp(t, dir, "lite-src", "{\"recipientId\":\"test\"}\nlite\n")
	complete := writeTemp(t, dir, "complete-src", "{\"recipientId\":\"test\"}\ncomplete\n")

	m := &Manifest{
		FileVersion: 6,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Account:     "test@criptext.com",
		Kind:        "backup",
		Parts: []Part{
			{Name: LiteName, Path: lite, Rows: 1},
			{Name: CompleteName, Path: complete, Rows: 1},
		},
	}
	zipPath := filepath.Join(dir, "out", "backup.zip")
	if err := Pack(zipPath, m); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	got, err := ReadManifest(zipPath)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if got.FormatVersion != FormatVersion || got.Account != "test@criptext.com" || len(got.Parts) != 2 {
		t.Errorf("manifest = %+v", got)
	}
	if !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, m.CreatedAt)
	}

	outDir := filepath.Join(dir, "restore")
	unpacked, err := Unpack(zipPath, outDir)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	p, ok := unpacked.Part(CompleteName)
	if !ok {
		t.Fatal("complete part missing")
	}
	data, err := os.ReadFile(p.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{\"recipientId\":\"test\"}\ncomplete\n" {
		t.Errorf("complete part = %q", data)
	}
	if p.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", p.Size, len(data))
	}
}

func TestPackRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "x", "x")
	for _, name := range []string{"../evil.db", "a/b.db", ManifestName, ""} {
		m := &Manifest{Parts: []Part{{Name: name, Path: src}}}
		if err := Pack(filepath.Join(dir, "bad.zip"), m); err == nil {
			t.Errorf("Pack accepted part name %q", name)
		}
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sizes := []int{0, 1, chunkSize - 1, chunkSize, chunkSize + 1, 3*chunkSize + 123}
	for _, size := range sizes {
		plain := make([]byte, size)
		if _, err := rand.Read(plain); err != nil {
			t.Fatal(err)
		}

		var enc bytes.Buffer
		if err := EncryptStream(&enc, bytes.NewReader(plain), "secret", testParams); err != nil {
			t.Fatalf("size %d: EncryptStream: %v", size, err)
		}
		if !bytes.HasPrefix(enc.Bytes(), magic) {
			t.Fatalf("size %d: missing magic", size)
		}

		var dec bytes.Buffer
		if err := DecryptStream(&dec, bytes.NewReader(enc.Bytes()), "secret"); err != nil {
			t.Fatalf("size %d: DecryptStream: %v", size, err)
		}
		if !bytes.Equal(dec.Bytes(), plain) {
			t.Errorf("size %d: decrypted data differs", size)
		}
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	var enc bytes.Buffer
	if err := EncryptStream(&enc, bytes.NewReader([]byte("hello")), "secret", testParams); err != nil {
		t.Fatal(err)
	}
	var dec bytes.Buffer
	err := DecryptStream(&dec, bytes.NewReader(enc.Bytes()), "not-secret")
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("err = %v, want ErrWrongPassword", err)
	}
	if dec.Len() != 0 {
		t.Errorf("wrong password wrote %d bytes", dec.Len())
	}
}

func TestDecryptTruncated(t *testing.T) {
	plain := bytes.Repeat([]byte("x"), 2*chunkSize+10)
	var enc bytes.Buffer
	if err := EncryptStream(&enc, bytes.NewReader(plain), "secret", testParams); err != nil {
		t.Fatal(err)
	}
	full := enc.Bytes()

	// Drop the final chunk entirely: length prefix plus sealed bytes.
	finalChunk := 4 + 10 + 16
	cuts := map[string][]byte{
		"mid chunk":   full[:len(full)-5],
		"final chunk": full[:len(full)-finalChunk],
		"header":      full[:headerLen-3],
	}
	for name, data := range cuts {
		err := DecryptStream(&bytes.Buffer{}, bytes.NewReader(data), "secret")
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("%s: err = %v, want ErrTruncated", name, err)
		}
	}
}

func TestDecryptTrailingData(t *testing.T) {
	var enc bytes.Buffer
	if err := EncryptStream(&enc, bytes.NewReader([]byte("hello")), "secret", testParams); err != nil {
		t.Fatal(err)
	}
	enc.WriteString("junk")
	err := DecryptStream(&bytes.Buffer{}, bytes.NewReader(enc.Bytes()), "secret")
	if !errors.Is(err, ErrCorrupted) {
		t.Errorf("err = %v, want ErrCorrupted", err)
	}
}

func TestDecryptNotEncrypted(t *testing.T) {
	err := DecryptStream(&bytes.Buffer{}, bytes.NewReader([]byte("PK\x03\x04 plain zip data, long enough for a header")), "secret")
	if !errors.Is(err, ErrNotEncrypted) {
		t.Errorf("err = %v, want ErrNotEncrypted", err)
	}
}

func TestEncryptRejectsEmptyPassword(t *testing.T) {
	if err := EncryptStream(&bytes.Buffer{}, bytes.NewReader(nil), "", testParams); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "plain.zip", "zip bytes")
	enc := filepath.Join(dir, "backup.enc")
	dec := filepath.Join(dir, "backup.zip")

	if err := EncryptFile(enc, src, "secret", testParams); err != nil {
		t.Fatalf("EncryptFile: %v", err)
	}
	if ok, err := IsEncrypted(enc); err != nil || !ok {
		t.Errorf("IsEncrypted(enc) = (%v, %v), want true", ok, err)
	}
	if ok, err := IsEncrypted(src); err != nil || ok {
		t.Errorf("IsEncrypted(src) = (%v, %v), want false", ok, err)
	}

	if err := DecryptFile(dec, enc, "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("DecryptFile wrong password err = %v", err)
	}
	if _, err := os.Stat(dec); !os.IsNotExist(err) {
		t.Error("failed decryption should not leave an output file")
	}

	if err := DecryptFile(dec, enc, "secret"); err != nil {
		t.Fatalf("DecryptFile: %v", err)
	}
	data, _ := os.ReadFile(dec)
	if string(data) != "zip bytes" {
		t.Errorf("decrypted = %q", data)
	}
}
