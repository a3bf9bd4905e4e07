package linkfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/ALT-F4-LLC/mailvault/internal/model"
)

// ErrMalformedHeader is returned when the first line of a file is not a
// usable header record.
var ErrMalformedHeader = errors.New("malformed link file header")

// Header is the first line of every link file. FileVersion selects the codec
// used for the remaining lines.
type Header struct {
	RecipientID       string `json:"recipientId"`
	Language          string `json:"language"`
	HasCriptextFooter bool   `json:"hasCriptextFooter"`
	FileVersion       int    `json:"fileVersion"`
	Domain            string `json:"domain"`
	DarkTheme         bool   `json:"darkTheme"`
	Signature         string `json:"signature"`
}

// Preferences are the device settings carried in a header.
type Preferences struct {
	DarkTheme bool
	Language  string
}

// NewHeader builds the current-version header for an account.
func NewHeader(a *model.Account, prefs Preferences) Header {
	lang := prefs.Language
	if lang == "" {
		lang = "en"
	}
	return Header{
		RecipientID:       a.Username,
		Language:          lang,
		HasCriptextFooter: a.HasFooter,
		FileVersion:       CurrentVersion,
		Domain:            a.Domain,
		DarkTheme:         prefs.DarkTheme,
		Signature:         a.Signature,
	}
}

// Address returns the recipient as user@domain.
func (h Header) Address() string {
	return h.RecipientID + "@" + h.Domain
}

// EncodeHeader renders h as a single JSON line without the trailing newline.
func EncodeHeader(h Header) ([]byte, error) {
	return marshalLine(h)
}

// ParseHeader decodes a header line. recipientId, domain and fileVersion are
// required; every other field defaults when absent.
func ParseHeader(line []byte) (Header, error) {
	line = bytes.TrimSpace(line)
	if !gjson.ValidBytes(line) {
		return Header{}, fmt.Errorf("%w: not valid JSON", ErrMalformedHeader)
	}
	doc := gjson.ParseBytes(line)
	if !doc.IsObject() {
		return Header{}, fmt.Errorf("%w: not a JSON object", ErrMalformedHeader)
	}

	recipient := doc.Get("recipientId")
	domain := doc.Get("domain")
	version := doc.Get("fileVersion")
	switch {
	case !recipient.Exists():
		return Header{}, fmt.Errorf("%w: missing recipientId", ErrMalformedHeader)
	case !domain.Exists():
		return Header{}, fmt.Errorf("%w: missing domain", ErrMalformedHeader)
	case version.Type != gjson.Number:
		return Header{}, fmt.Errorf("%w: missing fileVersion", ErrMalformedHeader)
	}

	return Header{
		RecipientID:       recipient.String(),
		Language:          doc.Get("language").String(),
		HasCriptextFooter: doc.Get("hasCriptextFooter").Bool(),
		FileVersion:       int(version.Int()),
		Domain:            domain.String(),
		DarkTheme:         doc.Get("darkTheme").Bool(),
		Signature:         doc.Get("signature").String(),
	}, nil
}

// marshalLine encodes v as compact JSON without escaping HTML characters and
// without a trailing newline.
func marshalLine(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
