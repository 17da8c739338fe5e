package payment

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// KHQRConfig holds the Bakong open API credentials and the merchant
// identity stamped into generated QR payloads.
type KHQRConfig struct {
	BaseURL      string // e.g. https://api-bakong.nbc.gov.kh
	Token        string // bearer token issued by the Bakong portal
	MerchantID   string // bakong account id, e.g. merchant@bank
	MerchantName string
	MerchantCity string
	ChargeTTL    time.Duration
}

// KHQRGateway implements Gateway against the Bakong KHQR API.  Charges
// are static EMV payloads generated locally; settlement is discovered by
// querying the transaction by the payload's MD5 hash, which doubles as
// the charge reference.
type KHQRGateway struct {
	cfg    KHQRConfig
	client *http.Client
}

func NewKHQRGateway(cfg KHQRConfig, client *http.Client) *KHQRGateway {
	if client == nil {
		client = &http.Client{}
	}
	return &KHQRGateway{cfg: cfg, client: client}
}

func (g *KHQRGateway) CreateCharge(ctx context.Context, bookingID uint64, amountCents uint32, currency string) (*Charge, error) {
	payload, err := g.buildPayload(bookingID, amountCents, currency)
	if err != nil {
		return nil, err
	}

	sum := md5.Sum([]byte(payload))
	ref := hex.EncodeToString(sum[:])

	png, err := qrcode.Encode(payload, qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	return &Charge{
		Reference:     ref,
		QRString:      payload,
		QRImageBase64: base64.StdEncoding.EncodeToString(png),
		AmountCents:   amountCents,
		Currency:      currency,
		ExpiresAt:     time.Now().UTC().Add(g.cfg.ChargeTTL),
	}, nil
}

// CheckStatus queries check_transaction_by_md5.  responseCode 0 means the
// transaction settled; the "not found" error code means nobody has paid
// yet.  Transport errors and non-2xx responses bubble up so the caller
// can treat the state as unknown and retry later.
func (g *KHQRGateway) CheckStatus(ctx context.Context, reference string) (*Status, error) {
	body, err := json.Marshal(map[string]string{"md5": reference})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(g.cfg.BaseURL, "/") + "/v1/check_transaction_by_md5"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check transaction: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check transaction: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		ResponseCode int    `json:"responseCode"`
		ErrorCode    *int   `json:"errorCode"`
		Message      string `json:"responseMessage"`
		Data         struct {
			Hash         string  `json:"hash"`
			Amount       float64 `json:"amount"`
			CurrencyCode string  `json:"currency"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("check transaction: decode: %w", err)
	}

	if out.ResponseCode != 0 {
		// errorCode 1 = transaction not found: still awaiting payment.
		if out.ErrorCode != nil && *out.ErrorCode == 1 {
			return &Status{State: StatePending}, nil
		}
		return &Status{State: StateFailed}, nil
	}

	cents := uint32(out.Data.Amount*100 + 0.5)
	if out.Data.CurrencyCode == "KHR" {
		cents = uint32(out.Data.Amount + 0.5)
	}
	return &Status{
		State:        StateConfirmed,
		AmountCents:  cents,
		ProviderTxID: out.Data.Hash,
	}, nil
}

// buildPayload assembles a dynamic KHQR (EMVCo merchant-presented) string
// carrying the amount, so the customer cannot edit it in their app.
func (g *KHQRGateway) buildPayload(bookingID uint64, amountCents uint32, currency string) (string, error) {
	code, amount, err := formatAmount(amountCents, currency)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(emv("00", "01")) // payload format indicator
	b.WriteString(emv("01", "12")) // point of initiation: dynamic
	b.WriteString(emv("29", emv("00", g.cfg.MerchantID)))
	b.WriteString(emv("52", "4121")) // MCC: motion picture theaters
	b.WriteString(emv("53", code))
	b.WriteString(emv("54", amount))
	b.WriteString(emv("58", "KH"))
	b.WriteString(emv("59", g.cfg.MerchantName))
	b.WriteString(emv("60", g.cfg.MerchantCity))
	b.WriteString(emv("62", emv("01", fmt.Sprintf("BK%d", bookingID))))
	b.WriteString("6304") // CRC tag and length, value computed over everything before it
	payload := b.String()
	return payload + fmt.Sprintf("%04X", crc16(payload)), nil
}

func formatAmount(cents uint32, currency string) (code, amount string, err error) {
	switch currency {
	case "USD":
		return "840", fmt.Sprintf("%d.%02d", cents/100, cents%100), nil
	case "KHR":
		// Riel has no sub-unit; cents holds whole riel.
		return "116", fmt.Sprintf("%d", cents), nil
	default:
		return "", "", fmt.Errorf("unsupported currency %q", currency)
	}
}

func emv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// crc16 is CRC-16/CCITT-FALSE as required by the EMVCo QR spec.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
