package payment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(url string) *KHQRGateway {
	return NewKHQRGateway(KHQRConfig{
		BaseURL:      url,
		Token:        "test-token",
		MerchantID:   "merchant@bank",
		MerchantName: "CineBook",
		MerchantCity: "Phnom Penh",
		ChargeTTL:    15 * time.Minute,
	}, nil)
}

func TestCreateCharge(t *testing.T) {
	gw := testGateway("http://unused")

	ch, err := gw.CreateCharge(context.Background(), 42, 2500, "USD")
	require.NoError(t, err)

	// The reference is the MD5 of the QR payload, which is what the
	// provider later indexes settlements by.
	sum := md5.Sum([]byte(ch.QRString))
	assert.Equal(t, hex.EncodeToString(sum[:]), ch.Reference)
	assert.Equal(t, uint32(2500), ch.AmountCents)
	assert.NotEmpty(t, ch.QRImageBase64)
	assert.Contains(t, ch.QRString, "merchant@bank")
	assert.Contains(t, ch.QRString, "25.00")
	assert.Contains(t, ch.QRString, "BK42")
}

func TestCreateChargeUnsupportedCurrency(t *testing.T) {
	gw := testGateway("http://unused")
	_, err := gw.CreateCharge(context.Background(), 42, 2500, "EUR")
	require.Error(t, err)
}

func TestBuildPayloadCRC(t *testing.T) {
	gw := testGateway("http://unused")
	payload, err := gw.buildPayload(1, 100, "USD")
	require.NoError(t, err)
	// The last 8 characters are the CRC tag: id 63, length 04, value.
	require.Greater(t, len(payload), 8)
	crc := payload[len(payload)-4:]
	body := payload[:len(payload)-4]
	assert.Contains(t, body, "6304")
	// Recomputing over everything before the CRC value must match.
	assert.Equal(t, hexUpper(crc16(body)), crc)
}

func hexUpper(v uint16) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{
		digits[v>>12&0xF], digits[v>>8&0xF], digits[v>>4&0xF], digits[v&0xF],
	})
}

func TestCheckStatusConfirmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/check_transaction_by_md5", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc123", body["md5"])

		json.NewEncoder(w).Encode(map[string]any{
			"responseCode": 0,
			"data": map[string]any{
				"hash":     "provider-hash",
				"amount":   25.00,
				"currency": "USD",
			},
		})
	}))
	defer srv.Close()

	st, err := testGateway(srv.URL).CheckStatus(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, st.State)
	assert.Equal(t, uint32(2500), st.AmountCents)
	assert.Equal(t, "provider-hash", st.ProviderTxID)
}

func TestCheckStatusNotFoundMeansPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		one := 1
		json.NewEncoder(w).Encode(map[string]any{
			"responseCode":    1,
			"errorCode":       one,
			"responseMessage": "Transaction could not be found.",
		})
	}))
	defer srv.Close()

	st, err := testGateway(srv.URL).CheckStatus(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, StatePending, st.State)
}

func TestCheckStatusTimeoutIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := testGateway(srv.URL).CheckStatus(ctx, "abc123")
	// Unknown, not failed: the caller must get an error to retry on,
	// never a StateFailed.
	require.Error(t, err)
}

func TestStubGatewayConfirm(t *testing.T) {
	gw := NewStubGateway(15 * time.Minute)
	ctx := context.Background()

	ch, err := gw.CreateCharge(ctx, 1, 1000, "USD")
	require.NoError(t, err)

	st, err := gw.CheckStatus(ctx, ch.Reference)
	require.NoError(t, err)
	assert.Equal(t, StatePending, st.State)

	gw.Confirm(ch.Reference, 0)
	st, err = gw.CheckStatus(ctx, ch.Reference)
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, st.State)
	assert.Equal(t, uint32(1000), st.AmountCents)
}
