package model_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodestic/fne-sdk-go/internal/model"
)

const sampleToken = "019465c1-3f61-766c-9652-706e32dfb436"

func TestDecodeResult(t *testing.T) {
	body := []byte(`{
		"ncc": "9606123E",
		"reference": "9606123E25000000019",
		"token": "http://54.247.95.108/fr/verification/` + sampleToken + `",
		"warning": true,
		"balance_sticker": 179,
		"invoice": {
			"id": "e2b2d8da-a532-4c08-9182-f5b428ca468d",
			"items": [
				{"id": "bf9cc241-9b5f-4d26-a570-aa8e682a759e", "description": "Ordinateur", "quantity": 2, "amount": 650000},
				{"id": "a0a5a1f4-2c39-4a79-a2c8-0e23c1d3a1e2", "description": "Souris", "quantity": 1, "amount": 5000}
			]
		}
	}`)

	res, err := model.DecodeResult(body, http.StatusOK)
	require.NoError(t, err)

	assert.True(t, res.IsSuccess())
	assert.Equal(t, "9606123E", res.NCC())
	assert.Equal(t, "9606123E25000000019", res.Reference())
	assert.Equal(t, res.Token(), res.VerificationURL())
	assert.Equal(t, sampleToken, res.VerificationToken())
	assert.True(t, res.HasWarning())
	assert.Equal(t, 179, res.BalanceSticker())
	assert.Equal(t, "e2b2d8da-a532-4c08-9182-f5b428ca468d", res.InvoiceID())

	items := res.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Ordinateur", items[0].Description)
	assert.Equal(t, float64(2), items[0].Quantity)
	assert.Equal(t, []string{
		"a0a5a1f4-2c39-4a79-a2c8-0e23c1d3a1e2",
		"bf9cc241-9b5f-4d26-a570-aa8e682a759e",
	}, res.ItemIDs())
}

func TestNewResult_Defaults(t *testing.T) {
	res := model.NewResult(nil, http.StatusCreated)

	assert.True(t, res.IsSuccess())
	assert.Empty(t, res.NCC())
	assert.Empty(t, res.Reference())
	assert.False(t, res.HasWarning())
	assert.Zero(t, res.BalanceSticker())
	assert.NotNil(t, res.Invoice())
	assert.Empty(t, res.InvoiceID())
	assert.Empty(t, res.Items())
	assert.Empty(t, res.VerificationToken())

	assert.False(t, model.NewResult(nil, http.StatusAccepted).IsSuccess())
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"test environment", "http://54.247.95.108/fr/verification/" + sampleToken, sampleToken, false},
		{"upper case", "https://fne.dgi.gouv.ci/fr/verification/019465C1-3F61-766C-9652-706E32DFB436", "019465C1-3F61-766C-9652-706E32DFB436", false},
		{"no token", "http://54.247.95.108/fr/verification/", "", true},
		{"trailing path", "http://54.247.95.108/fr/verification/" + sampleToken + "/pdf", "", true},
		{"not a uuid", "http://54.247.95.108/fr/verification/" + strings.Repeat("-", 36), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := model.ExtractToken(tt.url)
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrNoVerificationToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildVerificationURL(t *testing.T) {
	assert.Equal(t,
		"http://54.247.95.108/fr/verification/"+sampleToken,
		model.BuildVerificationURL(sampleToken, true, "https://ignored.example"))
	assert.Equal(t,
		"https://fne.example.ci/fr/verification/"+sampleToken,
		model.BuildVerificationURL(sampleToken, false, "https://fne.example.ci/"))
	assert.Equal(t,
		"http://54.247.95.108/fr/verification/"+sampleToken,
		model.BuildVerificationURL(sampleToken, false, ""))
}
