package merkleDistributor

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
	"go.uber.org/zap"
)

const (
	testAccountA = "0x1111111111111111111111111111111111111111"
	testAccountB = "0x2222222222222222222222222222222222222222"
)

// buildPayload assembles a two-leaf payload with valid proofs: each leaf's
// proof is the sibling leaf hash, and the root is the sorted-pair hash of the
// two leaves.
func buildPayload(t *testing.T, kind DistributorKind) *MerkleInfo {
	t.Helper()

	grantA := &GrantInfo{
		Index:   0,
		Account: testAccountA,
		Reason:  "flight_academy",
		Grant:   GrantDetails{Amount: "1000"},
	}
	grantB := &GrantInfo{
		Index:   1,
		Account: testAccountB,
		Reason:  "liquidity_provider",
		Grant:   GrantDetails{Amount: "2500"},
	}
	if kind.Vesting() {
		grantA.Grant.VestingLength = 31536000
		grantA.Grant.VestingInterval = 2592000
		grantB.Grant.VestingLength = 31536000
		grantB.Grant.CliffLength = 15768000
	}

	leafA, err := encodeGrantLeaf(kind, grantA)
	assert.Nil(t, err)
	leafB, err := encodeGrantLeaf(kind, grantB)
	assert.Nil(t, err)

	grantA.Proof = []string{"0x" + hex.EncodeToString(leafB)}
	grantB.Proof = []string{"0x" + hex.EncodeToString(leafA)}

	h := keccak256.New()
	var root []byte
	if bytes.Compare(leafA, leafB) <= 0 {
		root = h.Hash(leafA, leafB)
	} else {
		root = h.Hash(leafB, leafA)
	}

	return &MerkleInfo{
		MerkleRoot:  "0x" + hex.EncodeToString(root),
		AmountTotal: "3500",
		Grants:      []*GrantInfo{grantA, grantB},
	}
}

func Test_VerifyGrantPayload(t *testing.T) {
	t.Run("A consistent direct payload verifies", func(t *testing.T) {
		info := buildPayload(t, DistributorKind_Direct)
		assert.Nil(t, VerifyGrantPayload(DistributorKind_Direct, info))
	})

	t.Run("A consistent vesting payload verifies", func(t *testing.T) {
		info := buildPayload(t, DistributorKind_Vesting)
		assert.Nil(t, VerifyGrantPayload(DistributorKind_Vesting, info))
	})

	t.Run("A tampered amount fails against the root", func(t *testing.T) {
		info := buildPayload(t, DistributorKind_Direct)
		info.Grants[0].Grant.Amount = "999999"
		err := VerifyGrantPayload(DistributorKind_Direct, info)
		assert.NotNil(t, err)
		assert.ErrorIs(t, err, ErrRootMismatch)
	})

	t.Run("A wrong root fails for every grant", func(t *testing.T) {
		info := buildPayload(t, DistributorKind_Direct)
		info.MerkleRoot = "0x" + string(bytes.Repeat([]byte("ab"), 32))
		err := VerifyGrantPayload(DistributorKind_Direct, info)
		assert.NotNil(t, err)
	})

	t.Run("Vesting schedule parameters are part of the leaf", func(t *testing.T) {
		info := buildPayload(t, DistributorKind_Vesting)
		info.Grants[0].Grant.CliffLength = 123
		err := VerifyGrantPayload(DistributorKind_Vesting, info)
		assert.ErrorIs(t, err, ErrRootMismatch)
	})
}

func Test_GrantCatalog(t *testing.T) {
	l := zap.NewNop()

	t.Run("Loads and verifies a payload over HTTP", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		info := buildPayload(t, DistributorKind_Direct)
		body, err := json.Marshal(info)
		assert.Nil(t, err)

		httpmock.RegisterResponder("GET", "https://static.example.com/merkleDirectDistributorInfo.json",
			httpmock.NewBytesResponder(http.StatusOK, body),
		)

		gc := NewGrantCatalog(l)
		err = gc.LoadAll([]CatalogSource{
			{Kind: DistributorKind_Direct, Location: "https://static.example.com/merkleDirectDistributorInfo.json"},
		})
		assert.Nil(t, err)

		loaded, ok := gc.Info(DistributorKind_Direct).Value()
		assert.True(t, ok)
		assert.Len(t, loaded.Grants, 2)
		assert.Equal(t, "flight_academy", gc.Grant(DistributorKind_Direct, 0).Reason)
	})

	t.Run("A corrupt payload aborts the whole load", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		info := buildPayload(t, DistributorKind_Direct)
		info.Grants[1].Grant.Amount = "1"
		body, err := json.Marshal(info)
		assert.Nil(t, err)

		httpmock.RegisterResponder("GET", "https://static.example.com/bad.json",
			httpmock.NewBytesResponder(http.StatusOK, body),
		)

		gc := NewGrantCatalog(l)
		err = gc.LoadAll([]CatalogSource{
			{Kind: DistributorKind_Direct, Location: "https://static.example.com/bad.json"},
		})
		assert.NotNil(t, err)
		assert.False(t, gc.Info(DistributorKind_Direct).IsLoaded())
	})

	t.Run("A non-200 response is an error", func(t *testing.T) {
		httpmock.Activate()
		defer httpmock.DeactivateAndReset()

		httpmock.RegisterResponder("GET", "https://static.example.com/missing.json",
			httpmock.NewStringResponder(http.StatusNotFound, "not found"),
		)

		gc := NewGrantCatalog(l)
		err := gc.LoadAll([]CatalogSource{
			{Kind: DistributorKind_Direct, Location: "https://static.example.com/missing.json"},
		})
		assert.NotNil(t, err)
	})

	t.Run("Unconfigured kinds report not loaded", func(t *testing.T) {
		gc := NewGrantCatalog(l)
		assert.False(t, gc.Info(DistributorKind_BackerVesting).IsLoaded())
		assert.Nil(t, gc.Grant(DistributorKind_BackerVesting, 0))
	})
}

func Test_parseMerkleInfo(t *testing.T) {
	t.Run("Rejects a payload without a root", func(t *testing.T) {
		_, err := parseMerkleInfo([]byte(`{"grants": []}`))
		assert.NotNil(t, err)
	})

	t.Run("Accepts hex amounts", func(t *testing.T) {
		payload := fmt.Sprintf(`{"merkleRoot": "0x%064d", "amountTotal": "0x3e8", "grants": [{"index": 0, "account": "%s", "reason": "goldfinch_investment", "grant": {"amount": "0x3e8"}, "proof": []}]}`, 0, testAccountA)
		info, err := parseMerkleInfo([]byte(payload))
		assert.Nil(t, err)
		amt, err := info.Grants[0].Amount()
		assert.Nil(t, err)
		assert.Equal(t, "1000", amt.String())
	})
}
