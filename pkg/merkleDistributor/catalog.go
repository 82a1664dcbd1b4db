package merkleDistributor

import (
	"bytes"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"strings"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/pkg/loadable"
)

// ErrRootMismatch is returned when a published grant payload does not verify
// against its recorded merkle root. This is a configuration/integrity error:
// the engine must not serve amounts derived from an unverified payload.
var ErrRootMismatch = errors.New("grant payload does not match recorded merkle root")

// GrantCatalog holds the verified, static grant payloads for every configured
// distributor kind. Loaded once at startup and read-only afterwards.
type GrantCatalog struct {
	logger   *zap.Logger
	payloads map[DistributorKind]loadable.Loadable[*MerkleInfo]
}

// CatalogSource locates one published payload: a filesystem path or an
// http(s) URL.
type CatalogSource struct {
	Kind     DistributorKind
	Location string
}

func NewGrantCatalog(l *zap.Logger) *GrantCatalog {
	return &GrantCatalog{
		logger:   l,
		payloads: make(map[DistributorKind]loadable.Loadable[*MerkleInfo]),
	}
}

// LoadAll fetches, decodes and verifies every configured payload. Any
// verification failure aborts the load; a catalog is either fully verified or
// unusable.
func (gc *GrantCatalog) LoadAll(sources []CatalogSource) error {
	for _, src := range sources {
		info, err := loadMerkleInfo(src.Location)
		if err != nil {
			return errors.Wrapf(err, "failed to load grant payload for '%s'", src.Kind)
		}
		if err := VerifyGrantPayload(src.Kind, info); err != nil {
			return errors.Wrapf(err, "failed to verify grant payload for '%s'", src.Kind)
		}
		gc.logger.Sugar().Infow("Loaded grant payload",
			zap.String("kind", string(src.Kind)),
			zap.String("root", info.MerkleRoot),
			zap.Int("grants", len(info.Grants)),
		)
		gc.payloads[src.Kind] = loadable.Loaded(info)
	}
	return nil
}

// AddVerifiedPayload installs a payload that was verified out of band.
func (gc *GrantCatalog) AddVerifiedPayload(kind DistributorKind, info *MerkleInfo) {
	gc.payloads[kind] = loadable.Loaded(info)
}

// Info returns the payload for a kind; not loaded means the kind was not
// configured for this network.
func (gc *GrantCatalog) Info(kind DistributorKind) loadable.Loadable[*MerkleInfo] {
	if p, ok := gc.payloads[kind]; ok {
		return p
	}
	return loadable.NotLoaded[*MerkleInfo]()
}

// Grant looks up a single grant by index within a kind's payload.
func (gc *GrantCatalog) Grant(kind DistributorKind, index uint64) *GrantInfo {
	info, ok := gc.Info(kind).Value()
	if !ok {
		return nil
	}
	for _, g := range info.Grants {
		if g.Index == index {
			return g
		}
	}
	return nil
}

func loadMerkleInfo(location string) (*MerkleInfo, error) {
	var data []byte
	var err error
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		res, httpErr := http.Get(location)
		if httpErr != nil {
			return nil, errors.Wrapf(httpErr, "failed to fetch '%s'", location)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			return nil, errors.Errorf("unexpected status %d fetching '%s'", res.StatusCode, location)
		}
		data, err = io.ReadAll(res.Body)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read '%s'", location)
	}
	return parseMerkleInfo(data)
}

// VerifyGrantPayload checks every grant's proof against the payload's
// recorded root. The leaf encoding matches the distributor contract:
// keccak256 of the packed (index, account, amount) tuple, with the vesting
// schedule appended for vesting kinds; proof nodes combine with sorted-pair
// keccak256 hashing.
func VerifyGrantPayload(kind DistributorKind, info *MerkleInfo) error {
	root, err := decodeHash(info.MerkleRoot)
	if err != nil {
		return errors.Wrap(err, "invalid merkle root")
	}
	for _, grant := range info.Grants {
		leaf, err := encodeGrantLeaf(kind, grant)
		if err != nil {
			return errors.Wrapf(err, "grant %d", grant.Index)
		}
		ok, err := verifyProof(leaf, grant.Proof, root)
		if err != nil {
			return errors.Wrapf(err, "grant %d", grant.Index)
		}
		if !ok {
			return errors.Wrapf(ErrRootMismatch, "grant %d for %s", grant.Index, grant.Account)
		}
	}
	return nil
}

func encodeGrantLeaf(kind DistributorKind, grant *GrantInfo) ([]byte, error) {
	amount, err := grant.Amount()
	if err != nil {
		return nil, err
	}

	buf := bytes.Buffer{}
	buf.Write(uint256Bytes(uint64BigEndian(grant.Index)))
	buf.Write(gethcommon.HexToAddress(grant.Account).Bytes())
	buf.Write(gethcommon.LeftPadBytes(amount.BigInt().Bytes(), 32))
	if kind.Vesting() {
		buf.Write(uint256Bytes(uint64BigEndian(grant.Grant.VestingLength)))
		buf.Write(uint256Bytes(uint64BigEndian(grant.Grant.CliffLength)))
		buf.Write(uint256Bytes(uint64BigEndian(grant.Grant.VestingInterval)))
	}

	h := keccak256.New()
	return h.Hash(buf.Bytes()), nil
}

func verifyProof(leaf []byte, proof []string, root []byte) (bool, error) {
	h := keccak256.New()
	computed := leaf
	for _, node := range proof {
		sibling, err := decodeHash(node)
		if err != nil {
			return false, errors.Wrap(err, "invalid proof node")
		}
		if bytes.Compare(computed, sibling) <= 0 {
			computed = h.Hash(computed, sibling)
		} else {
			computed = h.Hash(sibling, computed)
		}
	}
	return bytes.Equal(computed, root), nil
}

func decodeHash(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, errors.Errorf("expected 32 byte hash, got %d", len(b))
	}
	return b, nil
}

func uint64BigEndian(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func uint256Bytes(b []byte) []byte {
	return gethcommon.LeftPadBytes(b, 32)
}
