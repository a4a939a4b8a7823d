package encoding

import (
	"encoding/json"
	"fmt"

	"github.com/tendermint/lightclient/crypto"
	"github.com/tendermint/lightclient/crypto/ed25519"
)

// PubKeyJSON is the amino-compatible JSON envelope for a public key, as
// served by the tendermint RPC:
//
//	{"type": "tendermint/PubKeyEd25519", "value": "<base64>"}
type PubKeyJSON struct {
	Type  string `json:"type"`
	Value []byte `json:"value"`
}

// PubKeyToJSON wraps k in its typed JSON envelope.
func PubKeyToJSON(k crypto.PubKey) (PubKeyJSON, error) {
	switch k := k.(type) {
	case ed25519.PubKey:
		return PubKeyJSON{Type: ed25519.PubKeyName, Value: k.Bytes()}, nil
	default:
		return PubKeyJSON{}, fmt.Errorf("tojson: key type %T is not supported", k)
	}
}

// PubKeyFromJSON unwraps a typed JSON envelope.
func PubKeyFromJSON(k PubKeyJSON) (crypto.PubKey, error) {
	return PubKeyFromTypeAndBytes(k.Type, k.Value)
}

// PubKeyFromTypeAndBytes builds a public key from its type name and raw
// bytes. Both the short key type ("ed25519") and the amino name are
// accepted.
func PubKeyFromTypeAndBytes(keyType string, bz []byte) (crypto.PubKey, error) {
	switch keyType {
	case ed25519.KeyType, ed25519.PubKeyName:
		if len(bz) != ed25519.PubKeySize {
			return nil, fmt.Errorf("invalid size for PubKeyEd25519. Got %d, expected %d",
				len(bz), ed25519.PubKeySize)
		}
		pk := make(ed25519.PubKey, ed25519.PubKeySize)
		copy(pk, bz)
		return pk, nil
	default:
		return nil, fmt.Errorf("fromjson: key type %q is not supported", keyType)
	}
}

// MarshalPubKey encodes k as its typed JSON envelope.
func MarshalPubKey(k crypto.PubKey) ([]byte, error) {
	env, err := PubKeyToJSON(k)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalPubKey decodes a typed JSON envelope produced by MarshalPubKey.
func UnmarshalPubKey(bz []byte) (crypto.PubKey, error) {
	var env PubKeyJSON
	if err := json.Unmarshal(bz, &env); err != nil {
		return nil, err
	}
	return PubKeyFromJSON(env)
}
