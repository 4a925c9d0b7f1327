package response

import (
	"encoding/json"

	"github.com/manifest-network/chainctl/internal/models"
	"github.com/manifest-network/chainctl/internal/utils"
)

type apiWallet struct {
	Address    string  `json:"address"`
	Name       *string `json:"name"`
	PublicKey  *string `json:"public_key"`
	Public     *string `json:"public"`
	PrivateKey *string `json:"private_key"`
	Balance    any     `json:"balance"`
}

func (w apiWallet) toModel() models.Wallet {
	publicKey := ""
	switch {
	case w.PublicKey != nil:
		publicKey = *w.PublicKey
	case w.Public != nil:
		publicKey = *w.Public
	}

	wallet := models.Wallet{
		Address:    w.Address,
		Name:       w.Name,
		PublicKey:  publicKey,
		PrivateKey: w.PrivateKey,
	}
	if balance, ok := utils.Number(w.Balance); ok {
		wallet.Balance = &balance
	}
	return wallet
}

// Wallet maps one wallet record. The public key is read from "public_key",
// falling back to "public".
func Wallet(data json.RawMessage) (models.Wallet, error) {
	var raw apiWallet
	if err := unmarshalNumbers(orNull(data), &raw); err != nil {
		return models.Wallet{}, malformed("wallet: %v", err)
	}
	if raw.Address == "" {
		return models.Wallet{}, malformed("wallet without address")
	}
	return raw.toModel(), nil
}

// Wallets maps a list of wallet records. A null payload is an empty list.
func Wallets(data json.RawMessage) ([]models.Wallet, error) {
	var raw []apiWallet
	if err := unmarshalNumbers(orNull(data), &raw); err != nil {
		return nil, malformed("wallets: %v", err)
	}

	wallets := make([]models.Wallet, 0, len(raw))
	for i, w := range raw {
		if w.Address == "" {
			return nil, malformed("wallet %d without address", i)
		}
		wallets = append(wallets, w.toModel())
	}
	return wallets, nil
}

// BuildSign checks that the signed bundle carries tx, pub and sign. The tx
// bytes are kept verbatim.
func BuildSign(data json.RawMessage) (models.BuildSignResult, error) {
	var raw struct {
		Tx   json.RawMessage `json:"tx"`
		Pub  *string         `json:"pub"`
		Sign *string         `json:"sign"`
	}
	if err := json.Unmarshal(orNull(data), &raw); err != nil {
		return models.BuildSignResult{}, malformed("build_sign: %v", err)
	}
	if len(raw.Tx) == 0 || string(raw.Tx) == "null" {
		return models.BuildSignResult{}, malformed("build_sign: missing tx")
	}
	if raw.Pub == nil || raw.Sign == nil {
		return models.BuildSignResult{}, malformed("build_sign: missing pub or sign")
	}
	return models.BuildSignResult{Tx: raw.Tx, Pub: *raw.Pub, Sign: *raw.Sign}, nil
}

// Message extracts a human readable message from a bare string or a
// {"message": "..."} object. Anything else gives "".
func Message(data json.RawMessage) string {
	v, err := decode(data)
	if err != nil {
		return ""
	}
	switch m := v.(type) {
	case string:
		return m
	case map[string]any:
		if s, ok := m["message"].(string); ok {
			return s
		}
	}
	return ""
}

func orNull(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return data
}
