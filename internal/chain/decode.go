package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/monsterwatch/scvfeed/internal/models"
)

// LogEntry is one raw log from eth_getFilterChanges.
type LogEntry struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	TransactionHash string   `json:"transactionHash"`
	Removed         bool     `json:"removed"`
}

// The EvNewOffer data section is three 32-byte big-endian words:
// price, side, and an offer id this service does not use.
const (
	wordHexLen  = 64
	dataWords   = 3
	sideWordIdx = 1
)

// DecodeOffer decodes one marketplace log into an Offer. Logs for other token
// contracts (topics[2] != tokenTopic) return (nil, nil) and are skipped
// silently; structurally invalid entries return an error.
func DecodeOffer(entry LogEntry, tokenTopic string) (*models.Offer, error) {
	if len(entry.Topics) < 4 {
		return nil, fmt.Errorf("log %s: expected 4 topics, got %d", entry.TransactionHash, len(entry.Topics))
	}
	if !strings.EqualFold(entry.Topics[2], tokenTopic) {
		return nil, nil
	}

	tokenID, ok := hexWord(entry.Topics[3])
	if !ok {
		return nil, fmt.Errorf("log %s: malformed token ID topic %q", entry.TransactionHash, entry.Topics[3])
	}

	data := strings.TrimPrefix(entry.Data, "0x")
	if len(data) != dataWords*wordHexLen {
		return nil, fmt.Errorf("log %s: expected %d data words, got %d hex chars", entry.TransactionHash, dataWords, len(data))
	}

	price, ok := hexWord(data[:wordHexLen])
	if !ok {
		return nil, fmt.Errorf("log %s: malformed price word", entry.TransactionHash)
	}
	sideWord, ok := hexWord(data[sideWordIdx*wordHexLen : (sideWordIdx+1)*wordHexLen])
	if !ok {
		return nil, fmt.Errorf("log %s: malformed side word", entry.TransactionHash)
	}

	return &models.Offer{
		TokenID:  tokenID,
		Side:     models.SideOf(int(sideWord.Int64())),
		PriceWei: price,
		Tx:       entry.TransactionHash,
	}, nil
}

func hexWord(s string) (*big.Int, bool) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 16)
	return v, ok
}
