// Package chain watches the marketplace contract for new offer events over a
// BSC websocket endpoint. It installs an eth_newFilter for the EvNewOffer
// topic and drains it with eth_getFilterChanges on every poll, decoding the
// fixed-layout logs into Offer values.
//
// Node-side filters expire; a "filter not found" response surfaces as
// ErrStaleFilter and the caller recovers by calling Reconnect. This is a
// normal state transition, not a failure of the feed.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/monsterwatch/scvfeed/internal/logger"
	"github.com/monsterwatch/scvfeed/internal/models"
)

// ErrStaleFilter signals that the node-side log filter expired and the
// client must re-subscribe before polling again.
var ErrStaleFilter = errors.New("event filter stale or not found")

// seenTxCap bounds the duplicate-suppression window.
const seenTxCap = 512

// Client is a JSON-RPC-over-websocket log watcher for one contract topic.
type Client struct {
	url         string
	contract    string
	eventTopic  string
	tokenTopic  string
	dialTimeout time.Duration
	callTimeout time.Duration

	conn     *websocket.Conn
	filterID string
	nextID   uint64

	seenTx    map[string]struct{}
	seenOrder []string
}

// NewClient creates a chain client. eventTopic is the keccak topic of the
// marketplace's EvNewOffer event; tokenTopic is the padded address topic of
// the tracked token contract. Both are fixed constants carried in config.
func NewClient(url, contract, eventTopic, tokenTopic string, dialTimeout, callTimeout time.Duration) *Client {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	return &Client{
		url:         url,
		contract:    contract,
		eventTopic:  eventTopic,
		tokenTopic:  tokenTopic,
		dialTimeout: dialTimeout,
		callTimeout: callTimeout,
		seenTx:      make(map[string]struct{}, seenTxCap),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Connect dials the websocket endpoint and installs the log filter.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial chain provider: %w", err)
	}
	c.conn = conn

	filterArg := map[string]any{
		"address": c.contract,
		"topics":  []string{c.eventTopic},
	}
	var filterID string
	if err := c.call(ctx, "eth_newFilter", []any{filterArg}, &filterID); err != nil {
		conn.Close()
		c.conn = nil
		return fmt.Errorf("failed to install log filter: %w", err)
	}
	c.filterID = filterID
	logger.Info("chain filter %s installed on %s", filterID, c.contract)
	return nil
}

// Reconnect tears down the connection and installs a fresh filter. Used for
// both socket failures and stale filters.
func (c *Client) Reconnect(ctx context.Context) error {
	c.Close()
	logger.Info("reconnecting to chain provider")
	return c.Connect(ctx)
}

// Close closes the websocket connection. Safe to call repeatedly.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.filterID = ""
}

// Poll drains new log entries and returns decoded SELL offers, de-duplicated
// by transaction hash. Both a stale filter and a transport failure map to
// ErrStaleFilter: a websocket read or write error leaves the connection
// unusable, so the caller must resubscribe either way.
func (c *Client) Poll(ctx context.Context) ([]models.Offer, error) {
	if c.conn == nil || c.filterID == "" {
		return nil, ErrStaleFilter
	}

	var entries []LogEntry
	if err := c.call(ctx, "eth_getFilterChanges", []any{c.filterID}, &entries); err != nil {
		if isFilterNotFound(err) {
			return nil, ErrStaleFilter
		}
		var rerr *rpcError
		if !errors.As(err, &rerr) {
			logger.Warn("chain poll transport failure, forcing resubscribe: %v", err)
			c.Close()
			return nil, ErrStaleFilter
		}
		return nil, err
	}

	var offers []models.Offer
	for _, entry := range entries {
		if entry.Removed {
			continue
		}
		offer, err := DecodeOffer(entry, c.tokenTopic)
		if err != nil {
			logger.Warn("skipping undecodable log: %v", err)
			continue
		}
		if offer == nil || offer.Side != models.SideSell {
			continue
		}
		if c.markSeen(offer.Tx) {
			logger.Debug("duplicate offer tx %s suppressed", offer.Tx)
			continue
		}
		logger.Info("new %s offer: token %s price %s wei tx %s",
			offer.Side, offer.TokenID, offer.PriceWei, offer.Tx)
		offers = append(offers, *offer)
	}
	return offers, nil
}

// call performs one synchronous JSON-RPC round trip. Polling is
// single-threaded, so there is never more than one call in flight.
func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	c.nextID++
	req := rpcRequest{JSONRPC: "2.0", ID: c.nextID, Method: method, Params: params}

	deadline := time.Now().Add(c.callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}

	_ = c.conn.SetReadDeadline(deadline)
	var resp rpcResponse
	if err := c.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("%s response failed: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("%s response id %d does not match request id %d", method, resp.ID, req.ID)
	}
	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s result decode failed: %w", method, err)
		}
	}
	return nil
}

// markSeen records a tx hash, reporting whether it was already present.
// The window is bounded; oldest entries age out first.
func (c *Client) markSeen(tx string) bool {
	if _, ok := c.seenTx[tx]; ok {
		return true
	}
	c.seenTx[tx] = struct{}{}
	c.seenOrder = append(c.seenOrder, tx)
	if len(c.seenOrder) > seenTxCap {
		oldest := c.seenOrder[0]
		c.seenOrder = c.seenOrder[1:]
		delete(c.seenTx, oldest)
	}
	return false
}

func isFilterNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "filter not found")
}
