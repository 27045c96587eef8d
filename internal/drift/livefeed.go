// livefeed.go is the optional websocket-backed live feed for the drift
// detector: when a provider exposes a streaming quote/chain endpoint,
// this keeps a rolling LiveRead per symbol fresh without a REST poll per
// drift check, using gorilla/websocket for the connection.
package drift

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// LiveFeed maintains a rolling cache of the most recent LiveRead per
// symbol, updated as messages arrive over a websocket connection. Reads
// never block on the network; Latest always returns the last message
// received, or ok=false if none has arrived yet for that symbol.
type LiveFeed struct {
	mu    sync.RWMutex
	cache map[string]LiveRead
}

func NewLiveFeed() *LiveFeed {
	return &LiveFeed{cache: map[string]LiveRead{}}
}

// Latest returns the most recently received LiveRead for symbol.
func (f *LiveFeed) Latest(symbol string) (LiveRead, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	read, ok := f.cache[symbol]
	return read, ok
}

// wireMessage is the decoded shape of one push message from the feed.
type wireMessage struct {
	Symbol            string  `json:"symbol"`
	ChainAvailable    bool    `json:"chain_available"`
	UnderlyingPrice   float64 `json:"underlying_price"`
	UnderlyingPriceOK bool    `json:"underlying_price_ok"`
	ContractIV        float64 `json:"contract_iv"`
	ContractIVOK      bool    `json:"contract_iv_ok"`
	LiveSpreadPct     float64 `json:"live_spread_pct"`
	LiveSpreadPctOK   bool    `json:"live_spread_pct_ok"`
	LiveMidPrice      float64 `json:"live_mid_price"`
}

// Run connects to the feed URL and updates the rolling cache until ctx is
// canceled or the connection drops. Callers that don't want live drift
// data simply never call Run — CheckAll works equally well against a
// hand-built lives map from a REST poll.
func (f *LiveFeed) Run(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("drift: livefeed dial %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("drift: livefeed read: %w", err)
		}

		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // malformed frame; skip rather than tear down the feed
		}

		f.mu.Lock()
		f.cache[msg.Symbol] = LiveRead{
			Symbol:            msg.Symbol,
			ChainAvailable:    msg.ChainAvailable,
			UnderlyingPrice:   msg.UnderlyingPrice,
			UnderlyingPriceOK: msg.UnderlyingPriceOK,
			ContractIV:        msg.ContractIV,
			ContractIVOK:      msg.ContractIVOK,
			LiveSpreadPct:     msg.LiveSpreadPct,
			LiveSpreadPctOK:   msg.LiveSpreadPctOK,
			LiveMidPrice:      msg.LiveMidPrice,
		}
		f.mu.Unlock()
	}
}
