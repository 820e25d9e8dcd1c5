package agent

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/mediaqr/internal/agent/cachestore"
	"github.com/dmitrijs2005/mediaqr/internal/common"
)

// HandleMessage processes one control-channel message. SKIP_WAITING
// activates a waiting agent and is ignored in any other state.
// CACHE_HISTORY stores the payload verbatim as the offline-history snapshot.
func (a *Agent) HandleMessage(ctx context.Context, msg common.AgentMessage) error {
	switch msg.Type {
	case common.MessageSkipWaiting:
		if a.State() != StateWaiting {
			return nil
		}
		return a.Activate(ctx)
	case common.MessageCacheHistory:
		return a.storeOfflineHistory(ctx, msg.Data)
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownMessage, msg.Type)
	}
}

func (a *Agent) storeOfflineHistory(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		data = []byte("null")
	}

	p, err := a.store.Open(ctx, a.OfflineName())
	if err != nil {
		return err
	}

	resp := &cachestore.Response{
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": {"application/json"}},
		Body:     append([]byte(nil), data...),
		StoredAt: a.now(),
	}
	if err := p.Put(ctx, OfflineHistoryKey, resp); err != nil {
		return err
	}
	a.log.Debug(ctx, "offline history stored", "bytes", len(data))
	return nil
}
