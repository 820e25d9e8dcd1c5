package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediaqr/internal/common"
	"github.com/dmitrijs2005/mediaqr/internal/netx"
)

// AgentClient posts control messages to the offline cache agent.
type AgentClient struct {
	baseURL string
	http    *http.Client
}

func NewAgentClient(baseURL string, httpClient *http.Client) *AgentClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AgentClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (a *AgentClient) send(ctx context.Context, msgType string, data any) error {
	msg := common.AgentMessage{Type: msgType}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = raw
	}
	return netx.PostJSON(ctx, a.http, a.baseURL+common.AgentMessagesPath, msg)
}

// CacheHistory stores data as the agent's offline-history snapshot.
func (a *AgentClient) CacheHistory(ctx context.Context, data any) error {
	return a.send(ctx, common.MessageCacheHistory, data)
}

// SkipWaiting asks a waiting agent version to activate now.
func (a *AgentClient) SkipWaiting(ctx context.Context) error {
	return a.send(ctx, common.MessageSkipWaiting, nil)
}
