package dev

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ReloadPath is the websocket endpoint browsers connect to in development.
const ReloadPath = "/_ssrkit/reload"

const writeTimeout = 5 * time.Second

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeFull  ReloadMessageType = "reload"
	ReloadTypeCSS   ReloadMessageType = "css"
	ReloadTypeError ReloadMessageType = "error"
	ReloadTypeClear ReloadMessageType = "clear"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type  ReloadMessageType `json:"type"`
	Error string            `json:"error,omitempty"`
	File  string            `json:"file,omitempty"`
}

type reloadClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *reloadClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReloadServer manages WebSocket connections for live reload.
type ReloadServer struct {
	clients  map[*reloadClient]struct{}
	closed   bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewReloadServer creates a new reload server.
func NewReloadServer(logger *slog.Logger) *ReloadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReloadServer{
		clients: make(map[*reloadClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // dev only
			},
		},
		logger: logger.With("component", "reload"),
	}
}

// ServeHTTP upgrades the connection and holds it until the browser leaves
// or the server is closed.
func (r *ReloadServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Debug("upgrade failed", "error", err)
		return
	}
	client := &reloadClient{conn: conn}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		conn.Close()
		return
	}
	r.clients[client] = struct{}{}
	r.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.remove(client)
}

func (r *ReloadServer) remove(client *reloadClient) {
	r.mu.Lock()
	delete(r.clients, client)
	r.mu.Unlock()
	client.conn.Close()
}

// NotifyReload sends a full page reload message to all clients.
func (r *ReloadServer) NotifyReload() {
	r.broadcast(ReloadMessage{Type: ReloadTypeFull})
}

// NotifyCSS sends a stylesheet-only reload message to all clients.
func (r *ReloadServer) NotifyCSS(file string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeCSS, File: file})
}

// NotifyError shows the error overlay on all clients.
func (r *ReloadServer) NotifyError(errMsg string) {
	r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: errMsg})
}

// ClearError clears the error overlay on all clients.
func (r *ReloadServer) ClearError() {
	r.broadcast(ReloadMessage{Type: ReloadTypeClear})
}

func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	clients := make([]*reloadClient, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		if err := client.write(data); err != nil {
			r.remove(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections and rejects new ones.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for client := range r.clients {
		client.conn.Close()
		delete(r.clients, client)
	}
}

// ClientScript returns the inline script that connects a page to the
// reload endpoint.
func ClientScript() string {
	return strings.Replace(clientScript, "{{path}}", ReloadPath, 1)
}

const clientScript = `(function () {
  var delay = 1000;
  function overlay(text) {
    clear();
    var el = document.createElement('pre');
    el.id = 'ssrkit-error-overlay';
    el.style.cssText = 'position:fixed;inset:0;margin:0;padding:20px;background:rgba(0,0,0,.9);color:#ff5555;font:14px monospace;white-space:pre-wrap;z-index:999999';
    el.textContent = text;
    document.body.appendChild(el);
  }
  function clear() {
    var el = document.getElementById('ssrkit-error-overlay');
    if (el) el.remove();
  }
  function restyle() {
    document.querySelectorAll('link[rel="stylesheet"]').forEach(function (link) {
      var url = new URL(link.href);
      url.searchParams.set('_reload', Date.now());
      link.href = url.toString();
    });
  }
  function connect() {
    var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
    var ws = new WebSocket(proto + '//' + location.host + '{{path}}');
    ws.onopen = function () { delay = 1000; };
    ws.onmessage = function (e) {
      var msg;
      try { msg = JSON.parse(e.data); } catch (err) { return; }
      if (msg.type === 'reload') location.reload();
      else if (msg.type === 'css') restyle();
      else if (msg.type === 'error') overlay(msg.error);
      else if (msg.type === 'clear') clear();
    };
    ws.onclose = function () {
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 30000);
    };
  }
  connect();
})();`
