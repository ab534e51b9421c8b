/*
Package web serves the live dashboard: a gorilla/websocket event stream,
a couple of JSON status endpoints, and a Prometheus /metrics endpoint via
promhttp.
*/
package web

import (
	"encoding/json"
	"net/http"
	"sync"

	"agentmesh/pkg/events"
	"agentmesh/pkg/runtime"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the live dashboard and status API for a Runtime.
type Server struct {
	rt          *runtime.Runtime
	clients     map[*websocket.Conn]bool
	clientsMu   sync.RWMutex
	eventStream chan events.Event
	log         zerolog.Logger
}

// NewServer creates a dashboard server over rt, subscribing to its event bus.
func NewServer(rt *runtime.Runtime, logger zerolog.Logger) *Server {
	s := &Server{
		rt:          rt,
		clients:     make(map[*websocket.Conn]bool),
		eventStream: rt.EventBus().Subscribe(),
		log:         logger.With().Str("channel", "web").Logger(),
	}
	go s.broadcastEvents()
	return s
}

// Mux builds the server's handler tree, including /metrics.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/agents", s.handleAgents)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ListenAndServe starts the HTTP server on addr (e.g. ":8901").
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("dashboard starting")
	return http.ListenAndServe(addr, s.Mux())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(dashboardHTML))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	_ = conn.WriteJSON(map[string]any{
		"type": "initial_status",
		"data": s.status(),
	})

	go func() {
		defer func() {
			s.clientsMu.Lock()
			delete(s.clients, conn)
			s.clientsMu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) status() map[string]any {
	return map[string]any{
		"unprocessed_messages": s.rt.UnprocessedMessagesCount(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.status())
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	instantiated := s.rt.InstantiatedAgents()
	agentIDs := make([]string, len(instantiated))
	for i, id := range instantiated {
		agentIDs[i] = id.String()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"agents": agentIDs})
}

func (s *Server) broadcastEvents() {
	for event := range s.eventStream {
		s.clientsMu.RLock()
		var dead []*websocket.Conn
		for client := range s.clients {
			if err := client.WriteJSON(event); err != nil {
				s.log.Warn().Err(err).Msg("websocket write error")
				dead = append(dead, client)
			}
		}
		s.clientsMu.RUnlock()

		if len(dead) == 0 {
			continue
		}
		s.clientsMu.Lock()
		for _, client := range dead {
			delete(s.clients, client)
			_ = client.Close()
		}
		s.clientsMu.Unlock()
	}
}

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>agentmesh dashboard</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; background: #0f172a; color: #e2e8f0; padding: 20px; }
        .header { text-align: center; padding: 30px 0; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); border-radius: 12px; margin-bottom: 30px; }
        .header h1 { font-size: 2.2em; margin-bottom: 10px; }
        .panel { background: #1e293b; border-radius: 12px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.3); }
        .panel h2 { color: #60a5fa; margin-bottom: 15px; font-size: 1.3em; border-bottom: 2px solid #334155; padding-bottom: 10px; }
        .event-log { height: 500px; overflow-y: auto; background: #0f172a; border-radius: 8px; padding: 15px; }
        .event { padding: 10px; margin-bottom: 8px; border-left: 3px solid #3b82f6; background: #1e293b; border-radius: 4px; word-wrap: break-word; }
        .connection-status { position: fixed; top: 20px; right: 20px; padding: 10px 20px; border-radius: 20px; font-weight: bold; }
        .connection-status.connected { background: #10b981; }
        .connection-status.disconnected { background: #ef4444; }
    </style>
</head>
<body>
    <div class="connection-status" id="connection-status">connecting</div>
    <div class="header"><h1>agentmesh dashboard</h1></div>
    <div class="panel">
        <h2>live event stream</h2>
        <div class="event-log" id="event-log"></div>
    </div>
    <script>
        function connect() {
            const ws = new WebSocket('ws://' + window.location.host + '/ws');
            ws.onopen = () => {
                document.getElementById('connection-status').textContent = 'connected';
                document.getElementById('connection-status').className = 'connection-status connected';
            };
            ws.onmessage = (event) => addEventToLog(JSON.parse(event.data));
            ws.onclose = () => {
                document.getElementById('connection-status').textContent = 'disconnected';
                document.getElementById('connection-status').className = 'connection-status disconnected';
                setTimeout(connect, 3000);
            };
        }
        function addEventToLog(event) {
            const log = document.getElementById('event-log');
            const div = document.createElement('div');
            div.className = 'event';
            div.textContent = JSON.stringify(event);
            log.insertBefore(div, log.firstChild);
            while (log.children.length > 50) log.removeChild(log.lastChild);
        }
        connect();
    </script>
</body>
</html>`
