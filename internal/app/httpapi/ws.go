package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marcelojr/placar-show/internal/domain"
	"github.com/marcelojr/placar-show/internal/platform/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LiveMessage e empurrado a cada snapshot. Results so vai para o admin.
type LiveMessage struct {
	State   domain.State `json:"state"`
	Results []ResultRow  `json:"results,omitempty"`
}

func liveMessage(state domain.State, role domain.Role) LiveMessage {
	msg := LiveMessage{State: visibleState(state, role)}
	if role == domain.RoleAdmin {
		msg.Results = Ranking(state)
	}
	return msg
}

// handleWebsocket envia o estado atual e depois cada novo snapshot. Se o cliente
// atrasar, estados intermediarios sao descartados: so o mais recente importa.
func (a *API) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("falha no upgrade do websocket", "err", err)
		return
	}
	defer conn.Close()

	metrics.WebsocketConnected()
	defer metrics.WebsocketDisconnected()

	latest := make(chan domain.State, 1)
	offer := func(state domain.State) {
		for {
			select {
			case latest <- state:
				return
			default:
			}
			select {
			case <-latest:
			default:
			}
		}
	}
	remove := a.board.OnChange(offer)
	defer remove()
	offer(a.board.State())

	closed := make(chan struct{})
	go a.readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case state := <-latest:
			if sent > 0 && state.Version < sent {
				continue
			}
			sent = state.Version
			payload, err := json.Marshal(liveMessage(state, sess.Role))
			if err != nil {
				a.logger.Error("erro ao serializar estado", "err", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				a.logger.Debug("websocket encerrado na escrita", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

// readPump consome mensagens do cliente so para detectar fechamento e pongs.
func (a *API) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Warn("websocket fechado inesperadamente", "err", err)
			}
			return
		}
	}
}
