package conn

import (
	"encoding/json"
	"net/http"

	"github.com/cilforge/cilforge/pkg"
	"github.com/gorilla/websocket"
)

type WsRequest struct {
	Action RequestAction `json:"action"`
	ReqId  int           `json:"__cf_client_req_id__"` // used in cilforge clients
}

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleConnection runs one websocket edit session: each message is an
// action against the shared session, each reply echoes the client's
// request id.
func HandleConnection(s *Session, ws *websocket.Conn) {
	defer ws.Close()
	defer pkg.InfoLog("Connection closed from", ws.RemoteAddr())
	for {
		_, buf, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("conn read error", err)
			}
			return
		}

		var req WsRequest
		if err := json.Unmarshal(buf, &req); err != nil {
			pkg.ErrorLog("parsing request", err)
			continue
		}

		res := ActionHandler(s, req.Action, buf)
		res.ReqId = req.ReqId

		if err := ws.WriteMessage(websocket.TextMessage, res.Marshal()); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}
	}
}

func ConnError(w http.ResponseWriter, r *http.Request, conn_error string) {
	pkg.InfoLog("connection error:", conn_error)
	headers := http.Header{}
	headers.Set("cf-error", conn_error)
	ws, err := Upgrader.Upgrade(w, r, headers)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}

	ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseUnsupportedData, conn_error))
	ws.Close()
}
