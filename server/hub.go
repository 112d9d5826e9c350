package server

import (
	"encoding/json"
	"strings"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"heatsink/model"
)

// Hub serves one websocket connection: requests come in on msg, replies go
// out through a single writer.
type Hub struct {
	s    *Server
	conn *websocket.Conn
	// request
	msg chan model.Msg
	// response
	replies chan model.Msg
	done    chan struct{}
}

func NewHub(s *Server, conn *websocket.Conn) *Hub {
	return &Hub{
		s:       s,
		conn:    conn,
		msg:     make(chan model.Msg, 10),
		replies: make(chan model.Msg, 10),
		done:    make(chan struct{}),
	}
}

func (h *Hub) handleRequest() {
	for {
		select {
		case msg := <-h.msg:
			reply := h.s.reply(msg)
			select {
			case h.replies <- reply:
			case <-h.done:
				return
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleResponse() {
	for {
		select {
		case reply := <-h.replies:
			if err := h.conn.WriteJSON(&reply); err != nil {
				log.WithError(err).Warn("websocket write")
			}
		case <-h.done:
			return
		}
	}
}

var replyTypes = map[string]string{
	model.MsgAnalyze: model.MsgAnalyzed,
	model.MsgPredict: model.MsgPredicted,
	model.MsgDefault: model.MsgDefaulted,
}

func (s *Server) reply(msg model.Msg) model.Msg {
	replyType, ok := replyTypes[msg.Type]
	if !ok {
		log.WithField("type", msg.Type).Warn("no such type")
		return errorMsg(model.ErrorResponse{Error: "no such type: " + msg.Type, Kind: "invalid_input"})
	}

	var req model.Request
	if msg.Type != model.MsgDefault {
		var err error
		if req, err = model.DecodeRequest(strings.NewReader(msg.Content)); err != nil {
			return errorMsg(errorBody(err))
		}
	}
	resp, err := s.dispatch(msg.Type, req)
	if err != nil {
		return errorMsg(errorBody(err))
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return errorMsg(errorBody(err))
	}
	return model.Msg{Type: replyType, Content: string(data)}
}

func errorMsg(body model.ErrorResponse) model.Msg {
	data, _ := json.Marshal(body)
	return model.Msg{Type: model.MsgError, Content: string(data)}
}
