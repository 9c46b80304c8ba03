package server

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/kiesman99/omafpack/internal/api"
)

// Stream answers viewport switches over a websocket. Each StreamRequest
// is packed and answered with one StreamResponse, in order.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Error(err, "websocket accept")
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	requestID := requestIDFrom(r)
	log := s.log.WithValues("request_id", requestID)
	log.V(1).Info("stream opened")

	for {
		var req api.StreamRequest
		if err := wsjson.Read(ctx, c, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, ctx.Err()) {
				log.V(1).Info("stream closed")
				return
			}
			log.V(1).Info("stream read failed", "err", err.Error())
			c.Close(websocket.StatusInvalidFramePayloadData, "expected a StreamRequest")
			return
		}

		resp := api.StreamResponse{ViewportIndex: req.ViewportIndex}
		res, err := s.gen.Generate(req.ViewportIndex)
		if err != nil {
			_, perr, _ := packingErrorResponse(req.ViewportIndex, err, &requestID)
			resp.Error = &perr
		} else {
			p := toAPIPacking(res)
			resp.Packing = &p
		}

		if err := wsjson.Write(ctx, c, resp); err != nil {
			log.V(1).Info("stream write failed", "err", err.Error())
			return
		}
	}
}
