package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"heatsink/model"
	"heatsink/thermal"
)

var ErrPredictUnavailable = errors.New("correction model not loaded, predict unavailable")

// dispatch runs one operation; default ignores req.
func (s *Server) dispatch(op string, req model.Request) (interface{}, error) {
	switch op {
	case model.MsgDefault:
		return model.Solve(model.DefaultParams())
	case model.MsgAnalyze:
		p, err := req.Params()
		if err != nil {
			return nil, err
		}
		return model.Solve(p)
	case model.MsgPredict:
		if s.predictor == nil {
			return nil, s.unavailable()
		}
		p, err := req.Params()
		if err != nil {
			return nil, err
		}
		return model.Predict(s.predictor, p)
	}
	return nil, &thermal.Error{Kind: thermal.InvalidInput, Op: "dispatch", Err: errors.New("no such operation: " + op)}
}

// unavailable 附带加载失败的原因
func (s *Server) unavailable() error {
	if s.loadErr == nil {
		return ErrPredictUnavailable
	}
	return fmt.Errorf("%w: %w", ErrPredictUnavailable, s.loadErr)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	s.serveOp(w, r, model.MsgAnalyze)
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	s.serveOp(w, r, model.MsgPredict)
}

func (s *Server) defaults(w http.ResponseWriter, r *http.Request) {
	s.serveOp(w, r, model.MsgDefault)
}

func (s *Server) serveOp(w http.ResponseWriter, r *http.Request, op string) {
	var req model.Request
	if op != model.MsgDefault {
		var err error
		if req, err = model.DecodeRequest(r.Body); err != nil {
			writeError(w, err)
			return
		}
	}
	resp, err := s.dispatch(op, req)
	if err != nil {
		log.WithError(err).WithField("op", op).Warn("request failed")
		writeError(w, err)
		return
	}
	writeJSON(w, resp, http.StatusOK)
}

func statusOf(err error) int {
	if errors.Is(err, ErrPredictUnavailable) {
		return http.StatusServiceUnavailable
	}
	switch thermal.KindOf(err) {
	case thermal.InvalidInput:
		return http.StatusBadRequest
	case thermal.InvalidGeometry, thermal.NumericalDegeneracy:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func errorBody(err error) model.ErrorResponse {
	body := model.ErrorResponse{Error: err.Error()}
	if k := thermal.KindOf(err); k != 0 {
		body.Kind = k.String()
	} else if errors.Is(err, ErrPredictUnavailable) {
		body.Kind = "model_unavailable"
	}
	return body
}

func writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorBody(err), statusOf(err))
}
